package client

import (
	"net/url"
	"strings"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/api/http/common"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

// Client is a thin typed wrapper over the HTTP API.
type Client struct {
	url    *url.URL
	secret string
}

func New(address, secret string) (*Client, error) {
	u, err := url.Parse(address)
	return &Client{url: u, secret: secret}, err
}

func (c *Client) Imagine(req *structs.ImagineRequest) (*structs.SubmitResult, error) {
	var out structs.SubmitResult
	return &out, c.post(c.addr(common.API_SUBMIT_IMAGINE), req, &out)
}

func (c *Client) Change(req *structs.ChangeRequest) (*structs.SubmitResult, error) {
	var out structs.SubmitResult
	return &out, c.post(c.addr(common.API_SUBMIT_CHANGE), req, &out)
}

func (c *Client) SimpleChange(req *structs.SimpleChangeRequest) (*structs.SubmitResult, error) {
	var out structs.SubmitResult
	return &out, c.post(c.addr(common.API_SUBMIT_SIMPLE_CHANGE), req, &out)
}

func (c *Client) Describe(req *structs.DescribeRequest) (*structs.SubmitResult, error) {
	var out structs.SubmitResult
	return &out, c.post(c.addr(common.API_SUBMIT_DESCRIBE), req, &out)
}

func (c *Client) Blend(req *structs.BlendRequest) (*structs.SubmitResult, error) {
	var out structs.SubmitResult
	return &out, c.post(c.addr(common.API_SUBMIT_BLEND), req, &out)
}

func (c *Client) Shorten(req *structs.ShortenRequest) (*structs.SubmitResult, error) {
	var out structs.SubmitResult
	return &out, c.post(c.addr(common.API_SUBMIT_SHORTEN), req, &out)
}

func (c *Client) Task(id string) (*structs.Task, error) {
	addr := c.addr(strings.Replace(common.API_TASK_FETCH, "{id}", id, 1))
	var out structs.Task
	return &out, c.get(addr, &out)
}

func (c *Client) Tasks(q *structs.TaskQuery) ([]*structs.Task, error) {
	addr := c.addr(common.API_TASK_LIST)
	setQueryString(addr, q)
	var out []*structs.Task
	return out, c.get(addr, &out)
}

func (c *Client) TasksByIDs(ids []string) ([]*structs.Task, error) {
	addr := c.addr(common.API_TASK_LIST_BY_IDS)
	in := map[string][]string{"ids": ids}
	var out []*structs.Task
	return out, c.post(addr, in, &out)
}

func (c *Client) Accounts() ([]*structs.Account, error) {
	var out []*structs.Account
	return out, c.get(c.addr(common.API_ACCOUNT_LIST), &out)
}

func (c *Client) Account(id string) (*structs.Account, error) {
	addr := c.addr(strings.Replace(common.API_ACCOUNT_FETCH, "{id}", id, 1))
	var out structs.Account
	return &out, c.get(addr, &out)
}

func (c *Client) SetAccountEnabled(id string, enabled bool) error {
	addr := c.addr(strings.Replace(common.API_ACCOUNT_UPDATE, "{id}", id, 1))
	in := map[string]bool{"enabled": enabled}
	out := map[string]bool{}
	return c.patch(addr, in, &out)
}

func (c *Client) addr(path string) *url.URL {
	return &url.URL{Scheme: c.url.Scheme, Host: c.url.Host, Path: path}
}
