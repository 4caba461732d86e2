package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/api/http/common"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

func (c *Client) do(method string, addr *url.URL, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, addr.String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secret != "" {
		req.Header.Set(common.HEADER_API_SECRET, c.secret)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	} else if resp.Body == nil {
		if resp.StatusCode >= 400 {
			return fmt.Errorf("bad status code: %d", resp.StatusCode)
		}
		return nil
	}

	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 { // some error code, assume message is error message
		// submission endpoints return a structured result on rejection too
		if json.Unmarshal(raw, out) == nil {
			return nil
		}
		return fmt.Errorf("bad status code %d, returned %s", resp.StatusCode, string(raw))
	}

	return json.Unmarshal(raw, out)
}

func (c *Client) post(addr *url.URL, in, out interface{}) error {
	return c.do(http.MethodPost, addr, in, out)
}

func (c *Client) patch(addr *url.URL, in, out interface{}) error {
	return c.do(http.MethodPatch, addr, in, out)
}

func (c *Client) get(addr *url.URL, out interface{}) error {
	return c.do(http.MethodGet, addr, nil, out)
}

// setQueryString sets the query string of a URL based on the given query object.
func setQueryString(u *url.URL, q *structs.TaskQuery) {
	q.Sanitize()
	values := u.Query()

	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.IDs != nil {
		values["ids"] = q.IDs
	}
	if q.Statuses != nil {
		ss := []string{}
		for _, s := range q.Statuses {
			ss = append(ss, string(s))
		}
		values["statuses"] = ss
	}
	if q.Actions != nil {
		as := []string{}
		for _, a := range q.Actions {
			as = append(as, string(a))
		}
		values["actions"] = as
	}

	u.RawQuery = values.Encode()
}
