package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

// Sender delivers task snapshots to a caller-supplied callback url.
type Sender interface {
	Deliver(ctx context.Context, url string, snapshot *structs.Task) error
}

// HTTP posts snapshots as JSON.
type HTTP struct {
	cli *http.Client
}

func NewHTTP(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTP{cli: &http.Client{Timeout: timeout}}
}

func (h *HTTP) Deliver(ctx context.Context, url string, snapshot *structs.Task) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("hook returned http %d", resp.StatusCode)
	}
	return nil
}
