// Package httpds fetches source files over HTTP.
package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config controls the HTTP client.
type Config struct {
	Timeout time.Duration
}

// Client downloads source files. The zero Config gets a 60s timeout, long
// enough for the larger satellite CSVs on a slow link.
type Client struct {
	hc *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{hc: &http.Client{Timeout: timeout}}
}

// Fetch GETs url and returns the body. Any non-200 status is an error; the
// caller owns closing the reader on success.
func (c *Client) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("httpds: GET %s: status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}
