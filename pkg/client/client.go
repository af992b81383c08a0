// Package client is the glue API consumers use: readiness polling before the
// first request and in-flight deduplication of idempotent reads.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	readyPollInterval  = 200 * time.Millisecond
	readyTimeout       = 60 * time.Second
	readyProbeDeadline = 2 * time.Second
)

// WaitReady polls /health until it returns 200 or the deadline passes.
func WaitReady(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	url := baseURL + "/health"
	for {
		if probeReady(ctx, url) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("API not ready at %s: %w", baseURL, ctx.Err())
		case <-time.After(readyPollInterval):
		}
	}
}

func probeReady(ctx context.Context, url string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, readyProbeDeadline)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Client is a thin API client. Concurrent identical GETs share one
// underlying request; the shared entry is dropped when the response settles.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	group singleflight.Group
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetJSON performs a deduplicated GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	key := http.MethodGet + " " + c.BaseURL + path

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		defer c.group.Forget(key)
		return c.fetch(ctx, path)
	})
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(v.([]byte), out)
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	return body, nil
}
