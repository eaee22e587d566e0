// Package multispec proxies the multispectral camera collaborator:
// channel list, config and a cache-busting stream URL.
package multispec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// Client talks to the multispectral endpoints on the controller host.
// seq is the monotonically increasing refresh token appended to stream
// URLs so a manual refresh defeats browser caching.
type Client struct {
	baseURL string
	http    *http.Client
	seq     atomic.Uint64
}

// NewClient creates a multispectral client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// StreamURL builds the stream URL for a channel with the current
// refresh token.
func (c *Client) StreamURL(channel string) string {
	if channel == "" {
		channel = "rgb"
	}
	return fmt.Sprintf("%s/multispec/stream?ch=%s&seq=%d", c.baseURL, url.QueryEscape(channel), c.seq.Load())
}

// AllStreamURL builds the combined-channel stream URL.
func (c *Client) AllStreamURL() string {
	return fmt.Sprintf("%s/multispec/stream_all?seq=%d", c.baseURL, c.seq.Load())
}

// BumpSeq advances the refresh token and returns the new value.
func (c *Client) BumpSeq() uint64 {
	return c.seq.Add(1)
}

// GetConfig fetches the multispectral configuration document.
func (c *Client) GetConfig(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/api/multispec/config", nil)
}

// ListChannels fetches the discovered channel names.
func (c *Client) ListChannels(ctx context.Context) ([]string, error) {
	payload, err := c.do(ctx, http.MethodGet, "/api/multispec/channels", nil)
	if err != nil {
		return nil, err
	}
	var body struct {
		Channels []string `json:"channels"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("parsing channel list: %w", err)
	}
	return body.Channels, nil
}

// UpdateConfig forwards a partial config update.
func (c *Client) UpdateConfig(ctx context.Context, partial map[string]any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/multispec/config/update", partial)
}

// Refresh asks the camera side to re-index its channels and bumps the
// stream token so the UI reloads its images.
func (c *Client) Refresh(ctx context.Context) (json.RawMessage, error) {
	payload, err := c.do(ctx, http.MethodPost, "/api/multispec/refresh", nil)
	if err != nil {
		return nil, err
	}
	c.BumpSeq()
	return payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s request: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("multispec unreachable: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading multispec response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("multispec error: %s", strings.TrimSpace(string(payload)))
	}
	return payload, nil
}
