// Package camera proxies the visible-light camera collaborator. The
// console only fetches config, exposes the stream URL and forwards
// simple control writes; image processing stays on the camera side.
package camera

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the camera endpoints on the controller host.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a camera client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// StreamURL is the static MJPEG stream path served by the camera.
func (c *Client) StreamURL() string {
	return c.baseURL + "/camera/stream"
}

// GetConfig fetches the camera configuration document.
func (c *Client) GetConfig(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/api/camera/config", nil)
}

// SetAutofocus enables or disables autofocus.
func (c *Client) SetAutofocus(ctx context.Context, enabled bool) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/camera/autofocus", map[string]any{"enabled": enabled})
}

// SetFocus writes a manual focus value.
func (c *Client) SetFocus(ctx context.Context, value int) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/camera/focus", map[string]any{"value": value})
}

// Save captures the current frame on the camera side.
func (c *Client) Save(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/camera/save", nil)
}

// StartTimed begins interval capture.
func (c *Client) StartTimed(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/camera/timed/start", nil)
}

// StopTimed ends interval capture.
func (c *Client) StopTimed(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/camera/timed/stop", nil)
}

// SetSaveDir sets the capture directory.
func (c *Client) SetSaveDir(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/camera/save_dir", map[string]any{"path": path})
}

// SetSaveParams forwards capture parameter updates (format, quality,
// interval) untouched.
func (c *Client) SetSaveParams(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/camera/save_params", params)
}

// UpdateConfig forwards a partial camera config update.
func (c *Client) UpdateConfig(ctx context.Context, partial map[string]any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/api/camera/config/update", partial)
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
		return nil, fmt.Errorf("camera unreachable: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading camera response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("camera error: %s", strings.TrimSpace(string(payload)))
	}
	return payload, nil
}
