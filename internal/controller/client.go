// Package controller implements the HTTP client for the remote motion
// and peripheral controller. The controller is authoritative for all
// machine state; this client only reads snapshots and requests
// transitions.
package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/motion-console/backend/internal/models"
)

// StatusError is a non-2xx controller response. Body carries the
// controller's plain-text error verbatim so it can be surfaced to the
// operator unchanged.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("controller returned status %d", e.Status)
}

// Client talks to the remote controller's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a controller client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured controller base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetState fetches the current machine snapshot.
func (c *Client) GetState(ctx context.Context) (*models.MachineSnapshot, error) {
	var snap models.MachineSnapshot
	if err := c.getJSON(ctx, "/api/state", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetBounds fetches axis bounds. A partial response is merged over the
// defaults; a transport failure leaves the caller with the defaults.
func (c *Client) GetBounds(ctx context.Context) (models.Bounds, error) {
	body, err := c.get(ctx, "/api/bounds")
	if err != nil {
		return models.DefaultBounds(), err
	}
	return models.MergeBounds(body)
}

// GetAutorunConfig fetches the server-held route catalog.
func (c *Client) GetAutorunConfig(ctx context.Context) ([]*models.Route, error) {
	var cfg struct {
		Routes []*models.Route `json:"routes"`
	}
	if err := c.getJSON(ctx, "/api/autorun/config", &cfg); err != nil {
		return nil, err
	}
	return cfg.Routes, nil
}

// SetSpeeds writes speed setpoints for the supplied axes.
func (c *Client) SetSpeeds(ctx context.Context, w models.AxisWrite) error {
	return c.postJSON(ctx, "/api/speeds", w, nil)
}

// SetCoords writes position setpoints for the supplied axes.
func (c *Client) SetCoords(ctx context.Context, w models.AxisWrite) error {
	return c.postJSON(ctx, "/api/coords", w, nil)
}

// PulseCoil issues a momentary-contact write to a named coil. The
// controller handles the release; this is never a latching write.
func (c *Client) PulseCoil(ctx context.Context, action string) error {
	body := map[string]any{"action": action, "pulse": true}
	return c.postJSON(ctx, "/api/coil", body, nil)
}

// StartRun asks the controller to begin executing a route. Acceptance
// is confirmed only by a later GetRunState poll.
func (c *Client) StartRun(ctx context.Context, route *models.Route) error {
	body := map[string]any{"route": route}
	return c.postJSON(ctx, "/api/autorun/start", body, nil)
}

// StopRun ends the current run. Safe to call while idle.
func (c *Client) StopRun(ctx context.Context) error {
	return c.postJSON(ctx, "/api/autorun/stop", nil, nil)
}

// SetPause sets or clears the run's pause flag.
func (c *Client) SetPause(ctx context.Context, pause bool) error {
	body := map[string]any{"pause": pause}
	return c.postJSON(ctx, "/api/autorun/pause", body, nil)
}

// GetRunState polls the authoritative run status.
func (c *Client) GetRunState(ctx context.Context) (models.RunState, error) {
	var state models.RunState
	if err := c.getJSON(ctx, "/api/autorun/state", &state); err != nil {
		return models.RunState{}, err
	}
	return state, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.do(req)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling %s request: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("controller unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading controller response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Status: resp.StatusCode, Body: errorText(body)}
	}
	return body, nil
}

// errorText extracts the error message from a controller failure body.
// The controller answers {"error": "..."} on its JSON endpoints; plain
// text is passed through as-is.
func errorText(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
