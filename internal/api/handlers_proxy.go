// handlers_proxy.go - Camera and multispectral proxy handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HandleCameraConfig returns the camera config with the stream URL the
// UI should set as its image source.
func (h *Handler) HandleCameraConfig(c echo.Context) error {
	if h.camera == nil {
		return NewServiceUnavailableError("camera not configured")
	}
	cfg, err := h.camera.GetConfig(c.Request().Context())
	if err != nil {
		return NewServiceUnavailableError(err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"cfg":       cfg,
		"streamUrl": h.camera.StreamURL(),
	})
}

// HandleCameraControl forwards a camera control write. op is the path
// parameter naming the action.
func (h *Handler) HandleCameraControl(c echo.Context) error {
	if h.camera == nil {
		return NewServiceUnavailableError("camera not configured")
	}

	var body map[string]any
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&body); err != nil {
			return NewBadRequestError("invalid JSON body", err)
		}
	}

	ctx := c.Request().Context()
	op := c.Param("op")
	var (
		result []byte
		err    error
	)
	switch op {
	case "autofocus":
		enabled, _ := body["enabled"].(bool)
		result, err = h.camera.SetAutofocus(ctx, enabled)
	case "focus":
		value := 50
		if v, ok := body["value"].(float64); ok {
			value = int(v)
		}
		result, err = h.camera.SetFocus(ctx, value)
	case "save":
		result, err = h.camera.Save(ctx)
	case "timed_start":
		result, err = h.camera.StartTimed(ctx)
	case "timed_stop":
		result, err = h.camera.StopTimed(ctx)
	case "save_dir":
		path, _ := body["path"].(string)
		if path == "" {
			return NewValidationError("path")
		}
		result, err = h.camera.SetSaveDir(ctx, path)
	case "save_params":
		result, err = h.camera.SetSaveParams(ctx, body)
	case "config_update":
		result, err = h.camera.UpdateConfig(ctx, body)
	default:
		return NewNotFoundError("camera operation", op)
	}
	if err != nil {
		return NewServiceUnavailableError(err.Error())
	}
	return c.JSONBlob(http.StatusOK, result)
}

// HandleMultispecConfig returns the multispectral config plus the
// current per-channel stream URLs, each carrying the refresh token.
func (h *Handler) HandleMultispecConfig(c echo.Context) error {
	if h.multispec == nil {
		return NewServiceUnavailableError("multispec camera not configured")
	}

	ctx := c.Request().Context()
	cfg, err := h.multispec.GetConfig(ctx)
	if err != nil {
		return NewServiceUnavailableError(err.Error())
	}
	channels, err := h.multispec.ListChannels(ctx)
	if err != nil {
		return NewServiceUnavailableError(err.Error())
	}

	streams := make(map[string]string, len(channels))
	for _, ch := range channels {
		streams[ch] = h.multispec.StreamURL(ch)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"cfg":          cfg,
		"channels":     channels,
		"streams":      streams,
		"allStreamUrl": h.multispec.AllStreamURL(),
	})
}

// HandleMultispecChannels returns the discovered channel names with
// their current stream URLs.
func (h *Handler) HandleMultispecChannels(c echo.Context) error {
	if h.multispec == nil {
		return NewServiceUnavailableError("multispec camera not configured")
	}
	channels, err := h.multispec.ListChannels(c.Request().Context())
	if err != nil {
		return NewServiceUnavailableError(err.Error())
	}
	streams := make(map[string]string, len(channels))
	for _, ch := range channels {
		streams[ch] = h.multispec.StreamURL(ch)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"channels": channels,
		"streams":  streams,
	})
}

// HandleMultispecRefresh re-indexes the channels and advances the
// stream token so the UI reloads every image source.
func (h *Handler) HandleMultispecRefresh(c echo.Context) error {
	if h.multispec == nil {
		return NewServiceUnavailableError("multispec camera not configured")
	}
	result, err := h.multispec.Refresh(c.Request().Context())
	if err != nil {
		return NewServiceUnavailableError(err.Error())
	}
	return c.JSONBlob(http.StatusOK, result)
}

// HandleMultispecConfigUpdate forwards a partial config update.
func (h *Handler) HandleMultispecConfigUpdate(c echo.Context) error {
	if h.multispec == nil {
		return NewServiceUnavailableError("multispec camera not configured")
	}
	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	result, err := h.multispec.UpdateConfig(c.Request().Context(), body)
	if err != nil {
		return NewServiceUnavailableError(err.Error())
	}
	return c.JSONBlob(http.StatusOK, result)
}
