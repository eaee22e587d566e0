// handlers_history.go - History archive handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// HandleHistoryTelemetry returns archived telemetry samples in a time
// range as JSON.
func (h *Handler) HandleHistoryTelemetry(c echo.Context) error {
	if h.history == nil {
		return NewServiceUnavailableError("history archive is disabled")
	}

	samples, err := h.history.QueryTelemetry(
		c.Request().Context(),
		queryInt64(c, "from", 0),
		queryInt64(c, "to", 0),
		int(queryInt64(c, "limit", 0)),
	)
	if err != nil {
		return NewInternalError("history query failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"samples": samples,
		"count":   len(samples),
	})
}

// HandleHistoryTelemetryMsgpack returns the same range as a compact
// msgpack document for bulk export.
func (h *Handler) HandleHistoryTelemetryMsgpack(c echo.Context) error {
	if h.history == nil {
		return NewServiceUnavailableError("history archive is disabled")
	}

	samples, err := h.history.QueryTelemetry(
		c.Request().Context(),
		queryInt64(c, "from", 0),
		queryInt64(c, "to", 0),
		int(queryInt64(c, "limit", 0)),
	)
	if err != nil {
		return NewInternalError("history query failed", err)
	}

	data, err := msgpack.Marshal(samples)
	if err != nil {
		return NewInternalError("msgpack encoding failed", err)
	}
	return c.Blob(http.StatusOK, "application/x-msgpack", data)
}

// HandleHistoryRuns returns recent run transitions, newest first.
func (h *Handler) HandleHistoryRuns(c echo.Context) error {
	if h.history == nil {
		return NewServiceUnavailableError("history archive is disabled")
	}

	events, err := h.history.RunEvents(c.Request().Context(), int(queryInt64(c, "limit", 0)))
	if err != nil {
		return NewInternalError("history query failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

func queryInt64(c echo.Context, name string, fallback int64) int64 {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}
