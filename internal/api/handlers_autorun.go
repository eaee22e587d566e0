// handlers_autorun.go - Autorun control handlers
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/motion-console/backend/internal/autorun"
	"github.com/motion-console/backend/internal/route"
)

// HandleAutorunStatus returns display labels, button affordances and
// the last confirmed run state.
func (h *Handler) HandleAutorunStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.autorun.Status())
}

// HandleAutorunStart begins a run of the selected route, or of the
// route named in the body. The request fails locally when no route can
// be resolved; acceptance by the controller is confirmed only by the
// next status poll.
func (h *Handler) HandleAutorunStart(c echo.Context) error {
	var req struct {
		Route string `json:"route"`
	}
	if err := c.Bind(&req); err != nil && c.Request().ContentLength > 0 {
		return NewBadRequestError("invalid JSON body", err)
	}

	target := h.routes.Selected()
	if req.Route != "" {
		named, err := h.routes.Get(req.Route)
		if err != nil {
			if errors.Is(err, route.ErrNotFound) {
				return NewNotFoundError("route", req.Route)
			}
			return NewInternalError("route lookup failed", err)
		}
		target = named
	}

	if err := h.autorun.Start(c.Request().Context(), target); err != nil {
		if errors.Is(err, autorun.ErrNoRoute) {
			return NewBadRequestError(err.Error(), nil)
		}
		return NewBadGatewayError("启动失败", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "route": target.Name})
}

// HandleAutorunStop requests a stop. Valid from any state; stopping an
// idle run is harmless.
func (h *Handler) HandleAutorunStop(c echo.Context) error {
	if err := h.autorun.Stop(c.Request().Context()); err != nil {
		return NewBadGatewayError("停止失败", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// HandleAutorunPause toggles pause based on the last confirmed poll
// state.
func (h *Handler) HandleAutorunPause(c echo.Context) error {
	if err := h.autorun.Pause(c.Request().Context()); err != nil {
		return NewBadGatewayError("暂停切换失败", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}
