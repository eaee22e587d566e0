// Package api exposes the operator console's HTTP surface: machine
// state, setpoints, peripherals, the route catalog, autorun control,
// the preview draw model and the history archive.
package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/motion-console/backend/internal/autorun"
	"github.com/motion-console/backend/internal/camera"
	"github.com/motion-console/backend/internal/controller"
	"github.com/motion-console/backend/internal/history"
	"github.com/motion-console/backend/internal/models"
	"github.com/motion-console/backend/internal/multispec"
	"github.com/motion-console/backend/internal/panel"
	"github.com/motion-console/backend/internal/route"
	"github.com/motion-console/backend/internal/telemetry"
)

// Handler handles API requests.
type Handler struct {
	controller *controller.Client
	routes     *route.Store
	telemetry  *telemetry.Poller
	autorun    *autorun.Controller
	panel      *panel.Panel
	history    *history.Store    // nil when the archive is disabled
	camera     *camera.Client    // nil when no camera is configured
	multispec  *multispec.Client // nil when no multispec camera is configured
	bounds     models.Bounds
}

// NewHandler creates a new API handler. bounds is the session envelope
// fetched once at startup (defaults merged); it does not change until
// restart.
func NewHandler(
	ctrl *controller.Client,
	routes *route.Store,
	poller *telemetry.Poller,
	runCtl *autorun.Controller,
	pnl *panel.Panel,
	bounds models.Bounds,
) *Handler {
	return &Handler{
		controller: ctrl,
		routes:     routes,
		telemetry:  poller,
		autorun:    runCtl,
		panel:      pnl,
		bounds:     bounds,
	}
}

// WithHistory attaches the history archive.
func (h *Handler) WithHistory(store *history.Store) *Handler {
	h.history = store
	return h
}

// WithCameras attaches the camera collaborators. Either may be nil.
func (h *Handler) WithCameras(cam *camera.Client, ms *multispec.Client) *Handler {
	h.camera = cam
	h.multispec = ms
	return h
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":     "ok",
		"controller": h.controller.BaseURL(),
	})
}

// HandleGetState returns the latest telemetry snapshot from the poll
// cache. The poller guarantees this is either fresh controller data or
// the explicit zeroed baseline.
func (h *Handler) HandleGetState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.telemetry.Latest())
}

// HandleGetBounds returns the session axis bounds.
func (h *Handler) HandleGetBounds(c echo.Context) error {
	return c.JSON(http.StatusOK, h.bounds)
}

// HandleSetSpeeds forwards speed setpoints. An empty body is rejected
// before any request reaches the controller.
func (h *Handler) HandleSetSpeeds(c echo.Context) error {
	var w models.AxisWrite
	if err := c.Bind(&w); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if w.Empty() {
		return NewBadRequestError("需要提供至少一个 x/y/z 速度", nil)
	}

	cmdID := uuid.New().String()
	if err := h.controller.SetSpeeds(c.Request().Context(), w); err != nil {
		fmt.Printf("[command %s] set speeds failed: %v\n", cmdID[:8], err)
		return NewBadGatewayError("速度设定失败", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "commandId": cmdID})
}

// HandleSetCoords forwards position setpoints.
func (h *Handler) HandleSetCoords(c echo.Context) error {
	var w models.AxisWrite
	if err := c.Bind(&w); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if w.Empty() {
		return NewBadRequestError("需要提供至少一个 x/y/z 坐标", nil)
	}

	cmdID := uuid.New().String()
	if err := h.controller.SetCoords(c.Request().Context(), w); err != nil {
		fmt.Printf("[command %s] set coords failed: %v\n", cmdID[:8], err)
		return NewBadGatewayError("坐标设定失败", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "commandId": cmdID})
}

// HandlePulseCoil pulses a whitelisted coil action. Unknown actions are
// rejected locally.
func (h *Handler) HandlePulseCoil(c echo.Context) error {
	var req struct {
		Action string `json:"action"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Action == "" {
		return NewValidationError("action")
	}
	if err := h.panel.ValidateAction(req.Action); err != nil {
		return NewBadRequestError(err.Error(), nil)
	}

	cmdID := uuid.New().String()
	if err := h.controller.PulseCoil(c.Request().Context(), req.Action); err != nil {
		fmt.Printf("[command %s] pulse %s failed: %v\n", cmdID[:8], req.Action, err)
		return NewBadGatewayError("线圈触发失败", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "commandId": cmdID})
}
