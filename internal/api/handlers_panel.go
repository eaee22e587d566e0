// handlers_panel.go - Peripheral panel handlers
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/motion-console/backend/internal/panel"
)

// panelResponse is the six-device view plus the command coil table for
// operator reference.
type panelResponse struct {
	Devices  []panel.DeviceView  `json:"devices"`
	Commands []panel.CommandCoil `json:"commands"`
}

// HandleGetPanel derives the panel view from the latest telemetry
// snapshot, with any unconfirmed toggle assumptions overlaid.
func (h *Handler) HandleGetPanel(c echo.Context) error {
	return c.JSON(http.StatusOK, panelResponse{
		Devices:  h.panel.States(h.telemetry.Latest()),
		Commands: h.panel.Commands(),
	})
}

// HandleToggleDevice pulses the opposite coil of the device's displayed
// state. Optimistic: the returned view is assumed until the next
// telemetry tick confirms or corrects it.
func (h *Handler) HandleToggleDevice(c echo.Context) error {
	view, err := h.panel.Toggle(c.Request().Context(), c.Param("device"), h.telemetry.Latest())
	if err != nil {
		if errors.Is(err, panel.ErrUnknownDevice) {
			return NewNotFoundError("device", c.Param("device"))
		}
		return NewBadGatewayError("设备切换失败", err)
	}
	return c.JSON(http.StatusOK, view)
}
