// handlers_routes.go - Route catalog and preview handlers
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/motion-console/backend/internal/models"
	"github.com/motion-console/backend/internal/preview"
	"github.com/motion-console/backend/internal/projection"
	"github.com/motion-console/backend/internal/route"
)

// routeListResponse carries the catalog plus the current selection.
type routeListResponse struct {
	Routes   []*models.Route `json:"routes"`
	Selected string          `json:"selected"`
}

// HandleListRoutes returns the catalog in insertion order.
func (h *Handler) HandleListRoutes(c echo.Context) error {
	return c.JSON(http.StatusOK, routeListResponse{
		Routes:   h.routes.List(),
		Selected: h.routes.SelectedName(),
	})
}

// HandleGetRoute returns one route by name.
func (h *Handler) HandleGetRoute(c echo.Context) error {
	r, err := h.routes.Get(c.Param("name"))
	if err != nil {
		return NewNotFoundError("route", c.Param("name"))
	}
	return c.JSON(http.StatusOK, r)
}

// HandleCreateRoute appends a route with a generated route-<n> name.
func (h *Handler) HandleCreateRoute(c echo.Context) error {
	return c.JSON(http.StatusCreated, h.routes.Create())
}

// HandleUpsertRoute replaces the named route wholesale with the posted
// document. A body without a name inherits the path parameter, so an
// editor save keyed by name never renames implicitly.
func (h *Handler) HandleUpsertRoute(c echo.Context) error {
	var r models.Route
	if err := c.Bind(&r); err != nil {
		return NewBadRequestError("路径 JSON 无效", err)
	}
	if r.Name == "" {
		r.Name = c.Param("name")
	}
	if r.Dwell < 0 {
		return NewBadRequestError("停留时间不能为负", nil)
	}
	return c.JSON(http.StatusOK, h.routes.Upsert(&r))
}

// HandleRenameRoute renames a route with collision checking.
func (h *Handler) HandleRenameRoute(c echo.Context) error {
	var req struct {
		NewName string `json:"newName"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	err := h.routes.Rename(c.Param("name"), req.NewName)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]any{"ok": true, "name": req.NewName})
	case errors.Is(err, route.ErrEmptyName):
		return NewBadRequestError("名称不能为空", nil)
	case errors.Is(err, route.ErrDuplicateName):
		return NewConflictError("名称已存在")
	case errors.Is(err, route.ErrNotFound):
		return NewNotFoundError("route", c.Param("name"))
	default:
		return NewInternalError("rename failed", err)
	}
}

// HandleDeleteRoute removes a route; deleting the last one reseeds the
// default so a selection always exists.
func (h *Handler) HandleDeleteRoute(c echo.Context) error {
	if err := h.routes.Delete(c.Param("name")); err != nil {
		return NewNotFoundError("route", c.Param("name"))
	}
	return c.JSON(http.StatusOK, routeListResponse{
		Routes:   h.routes.List(),
		Selected: h.routes.SelectedName(),
	})
}

// HandleSelectRoute sets the current route for preview and autorun.
func (h *Handler) HandleSelectRoute(c echo.Context) error {
	if err := h.routes.Select(c.Param("name")); err != nil {
		return NewNotFoundError("route", c.Param("name"))
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "selected": c.Param("name")})
}

// HandlePreview renders the draw model for the requested viewport.
// The viewport comes from the live canvas size on every call, so a
// resize is just another request.
func (h *Handler) HandlePreview(c echo.Context) error {
	vp := projection.Viewport{
		Width:  queryFloat(c, "width", 0),
		Height: queryFloat(c, "height", 0),
	}
	pad := queryFloat(c, "pad", preview.DefaultPad)

	frame := preview.Render(h.bounds, h.routes.Selected(), h.telemetry.Position(), vp, pad)
	return c.JSON(http.StatusOK, frame)
}

func queryFloat(c echo.Context, name string, fallback float64) float64 {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
