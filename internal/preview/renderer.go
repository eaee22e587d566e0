// Package preview composes bounds, the selected route and the latest
// telemetry position into a draw model for the console canvas.
package preview

import (
	"fmt"

	"github.com/motion-console/backend/internal/models"
	"github.com/motion-console/backend/internal/projection"
)

// DefaultPad is the canvas padding in pixels.
const DefaultPad = 20

// Frame is one complete redraw: everything the canvas needs, computed
// fresh from the live viewport so resizes are handled by simply asking
// again. The UI draws the bounds rectangle, an open polyline through
// RoutePath with a marker at every point, and a filled circle with an
// outlined halo at Position.
type Frame struct {
	Viewport       projection.Viewport `json:"viewport"`
	Pad            float64             `json:"pad"`
	BoundsRect     []projection.Pixel  `json:"boundsRect"`
	RoutePath      []projection.Pixel  `json:"routePath"`
	Position       projection.Pixel    `json:"position"`
	RouteName      string              `json:"routeName"`
	BoundsText     string              `json:"boundsText"`
	PositionText   string              `json:"positionText"`
	PointCountText string              `json:"pointCountText"`
}

// Render builds a frame. The route path is emitted from one point up,
// so a single-point route still shows its marker; the position marker
// is drawn whether or not a route is selected.
func Render(b models.Bounds, route *models.Route, pos models.AxisTriple, vp projection.Viewport, pad float64) Frame {
	vp = vp.Clamp()

	frame := Frame{
		Viewport: vp,
		Pad:      pad,
		BoundsRect: []projection.Pixel{
			projection.Project(projection.Point{X: b.XMin, Y: b.YMin}, b, vp, pad),
			projection.Project(projection.Point{X: b.XMax, Y: b.YMin}, b, vp, pad),
			projection.Project(projection.Point{X: b.XMax, Y: b.YMax}, b, vp, pad),
			projection.Project(projection.Point{X: b.XMin, Y: b.YMax}, b, vp, pad),
		},
		Position:     projection.Project(projection.Point{X: pos.X, Y: pos.Y}, b, vp, pad),
		BoundsText:   fmt.Sprintf("X: [%g, %g] Y: [%g, %g]", b.XMin, b.XMax, b.YMin, b.YMax),
		PositionText: fmt.Sprintf("当前位置: (%.1f, %.1f, %.1f)", pos.X, pos.Y, pos.Z),
	}

	if route != nil {
		frame.RouteName = route.Name
		frame.PointCountText = fmt.Sprintf("点数: %d", len(route.Points))
		frame.RoutePath = make([]projection.Pixel, 0, len(route.Points))
		for _, p := range route.Points {
			frame.RoutePath = append(frame.RoutePath, projection.Project(projection.Point{X: p.X, Y: p.Y}, b, vp, pad))
		}
	}
	return frame
}
