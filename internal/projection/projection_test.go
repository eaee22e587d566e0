// projection_test.go - Tests for the machine-to-pixel projection
package projection

import (
	"math"
	"testing"

	"github.com/motion-console/backend/internal/models"
)

func defaultBounds() models.Bounds {
	return models.Bounds{XMin: 0, XMax: 2000, YMin: 0, YMax: 2000, Cols: 10, Rows: 10}
}

func TestProject_CornersMapToPaddedRect(t *testing.T) {
	b := defaultBounds()
	vp := Viewport{Width: 800, Height: 600}
	pad := 20.0

	t.Run("min corner maps to bottom-left", func(t *testing.T) {
		px := Project(Point{X: 0, Y: 0}, b, vp, pad)
		if px.SX != pad {
			t.Errorf("expected sx=%v, got %v", pad, px.SX)
		}
		// Y is flipped: machine Y min sits at the bottom of the canvas
		if px.SY != 600-pad {
			t.Errorf("expected sy=%v, got %v", 600-pad, px.SY)
		}
	})

	t.Run("max corner maps to top-right", func(t *testing.T) {
		px := Project(Point{X: 2000, Y: 2000}, b, vp, pad)
		if px.SX != 800-pad {
			t.Errorf("expected sx=%v, got %v", 800-pad, px.SX)
		}
		if px.SY != pad {
			t.Errorf("expected sy=%v, got %v", pad, px.SY)
		}
	})

	t.Run("centre maps to centre", func(t *testing.T) {
		px := Project(Point{X: 1000, Y: 1000}, b, vp, pad)
		if px.SX != 400 {
			t.Errorf("expected sx=400, got %v", px.SX)
		}
		if px.SY != 300 {
			t.Errorf("expected sy=300, got %v", px.SY)
		}
	})
}

func TestProject_InsideIffWithinBounds(t *testing.T) {
	b := defaultBounds()
	vp := Viewport{Width: 640, Height: 480}
	pad := 16.0
	innerMaxX := vp.Width - pad
	innerMaxY := vp.Height - pad

	cases := []struct {
		name   string
		p      Point
		inside bool
	}{
		{"interior point", Point{X: 500, Y: 1500}, true},
		{"on boundary", Point{X: 0, Y: 2000}, true},
		{"left of bounds", Point{X: -1, Y: 500}, false},
		{"above bounds", Point{X: 500, Y: 2001}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			px := Project(tc.p, b, vp, pad)
			inside := px.SX >= pad && px.SX <= innerMaxX && px.SY >= pad && px.SY <= innerMaxY
			if inside != tc.inside {
				t.Errorf("point %+v: inside=%v, want %v (pixel %+v)", tc.p, inside, tc.inside, px)
			}
		})
	}
}

func TestProject_DegenerateBoundsDoNotBlowUp(t *testing.T) {
	b := models.Bounds{XMin: 100, XMax: 100, YMin: 50, YMax: 50}
	px := Project(Point{X: 100, Y: 50}, b, Viewport{Width: 400, Height: 400}, 10)

	if math.IsNaN(px.SX) || math.IsInf(px.SX, 0) {
		t.Errorf("sx is not finite: %v", px.SX)
	}
	if math.IsNaN(px.SY) || math.IsInf(px.SY, 0) {
		t.Errorf("sy is not finite: %v", px.SY)
	}
}

func TestViewport_ClampFloorsSmallCanvases(t *testing.T) {
	vp := Viewport{Width: 0, Height: 50}.Clamp()
	if vp.Width != MinViewportPx || vp.Height != MinViewportPx {
		t.Errorf("expected %vx%v, got %vx%v", MinViewportPx, MinViewportPx, vp.Width, vp.Height)
	}

	vp = Viewport{Width: 800, Height: 600}.Clamp()
	if vp.Width != 800 || vp.Height != 600 {
		t.Errorf("large viewport must pass through unchanged, got %+v", vp)
	}
}
