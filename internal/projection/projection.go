// Package projection maps machine-space coordinates onto a padded
// pixel canvas for the bounds/route preview.
package projection

import "github.com/motion-console/backend/internal/models"

// MinViewportPx is the floor applied to each viewport dimension so the
// canvas is never degenerate on first layout.
const MinViewportPx = 200

// minRange clamps degenerate axis ranges before division.
const minRange = 1e-6

// Point is a machine-space coordinate.
type Point struct {
	X float64
	Y float64
}

// Pixel is a screen-space coordinate.
type Pixel struct {
	SX float64 `json:"sx"`
	SY float64 `json:"sy"`
}

// Viewport is the drawable canvas size in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Clamp applies the viewport floor.
func (v Viewport) Clamp() Viewport {
	if v.Width < MinViewportPx {
		v.Width = MinViewportPx
	}
	if v.Height < MinViewportPx {
		v.Height = MinViewportPx
	}
	return v
}

// Project maps p onto the padded inner area of the viewport. X maps
// linearly from [XMin, XMax] to [pad, pad+innerW]; Y is inverted so
// increasing machine Y moves up on screen. Degenerate bounds ranges are
// clamped, never reported.
func Project(p Point, b models.Bounds, vp Viewport, pad float64) Pixel {
	vp = vp.Clamp()
	innerW := vp.Width - 2*pad
	innerH := vp.Height - 2*pad

	rangeX := b.XMax - b.XMin
	if rangeX < minRange {
		rangeX = minRange
	}
	rangeY := b.YMax - b.YMin
	if rangeY < minRange {
		rangeY = minRange
	}

	sx := pad + (p.X-b.XMin)/rangeX*innerW
	sy := pad + innerH - (p.Y-b.YMin)/rangeY*innerH
	return Pixel{SX: sx, SY: sy}
}
