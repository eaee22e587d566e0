package models

import "encoding/json"

// Bounds is the rectangular machine-coordinate envelope used for
// display scaling. Motion limits are enforced by the controller, not
// here.
type Bounds struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
	Cols int     `json:"cols"`
	Rows int     `json:"rows"`
}

// DefaultBounds is the session fallback when the controller's bounds
// endpoint is unreachable or returns a partial document.
func DefaultBounds() Bounds {
	return Bounds{XMin: 0, XMax: 2000, YMin: 0, YMax: 2000, Cols: 10, Rows: 10}
}

// MergeBounds overlays a partial JSON bounds document on the defaults.
// Fields absent from the payload keep their default value.
func MergeBounds(data []byte) (Bounds, error) {
	b := DefaultBounds()
	if err := json.Unmarshal(data, &b); err != nil {
		return DefaultBounds(), err
	}
	return b, nil
}
