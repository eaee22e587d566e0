package models

// RoutePoint is one stop on a route. Z is optional; when nil the Z axis
// is left alone for that point.
type RoutePoint struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	Z *float64 `json:"z,omitempty"`
}

// Route is a named multi-point path executed by the controller's
// autorun facility. Names are unique within a catalog.
type Route struct {
	Name   string       `json:"name"`
	Speed  AxisTriple   `json:"speed"`
	Dwell  float64      `json:"dwell"`
	Points []RoutePoint `json:"points"`
}

// DefaultRouteName is used when a route is saved without a name and for
// the seeded catalog entry.
const DefaultRouteName = "custom"

// DefaultRoute returns the synthetic route seeded whenever the catalog
// would otherwise be empty.
func DefaultRoute() *Route {
	return &Route{
		Name:   DefaultRouteName,
		Speed:  AxisTriple{X: 300, Y: 300, Z: 150},
		Dwell:  1,
		Points: []RoutePoint{},
	}
}

// Clone returns a deep copy so callers can hand routes across package
// boundaries without sharing the points slice.
func (r *Route) Clone() *Route {
	if r == nil {
		return nil
	}
	c := *r
	c.Points = make([]RoutePoint, len(r.Points))
	copy(c.Points, r.Points)
	for i, p := range r.Points {
		if p.Z != nil {
			z := *p.Z
			c.Points[i].Z = &z
		}
	}
	return &c
}
