package models

// AxisWrite is a partial setpoint write. Unset axes are omitted from
// the controller payload so only the supplied registers are written.
type AxisWrite struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	Z *float64 `json:"z,omitempty"`
}

// Empty reports whether no axis is set. Empty writes are rejected
// locally before any request is sent.
func (w AxisWrite) Empty() bool {
	return w.X == nil && w.Y == nil && w.Z == nil
}
