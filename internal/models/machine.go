package models

// AxisTriple holds one value per machine axis. It is used for measured
// speed and position as well as for setpoints. Axes missing from a
// controller payload stay at zero.
type AxisTriple struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// CurrentState is the measured portion of a machine snapshot.
type CurrentState struct {
	Speed    AxisTriple `json:"speed"`
	Position AxisTriple `json:"position"`
}

// MachineSnapshot mirrors the controller's /api/state payload. Coil
// values are tri-state: a nil entry (JSON null) or an absent key means
// the coil could not be read, which is distinct from false.
type MachineSnapshot struct {
	Current  CurrentState     `json:"current"`
	SetSpeed AxisTriple       `json:"set_speed"`
	SetCoord AxisTriple       `json:"set_coord"`
	Coils    map[string]*bool `json:"coils"`
}

// CoilState is the displayed state of a coil address.
type CoilState string

const (
	CoilOn      CoilState = "on"
	CoilOff     CoilState = "off"
	CoilUnknown CoilState = "unknown"
)

// CoilStateOf reads a coil from the snapshot. Absence and null both map
// to CoilUnknown; the off address is never consulted, only the on
// address decides displayed state.
func (s *MachineSnapshot) CoilStateOf(name string) CoilState {
	if s == nil || s.Coils == nil {
		return CoilUnknown
	}
	v, ok := s.Coils[name]
	if !ok || v == nil {
		return CoilUnknown
	}
	if *v {
		return CoilOn
	}
	return CoilOff
}

// DefaultSnapshot returns the zeroed baseline shown when the controller
// cannot be reached: zero speed, position and setpoints, all coils
// explicitly false.
func DefaultSnapshot(coilNames []string) *MachineSnapshot {
	coils := make(map[string]*bool, len(coilNames))
	for _, name := range coilNames {
		off := false
		coils[name] = &off
	}
	return &MachineSnapshot{Coils: coils}
}
