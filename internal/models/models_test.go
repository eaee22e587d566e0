package models

import "testing"

func TestMergeBounds(t *testing.T) {
	t.Run("partial payload keeps defaults", func(t *testing.T) {
		b, err := MergeBounds([]byte(`{"x_max": 1500, "rows": 4}`))
		if err != nil {
			t.Fatal(err)
		}
		want := Bounds{XMin: 0, XMax: 1500, YMin: 0, YMax: 2000, Cols: 10, Rows: 4}
		if b != want {
			t.Errorf("MergeBounds = %+v, want %+v", b, want)
		}
	})

	t.Run("empty object is all defaults", func(t *testing.T) {
		b, err := MergeBounds([]byte(`{}`))
		if err != nil {
			t.Fatal(err)
		}
		if b != DefaultBounds() {
			t.Errorf("MergeBounds = %+v, want defaults", b)
		}
	})

	t.Run("invalid payload errors and returns defaults", func(t *testing.T) {
		b, err := MergeBounds([]byte(`not json`))
		if err == nil {
			t.Fatal("expected parse error")
		}
		if b != DefaultBounds() {
			t.Errorf("MergeBounds after error = %+v, want defaults", b)
		}
	})
}

func TestCoilStateOf(t *testing.T) {
	on := true
	off := false
	snap := &MachineSnapshot{Coils: map[string]*bool{
		"machine_on": &on,
		"light_on":   &off,
		"pump_on":    nil,
	}}

	cases := []struct {
		name string
		want CoilState
	}{
		{"machine_on", CoilOn},
		{"light_on", CoilOff},
		{"pump_on", CoilUnknown},
		{"dc12_on", CoilUnknown},
	}
	for _, tc := range cases {
		if got := snap.CoilStateOf(tc.name); got != tc.want {
			t.Errorf("CoilStateOf(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}

	var nilSnap *MachineSnapshot
	if got := nilSnap.CoilStateOf("machine_on"); got != CoilUnknown {
		t.Errorf("nil snapshot = %q, want %q", got, CoilUnknown)
	}
}

func TestDefaultSnapshot(t *testing.T) {
	snap := DefaultSnapshot([]string{"machine_on", "machine_off"})
	for _, name := range []string{"machine_on", "machine_off"} {
		if got := snap.CoilStateOf(name); got != CoilOff {
			t.Errorf("default coil %q = %q, want explicit %q", name, got, CoilOff)
		}
	}
}

func TestRouteClone(t *testing.T) {
	z := 5.0
	r := &Route{
		Name:   "field-a",
		Speed:  AxisTriple{X: 300, Y: 300, Z: 150},
		Dwell:  2,
		Points: []RoutePoint{{X: 1, Y: 2, Z: &z}},
	}
	c := r.Clone()

	c.Points[0].X = 99
	*c.Points[0].Z = 42
	if r.Points[0].X != 1 || *r.Points[0].Z != 5 {
		t.Errorf("Clone must not share point storage: %+v", r.Points[0])
	}

	if (*Route)(nil).Clone() != nil {
		t.Error("nil Clone must stay nil")
	}
}

func TestDefaultRoute(t *testing.T) {
	r := DefaultRoute()
	if r.Name != DefaultRouteName || r.Dwell != 1 {
		t.Errorf("DefaultRoute = %+v", r)
	}
	if r.Speed != (AxisTriple{X: 300, Y: 300, Z: 150}) {
		t.Errorf("default speed = %+v", r.Speed)
	}
	if r.Points == nil || len(r.Points) != 0 {
		t.Errorf("default points must be empty but non-nil: %#v", r.Points)
	}
}
