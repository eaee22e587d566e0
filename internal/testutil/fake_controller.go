// fake_controller.go - Scripted in-memory controller for tests
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/motion-console/backend/internal/models"
)

// FakeController is an httptest-backed stand-in for the remote motion
// controller. Tests script its state and inspect the requests it
// received.
type FakeController struct {
	Server *httptest.Server

	mu        sync.Mutex
	state     models.MachineSnapshot
	runState  models.RunState
	routes    []*models.Route
	failState bool
	failRun   bool
	writeErr  string // non-empty: every write answers 500 with this text

	pulses     []string
	speedSets  []models.AxisWrite
	coordSets  []models.AxisWrite
	started    []*models.Route
	stopCalls  int
	pauseSends []bool
}

// NewFakeController starts a fake controller with zeroed state.
func NewFakeController() *FakeController {
	f := &FakeController{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/state", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failState {
			http.Error(w, "controller offline", http.StatusInternalServerError)
			return
		}
		writeJSON(w, f.state)
	})

	mux.HandleFunc("GET /api/bounds", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.DefaultBounds())
	})

	mux.HandleFunc("GET /api/autorun/config", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, map[string]any{"routes": f.routes})
	})

	mux.HandleFunc("GET /api/autorun/state", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failRun {
			http.Error(w, "controller offline", http.StatusInternalServerError)
			return
		}
		writeJSON(w, f.runState)
	})

	mux.HandleFunc("POST /api/speeds", func(w http.ResponseWriter, r *http.Request) {
		var body models.AxisWrite
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.answerWriteErr(w) {
			return
		}
		f.speedSets = append(f.speedSets, body)
		writeJSON(w, map[string]any{"ok": true})
	})

	mux.HandleFunc("POST /api/coords", func(w http.ResponseWriter, r *http.Request) {
		var body models.AxisWrite
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.answerWriteErr(w) {
			return
		}
		f.coordSets = append(f.coordSets, body)
		writeJSON(w, map[string]any{"ok": true})
	})

	mux.HandleFunc("POST /api/coil", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Action string `json:"action"`
			Pulse  bool   `json:"pulse"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.answerWriteErr(w) {
			return
		}
		f.pulses = append(f.pulses, body.Action)
		writeJSON(w, map[string]any{"ok": true})
	})

	mux.HandleFunc("POST /api/autorun/start", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Route *models.Route `json:"route"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.answerWriteErr(w) {
			return
		}
		f.started = append(f.started, body.Route)
		writeJSON(w, map[string]any{"ok": true})
	})

	mux.HandleFunc("POST /api/autorun/stop", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.answerWriteErr(w) {
			return
		}
		f.stopCalls++
		writeJSON(w, map[string]any{"ok": true})
	})

	mux.HandleFunc("POST /api/autorun/pause", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Pause bool `json:"pause"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.answerWriteErr(w) {
			return
		}
		f.pauseSends = append(f.pauseSends, body.Pause)
		writeJSON(w, map[string]any{"ok": true})
	})

	f.Server = httptest.NewServer(mux)
	return f
}

// URL returns the fake controller's base URL.
func (f *FakeController) URL() string {
	return f.Server.URL
}

// Close shuts the server down.
func (f *FakeController) Close() {
	f.Server.Close()
}

// SetState scripts the telemetry snapshot.
func (f *FakeController) SetState(snap models.MachineSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = snap
}

// SetCoil scripts a single coil value; nil scripts an unreadable coil.
func (f *FakeController) SetCoil(name string, value *bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.Coils == nil {
		f.state.Coils = make(map[string]*bool)
	}
	f.state.Coils[name] = value
}

// SetRunState scripts the autorun status poll.
func (f *FakeController) SetRunState(state models.RunState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runState = state
}

// SetRoutes scripts the autorun config catalog.
func (f *FakeController) SetRoutes(routes []*models.Route) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = routes
}

// FailState makes the telemetry endpoint answer 500.
func (f *FakeController) FailState(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failState = fail
}

// FailRunState makes the run status endpoint answer 500.
func (f *FakeController) FailRunState(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRun = fail
}

// FailWrites makes every write endpoint answer 500 with the given
// error body; empty restores normal behavior.
func (f *FakeController) FailWrites(errText string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErr = errText
}

// Pulses returns the coil actions pulsed so far.
func (f *FakeController) Pulses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pulses...)
}

// SpeedSets returns the speed setpoint writes received.
func (f *FakeController) SpeedSets() []models.AxisWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AxisWrite(nil), f.speedSets...)
}

// CoordSets returns the coordinate setpoint writes received.
func (f *FakeController) CoordSets() []models.AxisWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AxisWrite(nil), f.coordSets...)
}

// Started returns the routes passed to the start endpoint.
func (f *FakeController) Started() []*models.Route {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Route(nil), f.started...)
}

// StopCalls returns how many stop requests arrived.
func (f *FakeController) StopCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

// PauseSends returns the pause flags received, in order.
func (f *FakeController) PauseSends() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.pauseSends...)
}

// answerWriteErr writes the scripted failure when set. Callers hold
// f.mu.
func (f *FakeController) answerWriteErr(w http.ResponseWriter) bool {
	if f.writeErr == "" {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": f.writeErr})
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
