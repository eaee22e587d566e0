// poller_test.go - Tests for the machine state poll
package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/motion-console/backend/internal/models"
)

type stubFetcher struct {
	snap *models.MachineSnapshot
	err  error
}

func (s *stubFetcher) GetState(ctx context.Context) (*models.MachineSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

func TestPoller_LatestBeforeFirstPoll(t *testing.T) {
	p := NewPoller(&stubFetcher{}, time.Second, []string{"machine_on", "pump_on"})

	snap := p.Latest()
	if snap == nil {
		t.Fatal("Latest must never be nil")
	}
	if snap.Current.Position.X != 0 || snap.Current.Position.Y != 0 {
		t.Errorf("baseline position must be zeroed, got %+v", snap.Current.Position)
	}
	for _, name := range []string{"machine_on", "pump_on"} {
		if got := snap.CoilStateOf(name); got != models.CoilOff {
			t.Errorf("baseline coil %q = %q, want %q", name, got, models.CoilOff)
		}
	}
}

func TestPoller_SuccessReplacesLatest(t *testing.T) {
	on := true
	fetcher := &stubFetcher{snap: &models.MachineSnapshot{
		Current: models.CurrentState{Position: models.AxisTriple{X: 12.5, Y: 3, Z: 1}},
		Coils:   map[string]*bool{"pump_on": &on},
	}}
	p := NewPoller(fetcher, time.Second, []string{"pump_on"})
	p.PollOnce()

	if got := p.Position(); got.X != 12.5 || got.Y != 3 || got.Z != 1 {
		t.Errorf("Position() = %+v, want fetched position", got)
	}
	if got := p.Latest().CoilStateOf("pump_on"); got != models.CoilOn {
		t.Errorf("pump_on = %q, want %q", got, models.CoilOn)
	}
}

func TestPoller_FailurePublishesDefaultSnapshot(t *testing.T) {
	on := true
	fetcher := &stubFetcher{snap: &models.MachineSnapshot{
		Current: models.CurrentState{Position: models.AxisTriple{X: 99}},
		Coils:   map[string]*bool{"pump_on": &on},
	}}
	p := NewPoller(fetcher, time.Second, []string{"pump_on"})
	p.PollOnce()

	// A fault must not leave the last good values on screen.
	fetcher.err = errors.New("connection refused")
	p.PollOnce()

	if got := p.Position(); got.X != 0 {
		t.Errorf("position after failure = %+v, want zeroed", got)
	}
	if got := p.Latest().CoilStateOf("pump_on"); got != models.CoilOff {
		t.Errorf("coil after failure = %q, want explicit %q", got, models.CoilOff)
	}

	// The next good tick self-heals.
	fetcher.err = nil
	p.PollOnce()
	if got := p.Position(); got.X != 99 {
		t.Errorf("position after recovery = %+v, want fetched value", got)
	}
}

func TestPoller_SinksObserveEveryPublish(t *testing.T) {
	fetcher := &stubFetcher{snap: &models.MachineSnapshot{}}
	p := NewPoller(fetcher, time.Second, nil)

	var seen []*models.MachineSnapshot
	p.AddSink(func(s *models.MachineSnapshot) { seen = append(seen, s) })

	p.PollOnce()
	fetcher.err = errors.New("timeout")
	p.PollOnce()

	if len(seen) != 2 {
		t.Fatalf("sink called %d times, want 2 (failures publish too)", len(seen))
	}
	if seen[1] == nil {
		t.Error("failure publish must carry the default snapshot, not nil")
	}
}
