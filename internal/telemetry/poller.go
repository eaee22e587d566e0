// Package telemetry runs the fixed-interval machine state poll.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/motion-console/backend/internal/models"
)

// StateFetcher is the slice of the controller client the poller needs.
type StateFetcher interface {
	GetState(ctx context.Context) (*models.MachineSnapshot, error)
}

// Poller fetches the machine snapshot on a fixed cadence. A failed
// fetch is replaced by the zeroed default snapshot so the display never
// shows stale values after a fault; the next successful tick self-heals.
type Poller struct {
	fetch     StateFetcher
	interval  time.Duration
	coilNames []string

	mu     sync.RWMutex
	latest *models.MachineSnapshot

	sinkMu sync.RWMutex
	sinks  []func(*models.MachineSnapshot)

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewPoller creates a poller. coilNames seeds the all-false coil map of
// the default snapshot.
func NewPoller(fetch StateFetcher, interval time.Duration, coilNames []string) *Poller {
	return &Poller{
		fetch:     fetch,
		interval:  interval,
		coilNames: coilNames,
		latest:    models.DefaultSnapshot(coilNames),
		stop:      make(chan struct{}),
	}
}

// AddSink registers a consumer invoked with every fresh snapshot
// (history archive, websocket broadcast). Sinks run on the fetch
// goroutine and must be quick.
func (p *Poller) AddSink(sink func(*models.MachineSnapshot)) {
	p.sinkMu.Lock()
	defer p.sinkMu.Unlock()
	p.sinks = append(p.sinks, sink)
}

// Start launches the poll loop. Each tick fetches on its own goroutine
// so a slow controller response never delays the cadence; overlapping
// fetches resolve last-write-wins.
func (p *Poller) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.PollOnce()
		for {
			select {
			case <-ticker.C:
				go p.PollOnce()
			case <-p.stop:
				return
			}
		}
	}()
}

// Stop ends the poll loop. In-flight fetches are left to finish.
func (p *Poller) Stop() {
	close(p.stop)
	p.wg.Wait()
}

// Latest returns the most recent snapshot: fresh controller data or the
// explicit zeroed baseline, never undefined.
func (p *Poller) Latest() *models.MachineSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Position returns the latest measured position for the preview marker.
func (p *Poller) Position() models.AxisTriple {
	return p.Latest().Current.Position
}

// PollOnce performs a single fetch-and-publish cycle. The poll loop
// calls it per tick; tests and warmup paths call it directly.
func (p *Poller) PollOnce() {
	snap, err := p.fetch.GetState(context.Background())
	if err != nil {
		fmt.Printf("[telemetry] state fetch failed: %v\n", err)
		snap = models.DefaultSnapshot(p.coilNames)
	}
	p.publish(snap)
}

func (p *Poller) publish(snap *models.MachineSnapshot) {
	p.mu.Lock()
	p.latest = snap
	p.mu.Unlock()

	p.sinkMu.RLock()
	sinks := p.sinks
	p.sinkMu.RUnlock()
	for _, sink := range sinks {
		sink(snap)
	}
}
