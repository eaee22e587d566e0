// Package autorun requests run transitions and mirrors the
// controller's authoritative run state through a fixed-interval poll.
package autorun

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/motion-console/backend/internal/models"
)

// ErrNoRoute rejects a start with no selected route before any request
// is sent.
var ErrNoRoute = errors.New("请先选择路径")

// RunClient is the slice of the controller client this package needs.
type RunClient interface {
	StartRun(ctx context.Context, route *models.Route) error
	StopRun(ctx context.Context) error
	SetPause(ctx context.Context, pause bool) error
	GetRunState(ctx context.Context) (models.RunState, error)
}

// Intent is a requested transition not yet confirmed by the poll.
type Intent string

const (
	IntentNone   Intent = ""
	IntentStart  Intent = "start"
	IntentStop   Intent = "stop"
	IntentPause  Intent = "pause"
	IntentResume Intent = "resume"
)

// Status is the UI-facing view of the run: display label, button
// affordances and the raw confirmed state. Pending carries an intent
// the poll has not yet reflected.
type Status struct {
	Label          string          `json:"label"`
	Running        bool            `json:"running"`
	StartStopLabel string          `json:"startStopLabel"`
	PauseEnabled   bool            `json:"pauseEnabled"`
	PauseLabel     string          `json:"pauseLabel"`
	Pending        Intent          `json:"pending,omitempty"`
	State          models.RunState `json:"state"`
}

// Controller issues start/stop/pause intents and polls the
// authoritative run state. The client never assumes a request
// succeeded; every displayed transition comes from the poll.
type Controller struct {
	client   RunClient
	interval time.Duration

	mu        sync.RWMutex
	confirmed models.RunState
	pending   Intent

	sinkMu sync.RWMutex
	sinks  []func(models.RunState)

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewController creates a controller polling at the given interval.
func NewController(client RunClient, interval time.Duration) *Controller {
	return &Controller{
		client:   client,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// AddSink registers a consumer invoked with every confirmed run state
// observed by the poll.
func (c *Controller) AddSink(sink func(models.RunState)) {
	c.sinkMu.Lock()
	defer c.sinkMu.Unlock()
	c.sinks = append(c.sinks, sink)
}

// StartPolling launches the fixed-interval run-state poll, independent
// of the telemetry timer.
func (c *Controller) StartPolling() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		c.PollOnce()
		for {
			select {
			case <-ticker.C:
				go c.PollOnce()
			case <-c.stop:
				return
			}
		}
	}()
}

// StopPolling ends the poll loop.
func (c *Controller) StopPolling() {
	close(c.stop)
	c.wg.Wait()
}

// Start asks the controller to begin executing the route. A nil route
// fails locally with no request sent; the next poll is expected to
// report running.
func (c *Controller) Start(ctx context.Context, route *models.Route) error {
	if route == nil {
		return ErrNoRoute
	}
	if err := c.client.StartRun(ctx, route); err != nil {
		return err
	}
	c.setPending(IntentStart)
	return nil
}

// Stop is unconditional and idempotent; stopping an idle run is
// harmless.
func (c *Controller) Stop(ctx context.Context) error {
	if err := c.client.StopRun(ctx); err != nil {
		return err
	}
	c.setPending(IntentStop)
	return nil
}

// Pause toggles the pause flag by negating the last confirmed polled
// state. Basing the toggle on confirmed state (not an optimistic local
// tag) means two rapid clicks inside one poll cycle send the same
// request twice instead of double-toggling.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.RLock()
	next := !c.confirmed.Paused
	c.mu.RUnlock()

	if err := c.client.SetPause(ctx, next); err != nil {
		return err
	}
	if next {
		c.setPending(IntentPause)
	} else {
		c.setPending(IntentResume)
	}
	return nil
}

// PollOnce fetches the authoritative run state. On failure the last
// displayed state is preserved: an in-progress run must not appear to
// reset on a transient read error.
func (c *Controller) PollOnce() {
	state, err := c.client.GetRunState(context.Background())
	if err != nil {
		fmt.Printf("[autorun] state poll failed: %v\n", err)
		return
	}

	c.mu.Lock()
	c.confirmed = state
	c.pending = IntentNone
	c.mu.Unlock()

	c.sinkMu.RLock()
	sinks := c.sinks
	c.sinkMu.RUnlock()
	for _, sink := range sinks {
		sink(state)
	}
}

// Confirmed returns the last polled run state.
func (c *Controller) Confirmed() models.RunState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.confirmed
}

// Status derives the display view from the confirmed state.
func (c *Controller) Status() Status {
	c.mu.RLock()
	state := c.confirmed
	pending := c.pending
	c.mu.RUnlock()
	return deriveStatus(state, pending)
}

func (c *Controller) setPending(intent Intent) {
	c.mu.Lock()
	c.pending = intent
	c.mu.Unlock()
}

// DeriveLabel composes the run display text from a run state.
func DeriveLabel(s models.RunState) string {
	if s.Running {
		label := fmt.Sprintf("运行中：%s (%d/%d)", s.Route, s.Index, s.Total)
		if s.Paused {
			label += "（已暂停）"
		}
		return label
	}
	if s.Error != "" {
		return "错误：" + s.Error
	}
	return "空闲"
}

func deriveStatus(s models.RunState, pending Intent) Status {
	status := Status{
		Label:        DeriveLabel(s),
		Running:      s.Running,
		PauseEnabled: s.Running,
		Pending:      pending,
		State:        s,
	}
	if s.Running {
		status.StartStopLabel = "停止"
	} else {
		status.StartStopLabel = "启动"
	}
	if s.Paused {
		status.PauseLabel = "继续"
	} else {
		status.PauseLabel = "暂停"
	}
	return status
}
