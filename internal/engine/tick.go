// Package engine provides the cat simulation: the three-phase hourly tick,
// setup from configuration, saved-state resume, and the run loop that
// publishes read-only snapshots to viewers.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// pausePoll is how often a paused engine checks for resume or stop.
const pausePoll = 100 * time.Millisecond

// Engine drives a Simulation forward and publishes a Snapshot after every
// tick. The simulation is only touched by the goroutine running Run; other
// goroutines read snapshots and may pause or resume.
type Engine struct {
	Sim      *Simulation
	Interval time.Duration // wall-clock pause between ticks; 0 runs flat out

	// OnTick runs on the engine goroutine after each tick, before the
	// snapshot is published. It may read the simulation.
	OnTick func(sim *Simulation, report TickReport)

	paused  atomic.Bool
	running atomic.Bool
	stop    chan struct{}
	once    sync.Once

	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewEngine creates an engine for sim and publishes its initial snapshot.
func NewEngine(sim *Simulation) *Engine {
	e := &Engine{
		Sim:  sim,
		stop: make(chan struct{}),
	}
	e.publish()
	return e
}

// Run advances the simulation until it finishes, ctx is cancelled or Stop
// is called. It returns ctx.Err() when cancelled, nil otherwise.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "step", e.Sim.Step, "steps", e.Sim.Params.Steps, "interval", e.Interval)

	for !e.Sim.Finished() {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine cancelled", "step", e.Sim.Step)
			return ctx.Err()
		case <-e.stop:
			slog.Info("simulation engine stopped", "step", e.Sim.Step)
			return nil
		default:
		}

		if e.paused.Load() {
			// Paused: sleep briefly and check again.
			e.wait(ctx, pausePoll)
			continue
		}

		start := time.Now()
		e.step()

		if elapsed := time.Since(start); elapsed < e.Interval {
			e.wait(ctx, e.Interval-elapsed)
		}
	}

	slog.Info("simulation finished", "step", e.Sim.Step, "population", e.Sim.Population)
	return nil
}

// wait sleeps for d or until the engine is stopped or cancelled.
func (e *Engine) wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	case <-e.stop:
	}
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	report := e.Sim.Advance()
	if e.OnTick != nil {
		e.OnTick(e.Sim, report)
	}
	e.publish()
}

// Step advances one tick outside Run. It must not be called while Run is active.
func (e *Engine) Step() TickReport {
	e.step()
	return e.Sim.LastReport
}

func (e *Engine) publish() {
	snap := e.Sim.Snapshot()
	e.mu.Lock()
	e.snapshot = snap
	e.mu.Unlock()
}

// Snapshot returns the latest published snapshot. Safe for concurrent use.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Stop halts the run loop. Safe to call more than once.
func (e *Engine) Stop() {
	e.once.Do(func() { close(e.stop) })
}

// Pause suspends ticking.
func (e *Engine) Pause() {
	if !e.paused.Swap(true) {
		slog.Info("simulation paused", "step", e.Snapshot().Step)
	}
}

// Resume continues ticking after Pause.
func (e *Engine) Resume() {
	if e.paused.Swap(false) {
		slog.Info("simulation resumed", "step", e.Snapshot().Step)
	}
}

// TogglePause flips the pause state and returns the new state.
func (e *Engine) TogglePause() bool {
	if e.Paused() {
		e.Resume()
		return false
	}
	e.Pause()
	return true
}

// Paused reports whether ticking is suspended.
func (e *Engine) Paused() bool {
	return e.paused.Load()
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}
