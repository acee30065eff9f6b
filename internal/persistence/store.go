// Package persistence saves simulation runs: a JSON state file the run can
// resume from, or SQL tables (SQLite or PostgreSQL) holding per-tick
// summaries, per-tick cat rows and the latest full state.
package persistence

import (
	"fmt"

	"github.com/talgya/catsim/internal/config"
	"github.com/talgya/catsim/internal/engine"
)

// Store receives the state of a run after its ticks.
type Store interface {
	// BeginRun records the start of a run.
	BeginRun(runID string, sim *engine.Simulation) error
	// SaveTick records the tick the simulation just finished. It runs on
	// the engine goroutine and may read the simulation.
	SaveTick(sim *engine.Simulation) error
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(cfg config.PersistConfig) (Store, error) {
	switch cfg.Driver {
	case "none", "":
		return nopStore{}, nil
	case "json":
		return NewJSONStore(cfg.StateFile)
	case "sqlite", "postgres":
		return OpenSQL(cfg.Driver, cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: unknown persist driver %q", config.ErrInvalidConfig, cfg.Driver)
	}
}

// nopStore discards everything.
type nopStore struct{}

func (nopStore) BeginRun(string, *engine.Simulation) error { return nil }
func (nopStore) SaveTick(*engine.Simulation) error         { return nil }
func (nopStore) Close() error                              { return nil }
