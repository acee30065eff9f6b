package persistence

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/talgya/catsim/internal/config"
	"github.com/talgya/catsim/internal/engine"
	"github.com/talgya/catsim/internal/world"
)

func newSim(t *testing.T) *engine.Simulation {
	t.Helper()
	sim, err := engine.New(engine.Params{
		Population:         12,
		Steps:              20,
		Width:              8,
		Height:             6,
		Neighborhood:       world.Moore,
		NeighborhoodRadius: 2,
		Seed:               99,
	}, nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	return sim
}

func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "state.json")
	store, err := NewJSONStore(path)
	if err != nil {
		t.Fatal(err)
	}
	sim := newSim(t)
	if err := store.BeginRun("run", sim); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		sim.Advance()
		if err := store.SaveTick(sim); err != nil {
			t.Fatal(err)
		}
	}

	st, err := LoadState(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Step != 4 || st.Seed != 99 || st.CurrentPopulation != sim.Population {
		t.Fatalf("loaded step %d seed %d population %d", st.Step, st.Seed, st.CurrentPopulation)
	}
	resumed, err := engine.Resume(st, false)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.Terrain.TotalFood() != sim.Terrain.TotalFood() {
		t.Fatal("food differs after reload")
	}
}

func TestLoadStateMissingFile(t *testing.T) {
	if _, err := LoadState(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.PersistConfig{Driver: "mongo"})
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
	store, err := Open(config.PersistConfig{Driver: "none"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveTick(nil); err != nil {
		t.Fatal(err)
	}
}

func TestSQLiteStore(t *testing.T) {
	db, err := OpenSQL("sqlite", filepath.Join(t.TempDir(), "catsim.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	sim := newSim(t)
	if err := db.SaveTick(sim); err == nil {
		t.Fatal("SaveTick before BeginRun should fail")
	}

	runID := uuid.NewString()
	if err := db.BeginRun(runID, sim); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		sim.Advance()
		if err := db.SaveTick(sim); err != nil {
			t.Fatalf("tick %d: %v", sim.Step, err)
		}
	}
	if err := db.SaveMeta("result", "ok"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("result", "done"); err != nil {
		t.Fatal(err)
	}

	runs, err := db.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != runID || runs[0].Seed != 99 || runs[0].Width != 8 {
		t.Fatalf("runs = %+v", runs)
	}

	ticks, err := db.Ticks(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ticks) != 5 || ticks[0].Step != 1 || ticks[4].Step != 5 {
		t.Fatalf("ticks = %+v", ticks)
	}
	if ticks[4].Population != sim.Population {
		t.Fatalf("last tick population %d, want %d", ticks[4].Population, sim.Population)
	}

	first := sim.Alive()[0]
	history, err := db.CatHistory(runID, int64(first.ID))
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 5 || history[4].Health != first.Health {
		t.Fatalf("history of cat %d = %+v", first.ID, history)
	}

	st, err := db.LatestState(runID)
	if err != nil {
		t.Fatal(err)
	}
	if st.Step != 5 {
		t.Fatalf("latest state step = %d", st.Step)
	}

	value, err := db.GetMeta(runID, "result")
	if err != nil || value != "done" {
		t.Fatalf("meta = %q, %v", value, err)
	}
	if _, err := db.LatestState("missing"); err == nil {
		t.Fatal("expected an error for an unknown run")
	}
}
