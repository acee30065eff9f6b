package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/talgya/catsim/internal/engine"
)

// JSONStore writes the full state of the latest tick to a file, replacing
// it every tick. The file can be passed back as run.state_file to resume.
type JSONStore struct {
	path string
}

// NewJSONStore creates a store writing to path, creating its directory.
func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		return nil, fmt.Errorf("json store: empty state file path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	return &JSONStore{path: path}, nil
}

// Path returns the state file path.
func (js *JSONStore) Path() string {
	return js.path
}

// BeginRun writes the initial state.
func (js *JSONStore) BeginRun(runID string, sim *engine.Simulation) error {
	slog.Info("saving state to file", "run", runID, "path", js.path)
	return js.SaveTick(sim)
}

// SaveTick replaces the state file with the current state. The file is
// written beside the target and renamed so readers never see a partial file.
func (js *JSONStore) SaveTick(sim *engine.Simulation) error {
	data, err := json.MarshalIndent(sim.State(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := js.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, js.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	slog.Debug("state saved", "step", sim.Step, "size", humanize.Bytes(uint64(len(data))))
	return nil
}

// Close does nothing; every save is complete on return.
func (js *JSONStore) Close() error {
	return nil
}

// LoadState reads a state file written by JSONStore.
func LoadState(path string) (*engine.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	var st engine.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode state file %s: %w", path, err)
	}
	slog.Info("state loaded", "path", path, "step", st.Step, "size", humanize.Bytes(uint64(len(data))))
	return &st, nil
}
