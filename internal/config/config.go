// Package config provides the run configuration and the gameplay constants
// of the cat simulation. Run configuration is loaded from YAML: embedded
// defaults first, then an optional user file, then command-line overrides.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is returned by Validate for unusable settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds every setting a run needs.
type Config struct {
	Run     RunConfig     `yaml:"run"`
	Terrain TerrainConfig `yaml:"terrain"`
	Log     LogConfig     `yaml:"log"`
	Persist PersistConfig `yaml:"persist"`
	API     APIConfig     `yaml:"api"`
	Render  RenderConfig  `yaml:"render"`
}

// RunConfig is the simulation surface: population, length, neighborhood, seed.
type RunConfig struct {
	Population         int    `yaml:"population"`
	Steps              int    `yaml:"steps"`
	HourOfDay          int    `yaml:"hour_of_day"`
	Neighborhood       string `yaml:"neighborhood"` // "moore" or "von-neumann"
	NeighborhoodRadius int    `yaml:"neighborhood_radius"`
	ContinuousFood     bool   `yaml:"continuous_food"`
	Seed               int64  `yaml:"seed"`
	StateFile          string `yaml:"state_file"` // resume from a saved JSON state
	TickInterval       string `yaml:"tick_interval"`
}

// TerrainConfig describes the grid and where its maps come from.
type TerrainConfig struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	ElevationsFile string  `yaml:"elevations_file"`
	CellTypesFile  string  `yaml:"cell_types_file"`
	Relief         float64 `yaml:"relief"` // simplex elevation amplitude when no file is given; 0 = flat
}

// LogConfig selects the log sink.
type LogConfig struct {
	Method string `yaml:"method"` // none, console, file
	File   string `yaml:"file"`
	Level  string `yaml:"level"`
	Forces bool   `yaml:"forces"` // debug-log every force contribution
}

// PersistConfig selects where per-tick state goes.
type PersistConfig struct {
	Driver    string `yaml:"driver"` // none, json, sqlite, postgres
	DSN       string `yaml:"dsn"`
	StateFile string `yaml:"state_file"`
	Every     int    `yaml:"every"` // save every N ticks
}

// APIConfig controls the read-only HTTP API.
type APIConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Port     int    `yaml:"port"`
	AdminKey string `yaml:"admin_key"`
}

// RenderConfig controls the terminal viewer.
type RenderConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merged over the embedded defaults.
// If path is empty, only the defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	// Unmarshal into the same struct so only keys present in the file override.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail mid-run.
func (c *Config) Validate() error {
	var problems []string

	if c.Run.Population < 0 {
		problems = append(problems, "run.population must be >= 0")
	}
	if c.Run.Steps < 0 {
		problems = append(problems, "run.steps must be >= 0")
	}
	if c.Run.NeighborhoodRadius < 0 {
		problems = append(problems, "run.neighborhood_radius must be >= 0")
	}
	switch c.Run.Neighborhood {
	case "moore", "von-neumann":
	default:
		problems = append(problems, fmt.Sprintf("run.neighborhood %q must be moore or von-neumann", c.Run.Neighborhood))
	}
	if c.Terrain.ElevationsFile == "" && c.Terrain.CellTypesFile == "" {
		if c.Terrain.Width <= 0 || c.Terrain.Height <= 0 {
			problems = append(problems, "terrain.width and terrain.height must be > 0")
		}
	}
	if c.Terrain.Relief < 0 {
		problems = append(problems, "terrain.relief must be >= 0")
	}
	switch c.Log.Method {
	case "none", "console", "file":
	default:
		problems = append(problems, fmt.Sprintf("log.method %q must be none, console or file", c.Log.Method))
	}
	switch c.Persist.Driver {
	case "none", "json", "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("persist.driver %q must be none, json, sqlite or postgres", c.Persist.Driver))
	}
	if c.Persist.Every < 1 {
		problems = append(problems, "persist.every must be >= 1")
	}
	if _, err := c.Run.Interval(); err != nil {
		problems = append(problems, fmt.Sprintf("run.tick_interval: %v", err))
	}
	if c.API.Enabled && (c.API.Port <= 0 || c.API.Port > 65535) {
		problems = append(problems, "api.port out of range")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// StartHour returns the configured starting hour folded into [0, 24).
func (r RunConfig) StartHour() int {
	h := r.HourOfDay % HoursPerDay
	if h < 0 {
		h += HoursPerDay
	}
	return h
}

// Interval returns the wall-clock pause between ticks. Empty means none.
func (r RunConfig) Interval() (time.Duration, error) {
	if r.TickInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.TickInterval)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative interval %s", d)
	}
	return d, nil
}
