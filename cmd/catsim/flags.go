package main

import (
	"flag"

	"github.com/talgya/catsim/internal/config"
)

// options holds the command line. Only flags given explicitly override the
// YAML configuration.
type options struct {
	configPath string
	dump       bool

	fs *flag.FlagSet

	population, steps, width, height, hour, radius int
	neighborhood, elevations, cellTypes, stateFile string
	continuousFood, render                         bool
	seed                                           int64
	logMethod, logFile, logLevel                   string
	logForces                                      bool
	persist, dsn, persistFile, interval            string
	persistEvery, apiPort                          int

	// resumeRun names a run in the SQL store to continue from.
	resumeRun string
}

func parseFlags(args []string) (*options, error) {
	o := &options{fs: flag.NewFlagSet("catsim", flag.ContinueOnError)}
	fs := o.fs

	fs.StringVar(&o.configPath, "config", "", "YAML config file (defaults are embedded)")
	fs.BoolVar(&o.dump, "dump", false, "print the final terrain grid")

	fs.IntVar(&o.population, "population", 0, "initial number of cats")
	fs.IntVar(&o.steps, "steps", 0, "number of hourly steps")
	fs.IntVar(&o.width, "width", 0, "terrain width when no map file is given")
	fs.IntVar(&o.height, "height", 0, "terrain height when no map file is given")
	fs.IntVar(&o.hour, "hour", 0, "starting hour of day")
	fs.StringVar(&o.neighborhood, "neighborhood", "", "moore or von-neumann")
	fs.IntVar(&o.radius, "radius", 0, "neighborhood radius")
	fs.BoolVar(&o.continuousFood, "continuous-food", false, "refill food every hour")
	fs.Int64Var(&o.seed, "seed", 0, "random seed; negative picks one")
	fs.StringVar(&o.elevations, "elevations", "", "elevation map file")
	fs.StringVar(&o.cellTypes, "cell-types", "", "cell type map file")
	fs.StringVar(&o.stateFile, "state", "", "resume from a saved JSON state")
	fs.StringVar(&o.resumeRun, "resume-run", "", "resume from the latest state of a run in the SQL store")
	fs.StringVar(&o.interval, "interval", "", "wall-clock pause between ticks, e.g. 200ms")

	fs.StringVar(&o.logMethod, "log", "", "log method: none, console or file")
	fs.StringVar(&o.logFile, "log-file", "", "log file for -log file")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&o.logForces, "log-forces", false, "debug-log every force")

	fs.StringVar(&o.persist, "persist", "", "state store: none, json, sqlite or postgres")
	fs.StringVar(&o.dsn, "dsn", "", "sqlite path or postgres connection string")
	fs.StringVar(&o.persistFile, "state-out", "", "JSON state file written each tick")
	fs.IntVar(&o.persistEvery, "save-every", 0, "save every N ticks")

	fs.IntVar(&o.apiPort, "api", 0, "serve the HTTP API on this port")
	fs.BoolVar(&o.render, "render", false, "show the terminal viewer")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

// apply copies the explicitly set flags into cfg.
func (o *options) apply(cfg *config.Config) {
	o.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "population":
			cfg.Run.Population = o.population
		case "steps":
			cfg.Run.Steps = o.steps
		case "width":
			cfg.Terrain.Width = o.width
		case "height":
			cfg.Terrain.Height = o.height
		case "hour":
			cfg.Run.HourOfDay = o.hour
		case "neighborhood":
			cfg.Run.Neighborhood = o.neighborhood
		case "radius":
			cfg.Run.NeighborhoodRadius = o.radius
		case "continuous-food":
			cfg.Run.ContinuousFood = o.continuousFood
		case "seed":
			cfg.Run.Seed = o.seed
		case "elevations":
			cfg.Terrain.ElevationsFile = o.elevations
		case "cell-types":
			cfg.Terrain.CellTypesFile = o.cellTypes
		case "state":
			cfg.Run.StateFile = o.stateFile
		case "interval":
			cfg.Run.TickInterval = o.interval
		case "log":
			cfg.Log.Method = o.logMethod
		case "log-file":
			cfg.Log.File = o.logFile
		case "log-level":
			cfg.Log.Level = o.logLevel
		case "log-forces":
			cfg.Log.Forces = o.logForces
		case "persist":
			cfg.Persist.Driver = o.persist
		case "dsn":
			cfg.Persist.DSN = o.dsn
		case "state-out":
			cfg.Persist.StateFile = o.persistFile
		case "save-every":
			cfg.Persist.Every = o.persistEvery
		case "api":
			cfg.API.Enabled = o.apiPort > 0
			cfg.API.Port = o.apiPort
		case "render":
			cfg.Render.Enabled = o.render
		}
	})
}
