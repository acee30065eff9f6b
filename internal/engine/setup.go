package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/catsim/internal/agents"
	"github.com/talgya/catsim/internal/config"
	"github.com/talgya/catsim/internal/entropy"
	"github.com/talgya/catsim/internal/world"
)

// ParamsFromConfig converts run configuration into simulation parameters.
// Width and height come from the terrain section and are replaced by the
// map dimensions when map files are used.
func ParamsFromConfig(cfg *config.Config) (Params, error) {
	shape, err := world.ParseNeighborhood(cfg.Run.Neighborhood)
	if err != nil {
		return Params{}, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	seed := cfg.Run.Seed
	if seed < 0 {
		seed = entropy.NewSeed()
	}
	return Params{
		Population:         cfg.Run.Population,
		Steps:              cfg.Run.Steps,
		Width:              cfg.Terrain.Width,
		Height:             cfg.Terrain.Height,
		StartHour:          cfg.Run.StartHour(),
		Neighborhood:       shape,
		NeighborhoodRadius: cfg.Run.NeighborhoodRadius,
		ContinuousFood:     cfg.Run.ContinuousFood,
		Seed:               seed,
		LogForces:          cfg.Log.Forces,
	}, nil
}

// Setup builds a new simulation from configuration: it loads or generates
// the terrain maps, spawns the initial population and places it.
// Map errors are fatal and no simulation is returned.
func Setup(cfg *config.Config) (*Simulation, error) {
	p, err := ParamsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	elevations, cellTypes, err := loadMaps(cfg.Terrain)
	if err != nil {
		return nil, err
	}
	if elevations != nil {
		p.Height = len(elevations)
		p.Width = len(elevations[0])
	} else if cellTypes != nil {
		p.Height = len(cellTypes)
		p.Width = len(cellTypes[0])
	}
	return New(p, elevations, cellTypes, cfg.Terrain.Relief)
}

// New builds a simulation from parameters. Nil maps are generated: flat (or
// simplex relief when relief > 0) elevation, and random cell types.
func New(p Params, elevations [][]int, cellTypes [][]world.CellType, relief float64) (*Simulation, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("%w: terrain must be at least 1x1, got %dx%d", config.ErrInvalidConfig, p.Width, p.Height)
	}
	rng := entropy.New(p.Seed)

	elevations, cellTypes = world.Generate(world.GenConfig{
		Width:      p.Width,
		Height:     p.Height,
		Seed:       p.Seed,
		Relief:     relief,
		Elevations: elevations,
		CellTypes:  cellTypes,
	}, rng)
	if err := world.CheckDimensions(elevations, cellTypes); err != nil {
		return nil, err
	}
	if len(elevations) != p.Height || len(elevations[0]) != p.Width {
		return nil, fmt.Errorf("%w: maps are %dx%d, want %dx%d", world.ErrInvalidMap, len(elevations[0]), len(elevations), p.Width, p.Height)
	}

	terrain := world.Build(p.Width, p.Height, elevations, cellTypes, nil)
	spawner := agents.NewSpawner()
	for _, c := range spawner.SpawnPopulation(p.Population, p.Width, p.Height, rng) {
		terrain.PlaceCat(c)
	}

	counts := world.CellTypeCounts(cellTypes)
	slog.Info("simulation set up",
		"width", p.Width,
		"height", p.Height,
		"population", p.Population,
		"seed", rng.Seed(),
		"setup_draws", rng.Draws(),
		"food_cells", counts[world.CellFood],
		"beds", counts[world.CellBed],
		"boxes", counts[world.CellBox],
	)
	return NewSimulation(p, terrain, spawner, rng), nil
}

func loadMaps(tc config.TerrainConfig) ([][]int, [][]world.CellType, error) {
	var (
		elevations [][]int
		cellTypes  [][]world.CellType
		err        error
	)
	if tc.ElevationsFile != "" {
		elevations, err = world.LoadElevations(tc.ElevationsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading elevations: %w", err)
		}
	}
	if tc.CellTypesFile != "" {
		cellTypes, err = world.LoadCellTypes(tc.CellTypesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading cell types: %w", err)
		}
	}
	if elevations != nil && cellTypes != nil {
		if err := world.CheckDimensions(elevations, cellTypes); err != nil {
			return nil, nil, err
		}
	}
	return elevations, cellTypes, nil
}
