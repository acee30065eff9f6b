package engine

import (
	"fmt"

	"github.com/talgya/catsim/internal/agents"
	"github.com/talgya/catsim/internal/config"
	"github.com/talgya/catsim/internal/entropy"
	"github.com/talgya/catsim/internal/weather"
	"github.com/talgya/catsim/internal/world"
)

// State is the full persisted record of a run after a tick.
type State struct {
	Seed               int64              `json:"seed"`
	Steps              int                `json:"n_steps"`
	Population         int                `json:"population"`
	Step               int                `json:"step"`
	Width              int                `json:"width"`
	Height             int                `json:"height"`
	HourOfDay          int                `json:"hour_of_day"`
	Neighborhood       world.Neighborhood `json:"neighborhood"`
	NeighborhoodRadius int                `json:"neighborhood_radius"`
	ContinuousFood     bool               `json:"continuous_food"`
	CurrentPopulation  int                `json:"current_population"`
	CatNextID          agents.CatID       `json:"cat_next_id"`
	Elevations         [][]int            `json:"elevations"`
	CellTypes          [][]world.CellType `json:"cell_types"`
	Terrain            [][]*world.Cell    `json:"terrain"`
	Stats              SimStats           `json:"stats"`
}

// State returns the persisted record of the current tick. It shares the
// live cells and cats, so it must be encoded before the next Advance.
func (s *Simulation) State() *State {
	return &State{
		Seed:               s.Params.Seed,
		Steps:              s.Params.Steps,
		Population:         s.Params.Population,
		Step:               s.Step,
		Width:              s.Terrain.Width,
		Height:             s.Terrain.Height,
		HourOfDay:          s.HourOfDay,
		Neighborhood:       s.Params.Neighborhood,
		NeighborhoodRadius: s.Params.NeighborhoodRadius,
		ContinuousFood:     s.Params.ContinuousFood,
		CurrentPopulation:  s.Population,
		CatNextID:          s.Spawner.Peek(),
		Elevations:         s.Terrain.Elevations(),
		CellTypes:          s.Terrain.CellTypes(),
		Terrain:            s.Terrain.Rows(),
		Stats:              s.Stats,
	}
}

// Resume rebuilds a simulation from a saved state. The random source cannot
// be saved, so it is reseeded from the seed and the step reached.
func Resume(st *State, logForces bool) (*Simulation, error) {
	if st.Width <= 0 || st.Height <= 0 {
		return nil, fmt.Errorf("%w: saved terrain is %dx%d", world.ErrInvalidMap, st.Width, st.Height)
	}
	if err := world.CheckDimensions(st.Elevations, st.CellTypes); err != nil {
		return nil, err
	}
	if len(st.Elevations) != st.Height || len(st.Elevations[0]) != st.Width {
		return nil, fmt.Errorf("%w: saved maps do not match %dx%d", world.ErrInvalidMap, st.Width, st.Height)
	}

	terrain, err := world.Restore(st.Width, st.Height, st.Elevations, st.CellTypes, st.Terrain)
	if err != nil {
		return nil, err
	}

	p := Params{
		Population:         st.Population,
		Steps:              st.Steps,
		Width:              st.Width,
		Height:             st.Height,
		StartHour:          ((st.HourOfDay-st.Step)%config.HoursPerDay + config.HoursPerDay) % config.HoursPerDay,
		Neighborhood:       st.Neighborhood,
		NeighborhoodRadius: st.NeighborhoodRadius,
		ContinuousFood:     st.ContinuousFood,
		Seed:               st.Seed,
		LogForces:          logForces,
	}
	spawner := agents.NewSpawner()
	spawner.SetNextID(st.CatNextID)

	s := NewSimulation(p, terrain, spawner, entropy.New(st.Seed+int64(st.Step)))
	s.Step = st.Step
	s.HourOfDay = st.HourOfDay
	s.Stats = st.Stats
	return s, nil
}

// CellView is one cell as the viewers see it.
type CellView struct {
	Type      world.CellType `json:"type"`
	XTrace    float64        `json:"x_trace"`
	YTrace    float64        `json:"y_trace"`
	Food      float64        `json:"food"`
	Elevation int            `json:"elevation"`
	Cats      int            `json:"cats"`
}

// CatView is one cat as the viewers see it.
type CatView struct {
	ID          agents.CatID       `json:"id"`
	X           int                `json:"x"`
	Y           int                `json:"y"`
	Gender      agents.Gender      `json:"gender"`
	Personality agents.Personality `json:"personality"`
	State       agents.State       `json:"state"`
	Health      float64            `json:"health"`
	Age         float64            `json:"age"`
	Pregnant    bool               `json:"pregnant"`
	Stats       agents.Stats       `json:"stats"`
}

// Snapshot is an immutable copy of a tick for the API and the viewer.
// Nothing in it aliases simulation state.
type Snapshot struct {
	Step        int          `json:"step"`
	Steps       int          `json:"n_steps"`
	Hour        int          `json:"hour_of_day"`
	Time        string       `json:"time"`
	Temperature float64      `json:"temperature"`
	Weather     string       `json:"weather"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Population  int          `json:"population"`
	Seed        int64        `json:"seed"`
	Finished    bool         `json:"finished"`
	Cells       [][]CellView `json:"cells"`
	Cats        []CatView    `json:"cats"`
	Report      TickReport   `json:"report"`
	Stats       SimStats     `json:"stats"`
	Events      []Event      `json:"events"`
}

// snapshotEvents is how many recent events a snapshot carries.
const snapshotEvents = 50

// Snapshot copies the current tick into a Snapshot.
func (s *Simulation) Snapshot() *Snapshot {
	snap := &Snapshot{
		Step:        s.Step,
		Steps:       s.Params.Steps,
		Hour:        s.HourOfDay,
		Time:        SimTime(s.Step, s.Params.StartHour),
		Temperature: s.Temperature(),
		Weather:     weather.Describe(s.HourOfDay),
		Width:       s.Terrain.Width,
		Height:      s.Terrain.Height,
		Population:  s.Population,
		Seed:        s.Params.Seed,
		Finished:    s.Finished(),
		Cells:       make([][]CellView, s.Terrain.Height),
		Report:      s.LastReport,
		Stats:       s.Stats,
		Events:      s.RecentEvents(snapshotEvents),
	}
	for y, row := range s.Terrain.Rows() {
		views := make([]CellView, len(row))
		for x, cell := range row {
			views[x] = CellView{
				Type:      cell.Type,
				XTrace:    cell.XTrace,
				YTrace:    cell.YTrace,
				Food:      cell.Food,
				Elevation: cell.Elevation,
				Cats:      len(cell.Cats),
			}
		}
		snap.Cells[y] = views
	}
	for _, c := range s.Alive() {
		x, y := c.Position.Ints()
		snap.Cats = append(snap.Cats, CatView{
			ID:          c.ID,
			X:           x,
			Y:           y,
			Gender:      c.Gender,
			Personality: c.Personality,
			State:       c.State,
			Health:      c.Health,
			Age:         c.Age,
			Pregnant:    c.IsPregnant(),
			Stats:       c.Stats,
		})
	}
	return snap
}

// Cat returns the view of a live cat, or false.
func (s *Snapshot) Cat(id agents.CatID) (CatView, bool) {
	for _, c := range s.Cats {
		if c.ID == id {
			return c, true
		}
	}
	return CatView{}, false
}
