// Simulation ties the terrain, the cats and the random source together and
// advances them one hour per step.
package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/catsim/internal/agents"
	"github.com/talgya/catsim/internal/config"
	"github.com/talgya/catsim/internal/vec"
	"github.com/talgya/catsim/internal/weather"
	"github.com/talgya/catsim/internal/world"
)

// maxEvents bounds the recent-events list.
const maxEvents = 1000

// Params are the fixed inputs of a run.
type Params struct {
	Population         int                `json:"population"`
	Steps              int                `json:"n_steps"`
	Width              int                `json:"width"`
	Height             int                `json:"height"`
	StartHour          int                `json:"start_hour"`
	Neighborhood       world.Neighborhood `json:"neighborhood"`
	NeighborhoodRadius int                `json:"neighborhood_radius"`
	ContinuousFood     bool               `json:"continuous_food"`
	Seed               int64              `json:"seed"`
	LogForces          bool               `json:"-"`
}

// Simulation holds the complete state of a run.
type Simulation struct {
	Params    Params
	Terrain   *world.Terrain
	Step      int // ticks completed
	HourOfDay int
	Spawner   *agents.Spawner

	// Population is the number of live cats on the terrain.
	Population int

	Events     []Event    // recent events, oldest first
	Stats      SimStats   // cumulative counters
	LastReport TickReport // the most recent tick

	rng  Random
	cats []*agents.Cat // every cat that ever lived, in id order
}

// Random is the source every draw of a run comes from. *entropy.Source
// satisfies it.
type Random interface {
	Float64() float64
	Intn(n int) int
}

// Event is a notable occurrence in the run.
type Event struct {
	Step        int    `json:"step"`
	Hour        int    `json:"hour"`
	Category    string `json:"category"` // "birth", "death", "conception", "attack", "sleep"
	CatID       uint64 `json:"cat_id"`
	Description string `json:"description"`
}

// TickReport summarizes one tick.
type TickReport struct {
	Step        int     `json:"step"`
	Hour        int     `json:"hour"`
	Temperature float64 `json:"temperature"`
	Births      int     `json:"births"`
	Deaths      int     `json:"deaths"`
	Conceptions int     `json:"conceptions"`
	Attacks     int     `json:"attacks"`
	FoodEaten   float64 `json:"food_eaten"`
	Sleeping    int     `json:"sleeping"`
	Population  int     `json:"population"`
}

// SimStats are cumulative counters for the whole run.
type SimStats struct {
	Births      int     `json:"births"`
	Deaths      int     `json:"deaths"`
	Conceptions int     `json:"conceptions"`
	Attacks     int     `json:"attacks"`
	FoodEaten   float64 `json:"food_eaten"`
}

// NewSimulation creates a simulation over a terrain whose cats are already
// placed. rng must be the source used to generate the terrain and cats so a
// seed reproduces the whole run.
func NewSimulation(p Params, terrain *world.Terrain, spawner *agents.Spawner, rng Random) *Simulation {
	s := &Simulation{
		Params:    p,
		Terrain:   terrain,
		HourOfDay: p.StartHour,
		Spawner:   spawner,
		rng:       rng,
	}
	s.cats = terrain.Cats()
	sort.Slice(s.cats, func(i, j int) bool { return s.cats[i].ID < s.cats[j].ID })
	s.Population = len(s.cats)
	return s
}

// Temperature returns the current air temperature.
func (s *Simulation) Temperature() float64 {
	return weather.Temperature(s.HourOfDay)
}

// Finished reports whether the run has used its steps or lost every cat.
func (s *Simulation) Finished() bool {
	return s.Step >= s.Params.Steps || s.Population <= 0
}

// Alive returns the live cats sorted by id.
func (s *Simulation) Alive() []*agents.Cat {
	cats := s.Terrain.Cats()
	sort.Slice(cats, func(i, j int) bool { return cats[i].ID < cats[j].ID })
	return cats
}

// AllCats returns every cat the run has seen, dead ones included, by id.
func (s *Simulation) AllCats() []*agents.Cat {
	return s.cats
}

// Advance runs one tick: pre-update, update and post-update over the live
// cats in row-major cell order, then builds the next terrain and places the
// survivors and newborns on it.
func (s *Simulation) Advance() TickReport {
	report := TickReport{
		Step:        s.Step + 1,
		Hour:        s.HourOfDay,
		Temperature: s.Temperature(),
	}

	cats := s.Terrain.Cats()
	next := make([]*agents.Cat, 0, len(cats))

	for _, c := range cats {
		next = s.preUpdate(c, next, &report)
	}
	for _, c := range cats {
		s.update(c, &report)
	}
	for _, c := range cats {
		next = s.postUpdate(c, next, &report)
	}

	nextHour := (s.HourOfDay + 1) % config.HoursPerDay
	terrain := world.Build(s.Terrain.Width, s.Terrain.Height, s.Terrain.Elevations(), s.Terrain.CellTypes(), s.Terrain)
	if s.Params.ContinuousFood {
		terrain.RefillFood(config.ContinuousFoodAmount)
	} else if nextHour == config.FoodRefillHour {
		terrain.RefillFood(config.NewFoodAmount)
	}
	for _, c := range next {
		terrain.PlaceCat(c)
		if c.IsSleeping() {
			report.Sleeping++
		}
	}

	s.Terrain = terrain
	s.HourOfDay = nextHour
	s.Step++
	s.Population = len(next)
	report.Population = s.Population

	s.Stats.Births += report.Births
	s.Stats.Deaths += report.Deaths
	s.Stats.Conceptions += report.Conceptions
	s.Stats.Attacks += report.Attacks
	s.Stats.FoodEaten += report.FoodEaten
	s.LastReport = report
	s.trimEvents()
	return report
}

func (s *Simulation) preUpdate(c *agents.Cat, next []*agents.Cat, report *TickReport) []*agents.Cat {
	c.StartStep()
	cell := s.Terrain.CellAt(c.Position)

	wasSleeping := c.IsSleeping()
	if c.UpdateSleep(world.SleepProbability(cell.Type, c.Health), s.rng) {
		if c.IsSleeping() {
			s.record("sleep", c, "%v fell asleep", c)
		} else if wasSleeping && c.Health < config.ForceWakeUpHealth {
			s.record("sleep", c, "%v was forced to wake up", c)
		}
	}

	if cell.Type == world.CellFood && !c.IsSleeping() {
		amount := min(cell.Food, config.MaxFoodIntake, c.MaxHealth()-c.Health)
		if amount > 0 {
			cell.Consume(amount)
			c.ConsumeFood(amount)
			report.FoodEaten += amount
		}
	}

	if c.ReadyToDeliver() {
		baby := c.Deliver()
		next = append(next, baby)
		s.cats = append(s.cats, baby)
		report.Births++
		s.record("birth", baby, "%v was born to cat %d", baby, c.ID)
	}
	return next
}

func (s *Simulation) update(c *agents.Cat, report *TickReport) {
	cell := s.Terrain.CellAt(c.Position)
	temperature := report.Temperature

	for _, other := range cell.Cats {
		if other.ID == c.ID {
			continue
		}
		in := c.Interact(other, temperature, s.rng, s.Spawner)
		switch in.Outcome {
		case agents.OutcomeConception:
			report.Conceptions++
			s.record("conception", c, "cat %d and cat %d conceived cat %d", c.ID, other.ID, in.Fetus.ID)
		case agents.OutcomeAttack:
			report.Attacks++
			s.record("attack", c, "cat %d attacked cat %d for %.2f", c.ID, other.ID, in.Damage)
		}
	}

	force := vec.Zero
	radius := float64(s.Params.NeighborhoodRadius)
	foodRadius := radius
	switch {
	case c.Health < config.StarvingHealth:
		foodRadius = config.StarvingRadiusScale * radius
	case c.Health < config.HungryHealth:
		foodRadius = config.HungryRadiusScale * radius
	}

	for _, other := range s.Terrain.Neighbors(c.Position, foodRadius, s.Params.Neighborhood) {
		if other.Type != world.CellFood {
			continue
		}
		attraction := other.Food / config.FoodAttractionScale * c.FoodAttraction()
		force = s.addForce(c, force, "food", attraction, other.Position)
	}

	for _, other := range s.Terrain.Neighbors(c.Position, radius, s.Params.Neighborhood) {
		switch other.Type {
		case world.CellBed:
			force = s.addForce(c, force, "bed", c.BedAttraction(), other.Position)
		case world.CellBox:
			force = s.addForce(c, force, "box", c.BoxAttraction(), other.Position)
		}
		for _, cat := range other.Cats {
			if cat.ID == c.ID {
				continue
			}
			force = s.addForce(c, force, "mutual", c.MutualAttraction(cat, temperature), other.Position)
		}
		if other.XTrace > 0 || other.YTrace > 0 {
			force = s.addForce(c, force, "trace", c.TraceAttraction(other.XTrace, other.YTrace), other.Position)
		}
	}

	jitter := c.RandomForce(s.rng)
	if s.Params.LogForces {
		slog.Debug("force", "kind", "random", "cat", c.ID, "force", jitter)
	}
	c.AddForce(force.Add(jitter))
}

// addForce adds the pull of an attraction toward target to force.
func (s *Simulation) addForce(c *agents.Cat, force vec.Vec2, kind string, attraction float64, target vec.Vec2) vec.Vec2 {
	f := agents.CalcForce(attraction, c.Position, target)
	if s.Params.LogForces {
		slog.Debug("force", "kind", kind, "cat", c.ID, "target", target, "force", f)
	}
	return force.Add(f)
}

func (s *Simulation) postUpdate(c *agents.Cat, next []*agents.Cat, report *TickReport) []*agents.Cat {
	target := s.Terrain.Clamp(c.Position, c.Position.Add(c.Force()))
	if target != c.Position {
		c.MoveTo(target, s.Terrain.ElevationDamage(c.Position, target))
	}
	c.FinalizeStep()

	if c.ShouldDie() {
		c.Die()
		report.Deaths++
		s.record("death", c, "%v has died", c)
		return next
	}
	return append(next, c)
}

func (s *Simulation) record(category string, c *agents.Cat, format string, args ...any) {
	s.Events = append(s.Events, Event{
		Step:        s.Step + 1,
		Hour:        s.HourOfDay,
		Category:    category,
		CatID:       uint64(c.ID),
		Description: fmt.Sprintf(format, args...),
	})
}

func (s *Simulation) trimEvents() {
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

// RecentEvents returns up to n of the latest events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	if n <= 0 || len(s.Events) == 0 {
		return nil
	}
	start := max(0, len(s.Events)-n)
	out := make([]Event, len(s.Events)-start)
	copy(out, s.Events[start:])
	return out
}

// SimTime returns a human-readable time for a step of a run that started
// at startHour.
func SimTime(step, startHour int) string {
	total := startHour + step
	return fmt.Sprintf("Day %d, %02d:00", total/config.HoursPerDay+1, total%config.HoursPerDay)
}
