package engine

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/talgya/catsim/internal/agents"
	"github.com/talgya/catsim/internal/config"
	"github.com/talgya/catsim/internal/entropy"
	"github.com/talgya/catsim/internal/vec"
	"github.com/talgya/catsim/internal/world"
)

// constRand returns the same draw every time.
type constRand float64

func (r constRand) Float64() float64 { return float64(r) }
func (r constRand) Intn(n int) int   { return int(float64(r) * float64(n)) }

func testParams(seed int64) Params {
	return Params{
		Population:         25,
		Steps:              72,
		Width:              12,
		Height:             10,
		Neighborhood:       world.Moore,
		NeighborhoodRadius: 3,
		Seed:               seed,
	}
}

func floorTerrain(width, height int) *world.Terrain {
	types := make([][]world.CellType, height)
	for y := range types {
		types[y] = make([]world.CellType, width)
	}
	return world.Build(width, height, world.FlatElevations(width, height), types, nil)
}

func mustNew(t *testing.T, p Params) *Simulation {
	t.Helper()
	sim, err := New(p, nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	return sim
}

func encodeState(t *testing.T, sim *Simulation) []byte {
	t.Helper()
	b, err := json.Marshal(sim.State())
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestDeterminism(t *testing.T) {
	a := mustNew(t, testParams(42))
	b := mustNew(t, testParams(42))
	for !a.Finished() {
		ra, rb := a.Advance(), b.Advance()
		if ra != rb {
			t.Fatalf("step %d reports diverged: %+v vs %+v", a.Step, ra, rb)
		}
		if !bytes.Equal(encodeState(t, a), encodeState(t, b)) {
			t.Fatalf("step %d states diverged", a.Step)
		}
	}
	if !b.Finished() {
		t.Fatal("runs finished at different steps")
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := mustNew(t, testParams(1))
	b := mustNew(t, testParams(2))
	if bytes.Equal(encodeState(t, a), encodeState(t, b)) {
		t.Fatal("different seeds produced the same initial state")
	}
}

func TestHealthAndTraceBounds(t *testing.T) {
	p := testParams(7)
	p.Population = 40
	p.Steps = 200
	p.ContinuousFood = true
	sim := mustNew(t, p)
	for !sim.Finished() {
		sim.Advance()
		for _, row := range sim.Terrain.Rows() {
			for _, cell := range row {
				if cell.XTrace < 0 || cell.XTrace > config.MaxTrace || cell.YTrace < 0 || cell.YTrace > config.MaxTrace {
					t.Fatalf("step %d: trace out of bounds at %v: %v/%v", sim.Step, cell.Position, cell.XTrace, cell.YTrace)
				}
				for _, c := range cell.Cats {
					if c.Health < 0 || c.Health > c.MaxHealth() {
						t.Fatalf("step %d: %v health out of bounds", sim.Step, c)
					}
					if c.State == agents.StateDead || c.StepStarted() {
						t.Fatalf("step %d: %v left in a bad state", sim.Step, c)
					}
					if cell.Position != c.Position {
						t.Fatalf("cat %d placed at %v but positioned at %v", c.ID, cell.Position, c.Position)
					}
				}
			}
		}
	}
}

func TestPopulationConstantWithoutBirthsOrDeaths(t *testing.T) {
	terrain := floorTerrain(6, 6)
	for i := 0; i < 8; i++ {
		c := agents.NewCat(agents.CatID(i+1), vec.At(i%6, i/6), 2, agents.Male, agents.PersonalityX, 100, agents.StateActive)
		terrain.PlaceCat(c)
	}
	spawner := agents.NewSpawner()
	spawner.SetNextID(9)
	p := Params{Steps: 20, Width: 6, Height: 6, NeighborhoodRadius: 2, Neighborhood: world.VonNeumann}
	sim := NewSimulation(p, terrain, spawner, entropy.New(3))

	for !sim.Finished() {
		r := sim.Advance()
		if r.Births != 0 || r.Deaths != 0 || r.Attacks != 0 {
			t.Fatalf("unexpected event at step %d: %+v", sim.Step, r)
		}
		if sim.Population != 8 || len(sim.Terrain.Cats()) != 8 {
			t.Fatalf("population changed to %d at step %d", sim.Population, sim.Step)
		}
	}
}

func TestFoodOnlyIncreasesAtRefillHour(t *testing.T) {
	p := testParams(11)
	p.Steps = 60
	p.Population = 30
	sim := mustNew(t, p)

	before := foodByCell(sim)
	for !sim.Finished() {
		sim.Advance()
		after := foodByCell(sim)
		for pos, food := range after {
			if food < 0 {
				t.Fatalf("negative food at %v", pos)
			}
			if food > before[pos] && sim.HourOfDay != config.FoodRefillHour {
				t.Fatalf("food at %v rose from %v to %v at hour %d", pos, before[pos], food, sim.HourOfDay)
			}
		}
		before = after
	}
}

func foodByCell(sim *Simulation) map[vec.Vec2]float64 {
	out := make(map[vec.Vec2]float64)
	for _, cell := range sim.Terrain.FoodCells() {
		out[cell.Position] = cell.Food
	}
	return out
}

func TestContinuousFoodStaysFull(t *testing.T) {
	p := testParams(5)
	p.ContinuousFood = true
	p.Steps = 10
	sim := mustNew(t, p)
	for !sim.Finished() {
		sim.Advance()
		for _, cell := range sim.Terrain.FoodCells() {
			if cell.Food != config.ContinuousFoodAmount {
				t.Fatalf("food cell at %v has %v", cell.Position, cell.Food)
			}
		}
	}
}

func TestZeroHealthCatDies(t *testing.T) {
	terrain := floorTerrain(3, 3)
	cat := agents.NewCat(1, vec.At(1, 1), 3, agents.Female, agents.PersonalityY, 0, agents.StateActive)
	terrain.PlaceCat(cat)
	sim := NewSimulation(Params{Steps: 5, Width: 3, Height: 3, NeighborhoodRadius: 1}, terrain, agents.NewSpawner(), entropy.New(1))

	r := sim.Advance()
	if cat.State != agents.StateDead {
		t.Fatalf("cat state = %v, want dead", cat.State)
	}
	if r.Deaths != 1 || sim.Population != 0 || !sim.Finished() {
		t.Fatalf("report %+v, population %d", r, sim.Population)
	}
	if len(sim.Terrain.Cats()) != 0 {
		t.Fatal("dead cat carried into the next terrain")
	}
}

func TestForcedReproduction(t *testing.T) {
	terrain := floorTerrain(3, 3)
	tom := agents.NewCat(1, vec.At(1, 1), 2, agents.Male, agents.PersonalityX, 100, agents.StateActive)
	queen := agents.NewCat(2, vec.At(1, 1), 2, agents.Female, agents.PersonalityX, 100, agents.StateActive)
	terrain.PlaceCat(tom)
	terrain.PlaceCat(queen)
	spawner := agents.NewSpawner()
	spawner.SetNextID(3)

	// 0.5 keeps both cats awake and is under the reproduction probability.
	sim := NewSimulation(Params{Steps: 1, Width: 3, Height: 3, NeighborhoodRadius: 1}, terrain, spawner, constRand(0.5))
	r := sim.Advance()

	if r.Conceptions != 1 {
		t.Fatalf("conceptions = %d, want 1", r.Conceptions)
	}
	if !queen.IsPregnant() || tom.IsPregnant() {
		t.Fatal("exactly the female should carry the fetus")
	}
	if queen.Fetus.ID != 3 || *queen.HoursSinceLastConception != 1 {
		t.Fatalf("fetus %d, gestation %d", queen.Fetus.ID, *queen.HoursSinceLastConception)
	}
	if sim.Population != 2 {
		t.Fatalf("fetus counted in population: %d", sim.Population)
	}
}

func TestBirthAfterGestation(t *testing.T) {
	terrain := floorTerrain(3, 3)
	tom := agents.NewCat(1, vec.At(1, 1), 2, agents.Male, agents.PersonalityX, 100, agents.StateActive)
	queen := agents.NewCat(2, vec.At(1, 1), 2, agents.Female, agents.PersonalityX, 100, agents.StateActive)
	terrain.PlaceCat(tom)
	terrain.PlaceCat(queen)
	sim := NewSimulation(Params{Steps: 12, Width: 3, Height: 3, NeighborhoodRadius: 1}, terrain, agents.NewSpawner(), constRand(0.5))
	sim.Spawner.SetNextID(3)

	births := 0
	for !sim.Finished() {
		births += sim.Advance().Births
	}
	if births != 1 {
		t.Fatalf("births = %d, want 1", births)
	}
	baby := sim.AllCats()[len(sim.AllCats())-1]
	if baby.State != agents.StateActive || baby.Stats.HoursIn(agents.StateFetus) != config.GestationHours {
		t.Fatalf("baby %v, fetus hours %d", baby, baby.Stats.HoursIn(agents.StateFetus))
	}
	if sim.Stats.Births != 1 || sim.Population != 3 {
		t.Fatalf("stats %+v, population %d", sim.Stats, sim.Population)
	}
}

func TestSetupRejectsMismatchedMaps(t *testing.T) {
	p := testParams(1)
	_, err := New(p, world.FlatElevations(12, 10), make([][]world.CellType, 3), 0)
	if err == nil {
		t.Fatal("expected a map error")
	}
}

func TestSimTime(t *testing.T) {
	if got := SimTime(0, 0); got != "Day 1, 00:00" {
		t.Errorf("SimTime(0,0) = %q", got)
	}
	if got := SimTime(30, 20); got != "Day 3, 02:00" {
		t.Errorf("SimTime(30,20) = %q", got)
	}
}
