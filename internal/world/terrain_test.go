package world

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/talgya/catsim/internal/agents"
	"github.com/talgya/catsim/internal/config"
	"github.com/talgya/catsim/internal/entropy"
	"github.com/talgya/catsim/internal/vec"
)

func uniformTypes(width, height int, t CellType) [][]CellType {
	types := make([][]CellType, height)
	for y := range types {
		types[y] = make([]CellType, width)
		for x := range types[y] {
			types[y][x] = t
		}
	}
	return types
}

func newCat(id agents.CatID, x, y int, p agents.Personality) *agents.Cat {
	return agents.NewCat(id, vec.At(x, y), 2, agents.Male, p, 100, agents.StateActive)
}

func TestBuildFresh(t *testing.T) {
	types := uniformTypes(3, 2, CellFloor)
	types[1][2] = CellFood
	tr := Build(3, 2, FlatElevations(3, 2), types, nil)

	if got := tr.At(2, 1).Food; got != config.StartFoodAmount {
		t.Errorf("food cell starts with %v, want %v", got, config.StartFoodAmount)
	}
	if got := tr.At(0, 0).Food; got != 0 {
		t.Errorf("floor cell has food %v", got)
	}
	for _, row := range tr.Rows() {
		for _, c := range row {
			x, y := c.Position.Ints()
			if tr.At(x, y) != c {
				t.Fatalf("cell position %v does not match its index", c.Position)
			}
		}
	}
}

func TestBuildFromPreviousFadesTraces(t *testing.T) {
	types := uniformTypes(2, 2, CellFood)
	prev := Build(2, 2, FlatElevations(2, 2), types, nil)
	prev.PlaceCat(newCat(1, 0, 0, agents.PersonalityX))
	prev.At(0, 0).Consume(30)

	next := Build(2, 2, prev.Elevations(), prev.CellTypes(), prev)
	cell := next.At(0, 0)
	if cell.XTrace != config.MaxTrace*config.TraceFadingFactor {
		t.Errorf("faded trace = %v", cell.XTrace)
	}
	if cell.Food != 70 {
		t.Errorf("food = %v, want 70", cell.Food)
	}
	if len(cell.Cats) != 0 {
		t.Error("a new terrain starts empty")
	}
}

func TestPlaceCat(t *testing.T) {
	tr := Build(4, 4, FlatElevations(4, 4), uniformTypes(4, 4, CellFloor), nil)
	a := newCat(1, 1, 2, agents.PersonalityX)
	b := newCat(2, 1, 2, agents.PersonalityY)
	if !tr.PlaceCat(a) || !tr.PlaceCat(b) {
		t.Fatal("in-bounds cats should be placed")
	}
	cell := tr.At(1, 2)
	if len(cell.Cats) != 2 || cell.Cats[0] != a || cell.Cats[1] != b {
		t.Fatalf("occupancy not in arrival order: %v", cell.Cats)
	}
	if cell.XTrace != 1 || cell.YTrace != 1 {
		t.Errorf("traces = %v/%v, want 1/1", cell.XTrace, cell.YTrace)
	}

	// Traces are capped.
	tr.PlaceCat(newCat(3, 1, 2, agents.PersonalityX))
	if cell.XTrace != config.MaxTrace {
		t.Errorf("trace exceeded max: %v", cell.XTrace)
	}
}

func TestPlaceCatOutOfBoundsIsNoop(t *testing.T) {
	tr := Build(3, 3, FlatElevations(3, 3), uniformTypes(3, 3, CellFloor), nil)
	for _, pos := range []vec.Vec2{vec.At(3, 0), vec.At(0, -1), vec.At(10, 10)} {
		c := agents.NewCat(1, pos, 2, agents.Male, agents.PersonalityX, 100, agents.StateActive)
		if tr.PlaceCat(c) {
			t.Fatalf("cat at %v should not be placed", pos)
		}
	}
	if n := len(tr.Cats()); n != 0 {
		t.Fatalf("terrain holds %d cats", n)
	}
}

func TestNeighbors(t *testing.T) {
	tr := Build(5, 5, FlatElevations(5, 5), uniformTypes(5, 5, CellFloor), nil)
	tests := []struct {
		name   string
		center vec.Vec2
		radius float64
		shape  Neighborhood
		want   int
	}{
		{"moore center", vec.At(2, 2), 1, Moore, 9},
		{"von neumann center", vec.At(2, 2), 1, VonNeumann, 5},
		{"moore corner", vec.At(0, 0), 1, Moore, 4},
		{"von neumann radius 2", vec.At(2, 2), 2, VonNeumann, 13},
		{"radius rounds", vec.At(2, 2), 0.6, Moore, 9},
		{"radius zero", vec.At(4, 4), 0, Moore, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tr.Neighbors(tt.center, tt.radius, tt.shape)); got != tt.want {
				t.Errorf("got %d cells, want %d", got, tt.want)
			}
		})
	}

	cells := tr.Neighbors(vec.At(1, 1), 1, Moore)
	if cells[0].Position != vec.At(0, 0) || cells[1].Position != vec.At(1, 0) || cells[3].Position != vec.At(0, 1) {
		t.Error("neighbors not in row-major order")
	}
}

func TestElevationDamage(t *testing.T) {
	elev := [][]int{{0, 4}, {0, 0}}
	tr := Build(2, 2, elev, uniformTypes(2, 2, CellFloor), nil)
	if got := tr.ElevationDamage(vec.At(0, 0), vec.At(1, 0)); got != 0.5 {
		t.Errorf("uphill damage = %v, want 0.5", got)
	}
	if got := tr.ElevationDamage(vec.At(1, 0), vec.At(0, 0)); got != 0.1 {
		t.Errorf("downhill damage = %v, want 0.1", got)
	}
}

func TestRefillFood(t *testing.T) {
	types := uniformTypes(2, 1, CellFood)
	types[0][1] = CellBed
	tr := Build(2, 1, FlatElevations(2, 1), types, nil)
	tr.At(0, 0).Consume(1000)
	if tr.At(0, 0).Food != 0 {
		t.Fatal("food went negative")
	}
	tr.RefillFood(config.NewFoodAmount)
	if tr.At(0, 0).Food != config.NewFoodAmount || tr.At(1, 0).Food != 0 {
		t.Fatal("refill touched the wrong cells")
	}
	if tr.TotalFood() != config.NewFoodAmount {
		t.Fatalf("TotalFood = %v", tr.TotalFood())
	}
}

func TestRestoreKeepsCells(t *testing.T) {
	types := uniformTypes(2, 2, CellFood)
	saved := Build(2, 2, FlatElevations(2, 2), types, nil)
	saved.PlaceCat(newCat(1, 1, 1, agents.PersonalityY))
	saved.At(1, 1).Consume(40)

	got, err := Restore(2, 2, saved.Elevations(), types, saved.Rows())
	if err != nil {
		t.Fatal(err)
	}
	cell := got.At(1, 1)
	if len(cell.Cats) != 1 || cell.YTrace != 1 || cell.Food != 60 {
		t.Fatalf("restored cell = %+v", cell)
	}

	if _, err := Restore(3, 2, FlatElevations(3, 2), uniformTypes(3, 2, CellFloor), saved.Rows()); !errors.Is(err, ErrInvalidMap) {
		t.Fatalf("mismatched restore error = %v", err)
	}
}

func TestTerrainString(t *testing.T) {
	types := uniformTypes(2, 1, CellFloor)
	types[0][0] = CellFood
	tr := Build(2, 1, FlatElevations(2, 1), types, nil)
	tr.PlaceCat(newCat(1, 1, 0, agents.PersonalityX))
	s := tr.String()
	if !strings.Contains(s, "|F    |.    |") || !strings.Contains(s, "|     |c1   |") {
		t.Fatalf("unexpected render:\n%s", s)
	}
}

func TestSleepProbability(t *testing.T) {
	if got := SleepProbability(CellBox, 50); got != 0.4 {
		t.Errorf("box = %v", got)
	}
	if got := SleepProbability(CellBed, 99); math.Abs(got-0.204) > 1e-12 {
		t.Errorf("rested bed = %v", got)
	}
	if got := SleepProbability(CellFood, 10); got != 0.01 {
		t.Errorf("food = %v", got)
	}
}

func TestRandomCellTypesDistribution(t *testing.T) {
	types := RandomCellTypes(50, 40, entropy.New(5))
	if len(types) != 40 || len(types[0]) != 50 {
		t.Fatalf("dimensions %dx%d", len(types[0]), len(types))
	}
	counts := CellTypeCounts(types)
	if counts[CellFloor] < counts[CellFood] || counts[CellFood] == 0 {
		t.Fatalf("unexpected distribution %v", counts)
	}
}

func TestGenerateElevations(t *testing.T) {
	a := GenerateElevations(8, 6, 42, 20)
	b := GenerateElevations(8, 6, 42, 20)
	for y := range a {
		for x := range a[y] {
			if a[y][x] != b[y][x] {
				t.Fatal("same seed gave different elevations")
			}
			if a[y][x] < 0 || a[y][x] > 20 {
				t.Fatalf("elevation %d out of range", a[y][x])
			}
		}
	}

	elev, types := Generate(GenConfig{Width: 4, Height: 3, Seed: 1}, entropy.New(1))
	if len(elev) != 3 || len(types[0]) != 4 || elev[2][3] != 0 {
		t.Fatal("flat generation wrong")
	}

	loaded := [][]CellType{{CellBed, CellBox}}
	elev, types = Generate(GenConfig{Width: 2, Height: 1, Relief: 5, CellTypes: loaded}, entropy.New(1))
	if &types[0][0] != &loaded[0][0] {
		t.Fatal("loaded cell types were replaced")
	}
	if len(elev) != 1 || len(elev[0]) != 2 {
		t.Fatalf("generated elevations are %dx%d, want 2x1", len(elev[0]), len(elev))
	}
}
