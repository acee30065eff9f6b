// Package world provides the terrain grid the cats live on: cells with
// scent traces, food and elevation, neighborhood queries, the boundary
// clamp, map-file loading and terrain generation.
//
// A Terrain is rebuilt every tick from the previous one; occupancy lists
// are never patched in place.
package world

import (
	"fmt"
	"math"
	"strings"

	"github.com/talgya/catsim/internal/agents"
	"github.com/talgya/catsim/internal/config"
	"github.com/talgya/catsim/internal/vec"
)

// Cell is one grid square.
type Cell struct {
	Position  vec.Vec2      `json:"position"`
	XTrace    float64       `json:"x_trace"`
	YTrace    float64       `json:"y_trace"`
	Type      CellType      `json:"cell_type"`
	Food      float64       `json:"food_amount"`
	Elevation int           `json:"elevation"`
	Cats      []*agents.Cat `json:"cats"` // arrival order
}

// Trace returns the scent level left by cats of personality p.
func (c *Cell) Trace(p agents.Personality) float64 {
	if p == agents.PersonalityY {
		return c.YTrace
	}
	return c.XTrace
}

func (c *Cell) addTrace(p agents.Personality, amount float64) {
	if p == agents.PersonalityY {
		c.YTrace = min(config.MaxTrace, c.YTrace+amount)
	} else {
		c.XTrace = min(config.MaxTrace, c.XTrace+amount)
	}
}

// Consume removes up to amount of food, never going below zero.
func (c *Cell) Consume(amount float64) {
	c.Food = max(0, c.Food-amount)
}

// Terrain is the grid for one tick. The elevation and cell-type maps are
// shared between the terrains of a run and never modified.
type Terrain struct {
	Bounds
	elevations [][]int
	cellTypes  [][]CellType
	grid       [][]*Cell
}

// Build creates the terrain for a tick. With a previous terrain, each cell
// keeps its food and inherits faded traces; otherwise food cells start full
// and traces are zero. No cats are placed.
func Build(width, height int, elevations [][]int, cellTypes [][]CellType, previous *Terrain) *Terrain {
	t := &Terrain{
		Bounds:     Bounds{Width: width, Height: height},
		elevations: elevations,
		cellTypes:  cellTypes,
		grid:       make([][]*Cell, height),
	}
	for y := 0; y < height; y++ {
		row := make([]*Cell, width)
		for x := 0; x < width; x++ {
			cell := &Cell{
				Position:  vec.At(x, y),
				Type:      cellTypes[y][x],
				Elevation: elevations[y][x],
			}
			if previous != nil {
				prev := previous.grid[y][x]
				cell.Food = prev.Food
				cell.XTrace = prev.XTrace * config.TraceFadingFactor
				cell.YTrace = prev.YTrace * config.TraceFadingFactor
			} else if cell.Type == CellFood {
				cell.Food = config.StartFoodAmount
			}
			row[x] = cell
		}
		t.grid[y] = row
	}
	return t
}

// Restore rebuilds a terrain from saved cells, keeping their food and
// traces. Saved cats are restored and placed in the cell matching their
// position. Cats are not re-scented. Missing cells, and cats that are off
// the grid or not alive on it, make the save invalid.
func Restore(width, height int, elevations [][]int, cellTypes [][]CellType, cells [][]*Cell) (*Terrain, error) {
	if len(cells) != height {
		return nil, fmt.Errorf("%w: saved terrain has %d rows, want %d", ErrInvalidMap, len(cells), height)
	}
	t := Build(width, height, elevations, cellTypes, nil)
	for y, row := range cells {
		if len(row) != width {
			return nil, fmt.Errorf("%w: saved terrain row %d has %d cells, want %d", ErrInvalidMap, y, len(row), width)
		}
		for x, saved := range row {
			if saved == nil {
				return nil, fmt.Errorf("%w: saved cell (%d,%d) is missing", ErrInvalidMap, x, y)
			}
			cell := t.grid[y][x]
			cell.Food = max(0, saved.Food)
			cell.XTrace = vec.Clamp(saved.XTrace, 0, config.MaxTrace)
			cell.YTrace = vec.Clamp(saved.YTrace, 0, config.MaxTrace)
		}
	}
	for _, row := range cells {
		for _, saved := range row {
			for _, c := range saved.Cats {
				if err := t.restoreCat(c); err != nil {
					return nil, err
				}
			}
		}
	}
	return t, nil
}

func (t *Terrain) restoreCat(c *agents.Cat) error {
	if c == nil {
		return fmt.Errorf("%w: saved cat is missing", ErrInvalidMap)
	}
	if c.State != agents.StateActive && c.State != agents.StateSleeping {
		return fmt.Errorf("%w: saved cat %d is %s", ErrInvalidMap, c.ID, c.State)
	}
	if !c.Position.IsFinite() || !t.InBounds(c.Position) {
		return fmt.Errorf("%w: saved cat %d is off the grid at %v", ErrInvalidMap, c.ID, c.Position)
	}
	c.Position = t.Lattice(c.Position)
	c.Restore()
	cell := t.CellAt(c.Position)
	cell.Cats = append(cell.Cats, c)
	return nil
}

// Elevations returns the elevation map.
func (t *Terrain) Elevations() [][]int { return t.elevations }

// CellTypes returns the cell-type map.
func (t *Terrain) CellTypes() [][]CellType { return t.cellTypes }

// At returns the cell at (x, y). The coordinates must be in bounds.
func (t *Terrain) At(x, y int) *Cell {
	return t.grid[y][x]
}

// CellAt returns the cell containing v, or nil if v is off the grid.
func (t *Terrain) CellAt(v vec.Vec2) *Cell {
	if !t.InBounds(v) {
		return nil
	}
	x, y := int(v.X), int(v.Y)
	return t.grid[y][x]
}

// Rows returns the grid, row-major. Callers must not modify it.
func (t *Terrain) Rows() [][]*Cell {
	return t.grid
}

// PlaceCat adds the cat to the cell at its position and leaves its scent.
// A cat off the grid is ignored. Returns whether the cat was placed.
func (t *Terrain) PlaceCat(c *agents.Cat) bool {
	cell := t.CellAt(c.Position)
	if cell == nil {
		return false
	}
	cell.Cats = append(cell.Cats, c)
	cell.addTrace(c.Personality, config.TraceDeposit)
	return true
}

// Cats returns every placed cat in row-major cell order, then arrival order.
func (t *Terrain) Cats() []*agents.Cat {
	var cats []*agents.Cat
	for _, row := range t.grid {
		for _, cell := range row {
			cats = append(cats, cell.Cats...)
		}
	}
	return cats
}

// Neighbors returns the in-bounds cells within radius of center, the center
// cell included, rows first. radius is rounded to the nearest integer.
func (t *Terrain) Neighbors(center vec.Vec2, radius float64, shape Neighborhood) []*Cell {
	r := int(math.Round(radius))
	cx, cy := center.Ints()
	var cells []*Cell
	for dy := -r; dy <= r; dy++ {
		y := cy + dy
		if y < 0 || y >= t.Height {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			x := cx + dx
			if x < 0 || x >= t.Width || !shape.Contains(dx, dy, r) {
				continue
			}
			cells = append(cells, t.grid[y][x])
		}
	}
	return cells
}

// ElevationDamage is the health a cat pays to travel between two cells:
// the climb plus the distance, scaled down.
func (t *Terrain) ElevationDamage(from, to vec.Vec2) float64 {
	climb := float64(t.CellAt(to).Elevation - t.CellAt(from).Elevation)
	return (max(0, climb) + to.Sub(from).Norm()) / config.ElevationDamageDivisor
}

// RefillFood sets every food cell to amount.
func (t *Terrain) RefillFood(amount float64) {
	for _, row := range t.grid {
		for _, cell := range row {
			if cell.Type == CellFood {
				cell.Food = amount
			}
		}
	}
}

// FoodCells returns the food cells, row-major.
func (t *Terrain) FoodCells() []*Cell {
	var cells []*Cell
	for _, row := range t.grid {
		for _, cell := range row {
			if cell.Type == CellFood {
				cells = append(cells, cell)
			}
		}
	}
	return cells
}

// TotalFood sums the food left on the grid.
func (t *Terrain) TotalFood() float64 {
	total := 0.0
	for _, cell := range t.FoodCells() {
		total += cell.Food
	}
	return total
}

// String draws the grid for the console: each cell shows its type and,
// below it, the number of cats on it.
func (t *Terrain) String() string {
	const cellWidth = 5
	var sb strings.Builder
	border := "+" + strings.Repeat(strings.Repeat("-", cellWidth)+"+", t.Width) + "\n"
	sb.WriteString(border)
	for _, row := range t.grid {
		sb.WriteByte('|')
		for _, cell := range row {
			fmt.Fprintf(&sb, "%-*c|", cellWidth, cell.Type.Char())
		}
		sb.WriteString("\n|")
		for _, cell := range row {
			count := ""
			if n := len(cell.Cats); n > 0 {
				count = fmt.Sprintf("c%d", n)
			}
			fmt.Fprintf(&sb, "%-*s|", cellWidth, count)
		}
		sb.WriteByte('\n')
		sb.WriteString(border)
	}
	return sb.String()
}
