package world

import (
	"fmt"

	"github.com/talgya/catsim/internal/config"
)

// CellType is what a cell offers a cat.
type CellType uint8

const (
	CellFloor CellType = iota
	CellFood
	CellBed
	CellBox
	numCellTypes
)

// cellTypeWeights is the draw weight of each type for random terrains.
var cellTypeWeights = []int{
	CellFloor: 92,
	CellFood:  4,
	CellBed:   3,
	CellBox:   2,
}

func (c CellType) String() string {
	switch c {
	case CellFloor:
		return "floor"
	case CellFood:
		return "food"
	case CellBed:
		return "bed"
	case CellBox:
		return "box"
	default:
		return "unknown"
	}
}

// Char returns the map-file character for the type.
func (c CellType) Char() byte {
	switch c {
	case CellFood:
		return 'F'
	case CellBed:
		return 'B'
	case CellBox:
		return 'b'
	default:
		return '.'
	}
}

// ParseCellChar maps a map-file token to a cell type. Unknown tokens are floor.
func ParseCellChar(s string) CellType {
	switch s {
	case "F":
		return CellFood
	case "B":
		return CellBed
	case "b":
		return CellBox
	default:
		return CellFloor
	}
}

// MarshalText encodes the type by name.
func (c CellType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText decodes a type name.
func (c *CellType) UnmarshalText(b []byte) error {
	for t := CellFloor; t < numCellTypes; t++ {
		if t.String() == string(b) {
			*c = t
			return nil
		}
	}
	return fmt.Errorf("unknown cell type %q", b)
}

// Picker draws an index with probability proportional to its weight.
// *entropy.Source satisfies it.
type Picker interface {
	Weighted(weights []int) int
}

// RandomCellTypes draws a height×width map of cell types, row by row.
func RandomCellTypes(width, height int, r Picker) [][]CellType {
	types := make([][]CellType, height)
	for y := range types {
		row := make([]CellType, width)
		for x := range row {
			row[x] = CellType(r.Weighted(cellTypeWeights))
		}
		types[y] = row
	}
	return types
}

// SleepProbability is the hourly chance that a cat with the given health
// falls asleep on a cell of type c.
func SleepProbability(c CellType, health float64) float64 {
	var p float64
	switch c {
	case CellFood:
		p = config.SleepProbabilityFood
	case CellBed:
		p = config.SleepProbabilityBed
	case CellBox:
		p = config.SleepProbabilityBox
	default:
		p = config.SleepProbabilityFloor
	}
	if health > config.RestedHealth {
		p *= config.RestedSleepBoost
	}
	return min(p, 1)
}
