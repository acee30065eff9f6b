// Terrain generation for runs without map files: flat or simplex-noise
// elevation, and weighted random cell types.
package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds generation parameters. Maps already loaded from files
// are kept; only the missing ones are generated.
type GenConfig struct {
	Width  int
	Height int
	Seed   int64
	Relief float64 // elevation amplitude; 0 gives a flat plane

	Elevations [][]int
	CellTypes  [][]CellType
}

// Generate returns the elevation and cell-type maps for cfg.
// Cell types are drawn from r; elevation noise is seeded from cfg.Seed and
// consumes no draws from r.
func Generate(cfg GenConfig, r Picker) ([][]int, [][]CellType) {
	elevations := cfg.Elevations
	if elevations == nil {
		if cfg.Relief > 0 {
			elevations = GenerateElevations(cfg.Width, cfg.Height, cfg.Seed, cfg.Relief)
		} else {
			elevations = FlatElevations(cfg.Width, cfg.Height)
		}
	}
	cellTypes := cfg.CellTypes
	if cellTypes == nil {
		cellTypes = RandomCellTypes(cfg.Width, cfg.Height, r)
	}
	return elevations, cellTypes
}

// FlatElevations returns a height×width plane at elevation 0.
func FlatElevations(width, height int) [][]int {
	elevations := make([][]int, height)
	for y := range elevations {
		elevations[y] = make([]int, width)
	}
	return elevations
}

// GenerateElevations samples layered simplex noise into integer elevations
// in [0, relief].
func GenerateElevations(width, height int, seed int64, relief float64) [][]int {
	noise := opensimplex.NewNormalized(seed)
	elevations := make([][]int, height)
	for y := range elevations {
		row := make([]int, width)
		for x := range row {
			n := octaveNoise(noise, float64(x), float64(y), 4, 0.08, 0.5)
			row[x] = int(math.Round(n * relief))
		}
		elevations[y] = row
	}
	return elevations
}

// octaveNoise samples multi-octave normalized noise in [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// CellTypeCounts returns how many cells of each type a map holds.
func CellTypeCounts(types [][]CellType) map[CellType]int {
	counts := make(map[CellType]int)
	for _, row := range types {
		for _, t := range row {
			counts[t]++
		}
	}
	return counts
}
