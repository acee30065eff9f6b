package world

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidMap is returned for malformed or mismatched terrain map files.
var ErrInvalidMap = errors.New("invalid terrain map")

// readGrid splits r into rows of whitespace-separated tokens. Blank lines
// are skipped. Every row must have the same, non-zero number of tokens.
func readGrid(r io.Reader) ([][]string, error) {
	var rows [][]string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(rows) > 0 && len(fields) != len(rows[0]) {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidMap, len(rows)+1, len(fields), len(rows[0]))
		}
		rows = append(rows, fields)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading map: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty map", ErrInvalidMap)
	}
	return rows, nil
}

// ReadElevations parses an elevation map of whitespace-separated integers.
func ReadElevations(r io.Reader) ([][]int, error) {
	rows, err := readGrid(r)
	if err != nil {
		return nil, err
	}
	elevations := make([][]int, len(rows))
	for y, row := range rows {
		elevations[y] = make([]int, len(row))
		for x, tok := range row {
			v, err := strconv.Atoi(tok)
			if err != nil {
				return nil, fmt.Errorf("%w: elevation at row %d column %d: %q", ErrInvalidMap, y+1, x+1, tok)
			}
			elevations[y][x] = v
		}
	}
	return elevations, nil
}

// ReadCellTypes parses a cell-type map of single characters
// (. floor, F food, B bed, b box). Unknown characters are floor.
func ReadCellTypes(r io.Reader) ([][]CellType, error) {
	rows, err := readGrid(r)
	if err != nil {
		return nil, err
	}
	types := make([][]CellType, len(rows))
	for y, row := range rows {
		types[y] = make([]CellType, len(row))
		for x, tok := range row {
			types[y][x] = ParseCellChar(tok)
		}
	}
	return types, nil
}

// LoadElevations reads an elevation map file.
func LoadElevations(path string) ([][]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elevations: %w", err)
	}
	defer f.Close()
	elevations, err := ReadElevations(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return elevations, nil
}

// LoadCellTypes reads a cell-type map file.
func LoadCellTypes(path string) ([][]CellType, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cell types: %w", err)
	}
	defer f.Close()
	types, err := ReadCellTypes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return types, nil
}

// CheckDimensions verifies that both maps describe the same grid.
func CheckDimensions(elevations [][]int, types [][]CellType) error {
	if len(elevations) != len(types) {
		return fmt.Errorf("%w: elevation map has %d rows, cell type map has %d", ErrInvalidMap, len(elevations), len(types))
	}
	if len(elevations) > 0 && len(elevations[0]) != len(types[0]) {
		return fmt.Errorf("%w: elevation map has %d columns, cell type map has %d", ErrInvalidMap, len(elevations[0]), len(types[0]))
	}
	return nil
}
