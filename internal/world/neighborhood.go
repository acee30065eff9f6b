package world

import "fmt"

// Neighborhood is the shape of the area a cat senses.
type Neighborhood uint8

const (
	// Moore is the square neighborhood (Chebyshev distance).
	Moore Neighborhood = iota
	// VonNeumann is the diamond neighborhood (Manhattan distance).
	VonNeumann
)

func (n Neighborhood) String() string {
	if n == VonNeumann {
		return "von-neumann"
	}
	return "moore"
}

// ParseNeighborhood parses "moore" or "von-neumann".
func ParseNeighborhood(s string) (Neighborhood, error) {
	switch s {
	case "moore":
		return Moore, nil
	case "von-neumann":
		return VonNeumann, nil
	}
	return Moore, fmt.Errorf("unknown neighborhood %q", s)
}

// Contains reports whether the offset (dx, dy) lies within radius r.
func (n Neighborhood) Contains(dx, dy, r int) bool {
	dx, dy = abs(dx), abs(dy)
	if n == VonNeumann {
		return dx+dy <= r
	}
	return max(dx, dy) <= r
}

// MarshalText encodes the neighborhood by name.
func (n Neighborhood) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

// UnmarshalText decodes a neighborhood name.
func (n *Neighborhood) UnmarshalText(b []byte) error {
	v, err := ParseNeighborhood(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
