// Package vec provides the 2-D vector type used for cat positions and forces.
// Vectors are plain values; every operation returns a new vector.
package vec

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Vec2 is a real-valued 2-D vector. Equality is exact component comparison.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zero is the zero vector.
var Zero = Vec2{}

// New returns the vector (x, y).
func New(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// At returns the vector for integer grid coordinates.
func At(x, y int) Vec2 {
	return Vec2{X: float64(x), Y: float64(y)}
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v − o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v·k.
func (v Vec2) Scale(k float64) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// Norm returns the Euclidean magnitude of v.
func (v Vec2) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Unit returns v scaled to length 1, or the zero vector when v is zero.
func (v Vec2) Unit() Vec2 {
	n := v.Norm()
	if n == 0 {
		return Zero
	}
	return v.Scale(1 / n)
}

// Dot returns the dot product v·o.
func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the scalar 2-D cross product v.x·o.y − v.y·o.x.
func (v Vec2) Cross(o Vec2) float64 {
	return v.X*o.Y - v.Y*o.X
}

// Round snaps both components to the nearest integer (half away from zero).
func (v Vec2) Round() Vec2 {
	return Vec2{X: math.Round(v.X), Y: math.Round(v.Y)}
}

// Ints returns the components rounded to ints. Intended for lattice points.
func (v Vec2) Ints() (int, int) {
	return int(math.Round(v.X)), int(math.Round(v.Y))
}

// IsFinite reports whether neither component is NaN or infinite.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

func (v Vec2) String() string {
	return fmt.Sprintf("{x=%.3f,y=%.3f}", v.X, v.Y)
}

// Clamp limits x to [lo, hi].
func Clamp[T constraints.Ordered](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
