package world

import (
	"math"

	"github.com/talgya/catsim/internal/vec"
)

// Bounds is the rectangle [0, Width) × [0, Height) that cats live in.
type Bounds struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// InBounds reports whether v lies on the grid.
func (b Bounds) InBounds(v vec.Vec2) bool {
	return v.X >= 0 && v.X < float64(b.Width) && v.Y >= 0 && v.Y < float64(b.Height)
}

// Lattice snaps v to the nearest cell (half away from zero) and clamps it
// into [0, Width−1] × [0, Height−1].
func (b Bounds) Lattice(v vec.Vec2) vec.Vec2 {
	x := vec.Clamp(math.Round(v.X), 0, float64(b.Width-1))
	y := vec.Clamp(math.Round(v.Y), 0, float64(b.Height-1))
	return vec.New(x, y)
}

// Clamp returns the cell a cat at from reaches when it tries to move to to.
// The move is cut where it first crosses the grid boundary, then snapped to
// the lattice.
func (b Bounds) Clamp(from, to vec.Vec2) vec.Vec2 {
	return b.Lattice(b.clampRay(from, to))
}

// edge is a boundary segment from q to q+s.
type edge struct {
	q, s vec.Vec2
}

// edges returns bottom, left, top and right, in that order.
func (b Bounds) edges() [4]edge {
	w, h := float64(b.Width-1), float64(b.Height-1)
	return [4]edge{
		{q: vec.New(0, 0), s: vec.New(w, 0)},
		{q: vec.New(0, 0), s: vec.New(0, h)},
		{q: vec.New(w, h), s: vec.New(-w, 0)},
		{q: vec.New(w, h), s: vec.New(0, -h)},
	}
}

// clampRay walks the ray p + t·r, t ∈ [0,1], against each edge using the
// cross-product segment intersection test and returns the first blocked point.
func (b Bounds) clampRay(p, to vec.Vec2) vec.Vec2 {
	r := to.Sub(p)
	if r == vec.Zero {
		return p
	}
	dest := p.Add(r)
	center := vec.New(float64(b.Width)/2, float64(b.Height)/2)

	for _, e := range b.edges() {
		if e.s == vec.Zero {
			// Degenerate edge of a one-cell-wide grid; Lattice clamps it.
			continue
		}
		qp := e.q.Sub(p)
		qpxr := qp.Cross(r)
		qpxs := qp.Cross(e.s)
		rxs := r.Cross(e.s)

		if qpxs == 0 {
			// p lies on this edge's line.
			if p == e.q || p == e.q.Add(e.s) {
				if !b.InBounds(dest) {
					return p
				}
			}
			inside := e.s.Cross(center.Sub(e.q))
			side := e.s.Cross(dest.Sub(e.q))
			if side == 0 {
				return e.project(dest)
			}
			if inside*side < 0 {
				return p
			}
			continue
		}
		if qpxr == 0 && rxs == 0 {
			return e.project(dest)
		}
		if rxs == 0 {
			continue
		}
		u := qpxr / rxs
		t := qpxs / rxs
		if u >= 0 && u <= 1 && t >= 0 && t <= 1 {
			return p.Add(r.Scale(t))
		}
	}
	return dest
}

// project clamps a point collinear with the edge onto the edge's span.
func (e edge) project(v vec.Vec2) vec.Vec2 {
	u := v.Sub(e.q).Dot(e.s) / e.s.Dot(e.s)
	switch {
	case u < 0:
		return e.q
	case u <= 1:
		return v
	default:
		return e.q.Add(e.s)
	}
}
