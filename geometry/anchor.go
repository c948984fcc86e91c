package geometry

import (
	"math"

	"mindmaps/diagram"
)

// Anchor returns the point where the segment from the centre of from towards
// the centre of to leaves from's rectangle, pushed padding units further out
// along the same line.
func Anchor(from, to diagram.Rect, padding float64) diagram.Point {
	c := from.Center()
	d := to.Center().Sub(c)
	dist := math.Hypot(d.X, d.Y)
	if dist < epsilon {
		return c
	}

	hw, hh := from.Width/2, from.Height/2
	scale := 0.0
	if hw > 0 {
		scale = math.Abs(d.X) / hw
	}
	if hh > 0 {
		scale = math.Max(scale, math.Abs(d.Y)/hh)
	}
	if scale < epsilon {
		return c
	}

	p := c.Add(d.Scale(1 / scale))
	if padding != 0 {
		p = p.Add(d.Scale(padding / dist))
	}
	return p
}

// OnBoundary reports whether p lies on r's border within tol.
func OnBoundary(r diagram.Rect, p diagram.Point, tol float64) bool {
	inX := p.X >= r.X-tol && p.X <= r.X+r.Width+tol
	inY := p.Y >= r.Y-tol && p.Y <= r.Y+r.Height+tol
	onX := math.Abs(p.X-r.X) <= tol || math.Abs(p.X-(r.X+r.Width)) <= tol
	onY := math.Abs(p.Y-r.Y) <= tol || math.Abs(p.Y-(r.Y+r.Height)) <= tol
	return (onX && inY) || (onY && inX)
}
