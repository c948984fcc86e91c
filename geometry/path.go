package geometry

import (
	"fmt"
	"math"

	"mindmaps/diagram"
)

// Options tunes connection geometry.
type Options struct {
	// Padding pushes anchors outward from the node border.
	Padding float64
}

// DefaultOptions returns the padding used by both surfaces.
func DefaultOptions() Options {
	return Options{Padding: 4}
}

// Path is a straight segment or a quadratic curve in screen space. Straight
// paths keep Control at the midpoint so sampling works the same for both.
type Path struct {
	Kind       diagram.ConnectionType
	Start      diagram.Point
	Control    diagram.Point
	End        diagram.Point
	Sector     Sector
	Intensity  float64
	Winding    Winding
	Degenerate bool
}

// Compute builds the path for conn between the source and target rectangles.
func Compute(conn diagram.Connection, src, dst diagram.Rect, opts Options) Path {
	a := Anchor(src, dst, opts.Padding)
	b := Anchor(dst, src, opts.Padding)

	kind := conn.Type
	if kind == "" {
		kind = diagram.ConnectionCurved
	}

	dist := a.Dist(b)
	if dist < epsilon || !diagram.IsFinite(dist) {
		return Path{Kind: kind, Start: a, Control: a, End: a, Degenerate: true}
	}

	mid := diagram.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	if kind == diagram.ConnectionStraight {
		return Path{Kind: kind, Start: a, Control: mid, End: b}
	}

	d := dst.Center().Sub(src.Center())
	sector := SectorOf(Angle(d.X, d.Y))
	intensity, winding := Resolve(conn, sector)

	// Clockwise bows to the left of the travel direction in y-down space.
	dx, dy := (b.X-a.X)/dist, (b.Y-a.Y)/dist
	normal := diagram.Point{X: dy, Y: -dx}.Scale(float64(winding))
	control := mid.Add(normal.Scale(intensity * dist * 0.5))

	return Path{
		Kind:      kind,
		Start:     a,
		Control:   control,
		End:       b,
		Sector:    sector,
		Intensity: intensity,
		Winding:   winding,
	}
}

// At evaluates the path at t in [0, 1].
func (p Path) At(t float64) diagram.Point {
	t = Clamp(t, 0, 1)
	if p.Kind == diagram.ConnectionStraight {
		return p.Start.Add(p.End.Sub(p.Start).Scale(t))
	}
	u := 1 - t
	return p.Start.Scale(u * u).Add(p.Control.Scale(2 * u * t)).Add(p.End.Scale(t * t))
}

// Tangent returns the derivative of the path at t.
func (p Path) Tangent(t float64) diagram.Point {
	t = Clamp(t, 0, 1)
	if p.Kind == diagram.ConnectionStraight {
		return p.End.Sub(p.Start)
	}
	return p.Control.Sub(p.Start).Scale(2 * (1 - t)).Add(p.End.Sub(p.Control).Scale(2 * t))
}

// Sample returns n+1 evenly parameterised points from Start to End.
func (p Path) Sample(n int) []diagram.Point {
	if n < 1 {
		n = 1
	}
	if p.Degenerate {
		return []diagram.Point{p.Start}
	}
	pts := make([]diagram.Point, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = p.At(float64(i) / float64(n))
	}
	return pts
}

// Length approximates the arc length of the path.
func (p Path) Length() float64 {
	pts := p.Sample(32)
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += pts[i-1].Dist(pts[i])
	}
	return total
}

// SVG returns the path in SVG path syntax.
func (p Path) SVG() string {
	if p.Degenerate {
		return fmt.Sprintf("M %.2f %.2f", p.Start.X, p.Start.Y)
	}
	if p.Kind == diagram.ConnectionStraight {
		return fmt.Sprintf("M %.2f %.2f L %.2f %.2f", p.Start.X, p.Start.Y, p.End.X, p.End.Y)
	}
	return fmt.Sprintf("M %.2f %.2f Q %.2f %.2f %.2f %.2f",
		p.Start.X, p.Start.Y, p.Control.X, p.Control.Y, p.End.X, p.End.Y)
}

// Bounds returns a rectangle enclosing the path. A quadratic curve always
// lies inside the hull of its three points.
func (p Path) Bounds() diagram.Rect {
	minX := math.Min(p.Start.X, math.Min(p.Control.X, p.End.X))
	minY := math.Min(p.Start.Y, math.Min(p.Control.Y, p.End.Y))
	maxX := math.Max(p.Start.X, math.Max(p.Control.X, p.End.X))
	maxY := math.Max(p.Start.Y, math.Max(p.Control.Y, p.End.Y))
	return diagram.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// DistanceTo returns the distance from q to the closest point of the path.
func (p Path) DistanceTo(q diagram.Point) float64 {
	pts := p.Sample(24)
	if len(pts) == 1 {
		return pts[0].Dist(q)
	}
	best := math.Inf(1)
	for i := 1; i < len(pts); i++ {
		best = math.Min(best, segmentDistance(pts[i-1], pts[i], q))
	}
	return best
}

func segmentDistance(a, b, q diagram.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 < epsilon {
		return a.Dist(q)
	}
	t := Clamp(((q.X-a.X)*ab.X+(q.Y-a.Y)*ab.Y)/l2, 0, 1)
	return a.Add(ab.Scale(t)).Dist(q)
}

// Arrow is an arrow head: its tip and the direction it points, in degrees.
type Arrow struct {
	Tip   diagram.Point
	Angle float64
}

// ArrowHeads returns the arrow heads to paint for the given position.
func (p Path) ArrowHeads(pos diagram.ArrowPosition) []Arrow {
	if p.Degenerate {
		return nil
	}
	var arrows []Arrow
	if pos == diagram.ArrowStart || pos == diagram.ArrowBoth {
		t := p.Tangent(0)
		arrows = append(arrows, Arrow{Tip: p.Start, Angle: Angle(-t.X, -t.Y)})
	}
	if pos == diagram.ArrowEnd || pos == diagram.ArrowBoth || pos == "" {
		t := p.Tangent(1)
		arrows = append(arrows, Arrow{Tip: p.End, Angle: Angle(t.X, t.Y)})
	}
	return arrows
}
