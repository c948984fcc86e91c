package diagram

import "math"

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SanitizeFloat substitutes fallback for NaN and infinities.
func SanitizeFloat(v, fallback float64) float64 {
	if IsFinite(v) {
		return v
	}
	return fallback
}

// SanitizePoint replaces each non-finite component of p with the matching
// component of fallback.
func SanitizePoint(p, fallback Point) Point {
	return Point{
		X: SanitizeFloat(p.X, fallback.X),
		Y: SanitizeFloat(p.Y, fallback.Y),
	}
}

// Sanitize returns a copy of the graph whose numbers are all finite.
// Non-finite coordinates collapse to the world origin; a non-finite width or
// curvature falls back to its default.
func (g Graph) Sanitize() Graph {
	out := g.Clone()
	for i := range out.Nodes {
		p := SanitizePoint(out.Nodes[i].Position(), Point{})
		out.Nodes[i].X, out.Nodes[i].Y = p.X, p.Y
	}
	for i := range out.Connections {
		c := &out.Connections[i]
		if !IsFinite(c.Width) {
			c.Width = 0
		}
		if c.Curvature != nil && !IsFinite(*c.Curvature) {
			c.Curvature = nil
		}
	}
	return out
}
