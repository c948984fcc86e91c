// Package geometry computes the anchor points and curved paths used to draw
// connections between sized, placed nodes.
package geometry

import "math"

const epsilon = 1e-9

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Angle returns the direction of (dx, dy) in degrees, normalized to [0, 360).
// Screen space grows downward, so 90 points south.
func Angle(dx, dy float64) float64 {
	deg := math.Atan2(dy, dx) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}
