// Package canvas converts between world coordinates, where nodes live and are
// persisted, and screen coordinates, where pointers and touches report positions.
//
// The virtual canvas is a bounded square of 2*Center units per side. Scroll
// offsets are expressed in world units inside [0, 2*Center], so they never need
// to go negative; an offset of (Center, Center) puts the world origin in the
// middle of the viewport.
package canvas

import "mindmaps/diagram"

// DefaultCenter is half of the default virtual canvas extent.
const DefaultCenter = 5000.0

// Viewport is the visible window onto the canvas.
type Viewport struct {
	Width        float64       `json:"width"`
	Height       float64       `json:"height"`
	ScrollOffset diagram.Point `json:"scrollOffset"`
}

// Bounds returns the viewport rectangle in screen space.
func (v Viewport) Bounds() diagram.Rect {
	return diagram.Rect{Width: v.Width, Height: v.Height}
}

// System is the world/screen transform. The zero value is not usable; use
// New or Default.
type System struct {
	Center float64
}

// New creates a coordinate system for a virtual canvas of 2*center units.
func New(center float64) System {
	if center <= 0 || !diagram.IsFinite(center) {
		center = DefaultCenter
	}
	return System{Center: center}
}

// Default returns the coordinate system with DefaultCenter.
func Default() System {
	return New(DefaultCenter)
}

// HomeOffset is the scroll offset that places the world origin at the
// viewport centre.
func (s System) HomeOffset() diagram.Point {
	return diagram.Point{X: s.Center, Y: s.Center}
}

// NewViewport returns a viewport of the given size scrolled to HomeOffset.
func (s System) NewViewport(width, height float64) Viewport {
	return Viewport{Width: width, Height: height, ScrollOffset: s.HomeOffset()}
}

// WorldToScreen returns the screen position of the top-left corner of a box
// of the given half size centred on the world point p.
func (s System) WorldToScreen(p diagram.Point, half diagram.Size, vp Viewport) diagram.Point {
	return diagram.Point{
		X: vp.Width/2 + p.X - half.Width - vp.ScrollOffset.X + s.Center,
		Y: vp.Height/2 + p.Y - half.Height - vp.ScrollOffset.Y + s.Center,
	}
}

// ScreenToWorld is the exact inverse of WorldToScreen: it takes the screen
// position of a box's top-left corner and returns the world centre.
func (s System) ScreenToWorld(p diagram.Point, half diagram.Size, vp Viewport) diagram.Point {
	return diagram.Point{
		X: p.X - vp.Width/2 + half.Width + vp.ScrollOffset.X - s.Center,
		Y: p.Y - vp.Height/2 + half.Height + vp.ScrollOffset.Y - s.Center,
	}
}

// PointToScreen converts a single world point (no box) to the screen.
func (s System) PointToScreen(p diagram.Point, vp Viewport) diagram.Point {
	return s.WorldToScreen(p, diagram.Size{}, vp)
}

// PointToWorld converts a pointer position to world coordinates.
func (s System) PointToWorld(p diagram.Point, vp Viewport) diagram.Point {
	return s.ScreenToWorld(p, diagram.Size{}, vp)
}

// ClampScroll keeps a scroll offset inside the virtual canvas. Non-finite
// components fall back to HomeOffset.
func (s System) ClampScroll(offset diagram.Point) diagram.Point {
	offset = diagram.SanitizePoint(offset, s.HomeOffset())
	return diagram.Point{
		X: clamp(offset.X, 0, 2*s.Center),
		Y: clamp(offset.Y, 0, 2*s.Center),
	}
}

// Pan returns vp scrolled so that content follows a pointer moved by delta
// screen units.
func (s System) Pan(vp Viewport, delta diagram.Point) Viewport {
	vp.ScrollOffset = s.ClampScroll(vp.ScrollOffset.Sub(delta))
	return vp
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
