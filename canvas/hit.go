package canvas

import "mindmaps/diagram"

// Sizer measures a node's box from its title.
type Sizer interface {
	Size(title string) diagram.Size
}

// NodeRect returns the screen-space rectangle of a node of the given size,
// centred on pos (world coordinates).
func (s System) NodeRect(pos diagram.Point, size diagram.Size, vp Viewport) diagram.Rect {
	tl := s.WorldToScreen(pos, size.Half(), vp)
	return diagram.Rect{X: tl.X, Y: tl.Y, Width: size.Width, Height: size.Height}
}

// PositionFunc resolves the world position a node is currently drawn at.
// Dragged nodes report their live position rather than the committed one.
type PositionFunc func(n diagram.Node) diagram.Point

// NodeAt returns the topmost node whose screen rectangle contains the screen
// point p. Later nodes are drawn above earlier ones.
func (s System) NodeAt(nodes []diagram.Node, p diagram.Point, vp Viewport, sizer Sizer, pos PositionFunc) (diagram.Node, bool) {
	if pos == nil {
		pos = diagram.Node.Position
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if s.NodeRect(pos(n), sizer.Size(n.Title), vp).Contains(p) {
			return n, true
		}
	}
	return diagram.Node{}, false
}
