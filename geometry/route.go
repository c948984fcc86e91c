package geometry

import (
	"mindmaps/canvas"
	"mindmaps/diagram"
)

// Routed is a connection ready to paint.
type Routed struct {
	Connection diagram.Connection
	Path       Path
	Arrows     []Arrow
}

// RouteOptions controls which connections Route returns.
type RouteOptions struct {
	Options
	// Position overrides committed node positions, e.g. during a drag.
	Position canvas.PositionFunc
	// Cull drops connections whose anchors both fall outside the viewport
	// grown by CullMargin.
	Cull       bool
	CullMargin float64
}

// Route computes paths for every renderable connection of g in order.
// Connections whose source or target node is missing are left out and
// their ids returned in dangling; they stay in storage.
func Route(g diagram.Graph, vp canvas.Viewport, sys canvas.System, sizer canvas.Sizer, opts RouteOptions) (routed []Routed, dangling []string) {
	pos := opts.Position
	if pos == nil {
		pos = diagram.Node.Position
	}

	rects := make(map[string]diagram.Rect, len(g.Nodes))
	for _, n := range g.Nodes {
		rects[n.ID] = sys.NodeRect(pos(n), sizer.Size(n.Title), vp)
	}

	visible := vp.Bounds().Expand(opts.CullMargin)
	for _, c := range g.Connections {
		src, okSrc := rects[c.SourceID]
		dst, okDst := rects[c.TargetID]
		if !okSrc || !okDst {
			dangling = append(dangling, c.ID)
			continue
		}

		path := Compute(c, src, dst, opts.Options)
		if opts.Cull && !visible.Overlaps(path.Bounds()) {
			continue
		}

		r := Routed{Connection: c, Path: path}
		if c.ArrowVisible() {
			r.Arrows = path.ArrowHeads(c.ArrowPosition)
		}
		routed = append(routed, r)
	}
	return routed, dangling
}

// ConnectionAt returns the topmost routed connection within tol of p.
func ConnectionAt(routed []Routed, p diagram.Point, tol float64) (diagram.Connection, bool) {
	for i := len(routed) - 1; i >= 0; i-- {
		if routed[i].Path.DistanceTo(p) <= tol {
			return routed[i].Connection, true
		}
	}
	return diagram.Connection{}, false
}
