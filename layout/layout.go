// Package layout positions nodes that arrive without coordinates, such as
// imported nodes or nodes proposed by an external collaborator.
//
// Pending nodes are placed on concentric rings around an already placed
// neighbour, or around the world origin when they have none. Candidate slots
// are tried in order and the first one whose box does not overlap an existing
// node wins.
package layout

import (
	"math"

	"mindmaps/canvas"
	"mindmaps/diagram"
)

// Options tunes ring placement.
type Options struct {
	Radius     float64 `yaml:"radius" toml:"radius" json:"radius" validate:"gt=0"`
	Gap        float64 `yaml:"gap" toml:"gap" json:"gap" validate:"gte=0"`
	MaxRings   int     `yaml:"max_rings" toml:"max_rings" json:"maxRings" validate:"gte=1"`
	StartAngle float64 `yaml:"start_angle" toml:"start_angle" json:"startAngle"`
}

// DefaultOptions returns the placement used by the editor surfaces.
func DefaultOptions() Options {
	return Options{
		Radius:     220,
		Gap:        24,
		MaxRings:   6,
		StartAngle: 0,
	}
}

// RingLayout places pending nodes on rings.
type RingLayout struct {
	sizer canvas.Sizer
	opts  Options
}

// NewRingLayout creates a RingLayout. Zero-valued options fall back to the defaults.
func NewRingLayout(sizer canvas.Sizer, opts Options) *RingLayout {
	def := DefaultOptions()
	if opts.Radius <= 0 {
		opts.Radius = def.Radius
	}
	if opts.MaxRings <= 0 {
		opts.MaxRings = def.MaxRings
	}
	if opts.Gap < 0 {
		opts.Gap = def.Gap
	}
	return &RingLayout{sizer: sizer, opts: opts}
}

// Place returns a copy of g in which every node listed in pending has been
// given a position. Nodes not listed keep their coordinates. Unknown ids in
// pending are ignored.
func (l *RingLayout) Place(g diagram.Graph, pending []string) diagram.Graph {
	out := g.Clone()
	if len(pending) == 0 || len(out.Nodes) == 0 {
		return out
	}

	index := make(map[string]int, len(out.Nodes))
	for i, n := range out.Nodes {
		index[n.ID] = i
	}

	waiting := make(map[string]bool, len(pending))
	var order []string
	for _, id := range pending {
		if _, ok := index[id]; ok && !waiting[id] {
			waiting[id] = true
			order = append(order, id)
		}
	}

	neighbours := make(map[string][]string)
	for _, c := range out.Connections {
		if c.SourceID == c.TargetID {
			continue
		}
		neighbours[c.SourceID] = append(neighbours[c.SourceID], c.TargetID)
		neighbours[c.TargetID] = append(neighbours[c.TargetID], c.SourceID)
	}

	var boxes []diagram.Rect
	for _, n := range out.Nodes {
		if !waiting[n.ID] {
			boxes = append(boxes, l.box(n.Title, n.Position()))
		}
	}

	for len(order) > 0 {
		// Prefer nodes that already have a placed neighbour so clusters stay together.
		pick, anchor, found := -1, diagram.Point{}, false
		for i, id := range order {
			for _, nb := range neighbours[id] {
				j, ok := index[nb]
				if ok && !waiting[nb] {
					pick, anchor, found = i, out.Nodes[j].Position(), true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			pick = 0
		}

		id := order[pick]
		order = append(order[:pick], order[pick+1:]...)
		n := &out.Nodes[index[id]]

		p := l.slot(n.Title, anchor, !found, boxes)
		n.X, n.Y = p.X, p.Y
		boxes = append(boxes, l.box(n.Title, p))
		delete(waiting, id)
	}
	return out
}

// slot finds the first free ring position around anchor. When the anchor is
// the origin fallback the anchor itself is tried first.
func (l *RingLayout) slot(title string, anchor diagram.Point, tryAnchor bool, boxes []diagram.Rect) diagram.Point {
	if tryAnchor && l.free(title, anchor, boxes) {
		return anchor
	}

	var last diagram.Point
	for ring := 1; ring <= l.opts.MaxRings; ring++ {
		slots := 8 * ring
		r := l.opts.Radius * float64(ring)
		for k := 0; k < slots; k++ {
			theta := l.opts.StartAngle + 2*math.Pi*float64(k)/float64(slots)
			p := diagram.Point{
				X: round(anchor.X + r*math.Cos(theta)),
				Y: round(anchor.Y + r*math.Sin(theta)),
			}
			if l.free(title, p, boxes) {
				return p
			}
			last = p
		}
	}
	return last
}

func (l *RingLayout) free(title string, p diagram.Point, boxes []diagram.Rect) bool {
	b := l.box(title, p).Expand(l.opts.Gap / 2)
	for _, other := range boxes {
		if overlaps(b, other.Expand(l.opts.Gap/2)) {
			return false
		}
	}
	return true
}

func (l *RingLayout) box(title string, center diagram.Point) diagram.Rect {
	size := l.sizer.Size(title)
	return diagram.Rect{
		X:      center.X - size.Width/2,
		Y:      center.Y - size.Height/2,
		Width:  size.Width,
		Height: size.Height,
	}
}

func overlaps(a, b diagram.Rect) bool {
	return a.X < b.X+b.Width && b.X < a.X+a.Width &&
		a.Y < b.Y+b.Height && b.Y < a.Y+a.Height
}

// round keeps placed coordinates on whole world units.
func round(v float64) float64 {
	r := math.Round(v)
	if r == 0 {
		return 0
	}
	return r
}
