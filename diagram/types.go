// Package diagram contains the fundamental types shared by every part of the mind map engine.
package diagram

import (
	"math"
	"time"
)

// Point represents a 2D coordinate. Depending on context it is either a world
// coordinate (persisted) or a screen coordinate (pointer space).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale multiplies both components by f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Size is the rendered box of a node.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Half returns half the width and height.
func (s Size) Half() Size {
	return Size{Width: s.Width / 2, Height: s.Height / 2}
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X, Y, Width, Height float64
}

// Center returns the centre point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains checks if a point is inside the rectangle (edges included).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Overlaps reports whether r and o share any point (edges included).
func (r Rect) Overlaps(o Rect) bool {
	return r.X <= o.X+o.Width && o.X <= r.X+r.Width &&
		r.Y <= o.Y+o.Height && o.Y <= r.Y+r.Height
}

// Expand grows the rectangle by m on every side.
func (r Rect) Expand(m float64) Rect {
	return Rect{X: r.X - m, Y: r.Y - m, Width: r.Width + 2*m, Height: r.Height + 2*m}
}

// ConnectionType selects how a connection is drawn.
type ConnectionType string

const (
	ConnectionStraight ConnectionType = "straight"
	ConnectionCurved   ConnectionType = "curved"
)

// CurvatureDirection forces the winding of a curved connection.
type CurvatureDirection string

const (
	CurvatureAuto             CurvatureDirection = "auto"
	CurvatureClockwise        CurvatureDirection = "clockwise"
	CurvatureCounterClockwise CurvatureDirection = "counterclockwise"
)

// ArrowPosition says where arrow heads are painted.
type ArrowPosition string

const (
	ArrowStart ArrowPosition = "start"
	ArrowEnd   ArrowPosition = "end"
	ArrowBoth  ArrowPosition = "both"
	ArrowNone  ArrowPosition = "none"
)

// Relation is the semantic label of a connection.
type Relation string

const (
	RelationGeneric     Relation = "generico"
	RelationCause       Relation = "causa"
	RelationConsequence Relation = "consecuencia"
	RelationExample     Relation = "ejemplo"
	RelationPartOf      Relation = "parte-de"
	RelationContrast    Relation = "contraste"
	RelationDependency  Relation = "dependencia"
)

// Relations lists every valid relation label.
func Relations() []Relation {
	return []Relation{
		RelationGeneric,
		RelationCause,
		RelationConsequence,
		RelationExample,
		RelationPartOf,
		RelationContrast,
		RelationDependency,
	}
}

// Connection styling defaults applied to connections created without them.
const (
	DefaultConnectionWidth = 2.0
	DefaultConnectionColor = "#94A3B8"
)

// Node represents an idea box on the canvas. X and Y are the world
// coordinates of the node's geometric centre.
type Node struct {
	ID          string  `json:"id" validate:"required"`
	Title       string  `json:"title"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Color       string  `json:"color,omitempty"`
	BorderColor string  `json:"borderColor,omitempty"`
}

// Position returns the node centre in world coordinates.
func (n Node) Position() Point {
	return Point{X: n.X, Y: n.Y}
}

// Connection represents an edge between two nodes.
type Connection struct {
	ID                 string             `json:"id" validate:"required"`
	SourceID           string             `json:"sourceId" validate:"required,nefield=TargetID"`
	TargetID           string             `json:"targetId" validate:"required"`
	Type               ConnectionType     `json:"type,omitempty" validate:"omitempty,oneof=straight curved"`
	Curvature          *float64           `json:"curvature,omitempty" validate:"omitempty,gte=0,lte=1"`
	AdaptiveCurvature  *bool              `json:"adaptiveCurvature,omitempty"`
	CurvatureDirection CurvatureDirection `json:"curvatureDirection,omitempty" validate:"omitempty,oneof=auto clockwise counterclockwise"`
	Color              string             `json:"color,omitempty"`
	Width              float64            `json:"width,omitempty" validate:"gte=0"`
	ShowArrow          *bool              `json:"showArrow,omitempty"`
	ArrowPosition      ArrowPosition      `json:"arrowPosition,omitempty" validate:"omitempty,oneof=start end both none"`
	Relation           Relation           `json:"relation,omitempty" validate:"omitempty,relation"`
}

// Links reports whether the connection joins a and b in either direction.
func (c Connection) Links(a, b string) bool {
	return (c.SourceID == a && c.TargetID == b) || (c.SourceID == b && c.TargetID == a)
}

// Touches reports whether the connection references the node as source or target.
func (c Connection) Touches(nodeID string) bool {
	return c.SourceID == nodeID || c.TargetID == nodeID
}

// IsAdaptive reports whether the curvature follows the direction sector.
// Connections that never set the flag are adaptive.
func (c Connection) IsAdaptive() bool {
	return c.AdaptiveCurvature == nil || *c.AdaptiveCurvature
}

// ArrowVisible reports whether arrow heads should be painted.
func (c Connection) ArrowVisible() bool {
	if c.ShowArrow != nil && !*c.ShowArrow {
		return false
	}
	return c.ArrowPosition != ArrowNone
}

// WithDefaults fills the styling fields a freshly created connection is
// expected to carry.
func (c Connection) WithDefaults() Connection {
	if c.Type == "" {
		c.Type = ConnectionCurved
	}
	if c.Width == 0 {
		c.Width = DefaultConnectionWidth
	}
	if c.ShowArrow == nil {
		show := true
		c.ShowArrow = &show
	}
	if c.ArrowPosition == "" {
		c.ArrowPosition = ArrowEnd
	}
	if c.Color == "" {
		c.Color = DefaultConnectionColor
	}
	if c.Relation == "" {
		c.Relation = RelationGeneric
	}
	return c
}

// Graph is the node/connection snapshot every component exchanges.
// Later connections overlay earlier ones when painted.
type Graph struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
}

// Clone creates a deep copy of the graph.
func (g Graph) Clone() Graph {
	clone := Graph{
		Nodes:       make([]Node, len(g.Nodes)),
		Connections: make([]Connection, len(g.Connections)),
	}
	copy(clone.Nodes, g.Nodes)
	for i, conn := range g.Connections {
		clone.Connections[i] = conn.clone()
	}
	return clone
}

func (c Connection) clone() Connection {
	if c.Curvature != nil {
		v := *c.Curvature
		c.Curvature = &v
	}
	if c.AdaptiveCurvature != nil {
		v := *c.AdaptiveCurvature
		c.AdaptiveCurvature = &v
	}
	if c.ShowArrow != nil {
		v := *c.ShowArrow
		c.ShowArrow = &v
	}
	return c
}

// NodeByID returns the node with the given id.
func (g Graph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// ConnectionBetween returns the first connection joining a and b in either direction.
func (g Graph) ConnectionBetween(a, b string) (Connection, bool) {
	for _, c := range g.Connections {
		if c.Links(a, b) {
			return c, true
		}
	}
	return Connection{}, false
}

// DanglingConnections returns the connections whose source or target node is missing.
func (g Graph) DanglingConnections() []Connection {
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	var dangling []Connection
	for _, c := range g.Connections {
		if !ids[c.SourceID] || !ids[c.TargetID] {
			dangling = append(dangling, c)
		}
	}
	return dangling
}

// MindMap is the unit of persistence: a titled graph with timestamps.
type MindMap struct {
	ID          string       `json:"id" validate:"required"`
	Title       string       `json:"title"`
	Nodes       []Node       `json:"nodes" validate:"dive"`
	Connections []Connection `json:"connections" validate:"dive"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Graph returns the map's node/connection snapshot.
func (m MindMap) Graph() Graph {
	return Graph{Nodes: m.Nodes, Connections: m.Connections}.Clone()
}

// WithGraph returns a copy of the map carrying g.
func (m MindMap) WithGraph(g Graph) MindMap {
	g = g.Clone()
	m.Nodes = g.Nodes
	m.Connections = g.Connections
	return m
}
