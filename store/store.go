// Package store holds the graph being edited. It is the single owner of
// mutation: gestures and patch application change the graph only through it.
package store

import (
	"errors"
	"fmt"
	"slices"

	"mindmaps/diagram"

	"go.uber.org/zap"
)

var (
	ErrNodeNotFound        = errors.New("node not found")
	ErrConnectionNotFound  = errors.New("connection not found")
	ErrDuplicateID         = errors.New("id already in use")
	ErrSelfConnection      = errors.New("connection source equals target")
	ErrDuplicateConnection = errors.New("nodes are already connected")
)

// Store keeps ordered nodes and connections with lookup by id.
// It is not safe for concurrent use; the engine drives it from one goroutine.
type Store struct {
	nodes       []diagram.Node
	connections []diagram.Connection
	nodeIndex   map[string]int
	connIndex   map[string]int

	// Uncommitted positions of nodes being dragged.
	live map[string]diagram.Point

	version uint64
	logger  *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a logger for mutation tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		nodeIndex: make(map[string]int),
		connIndex: make(map[string]int),
		live:      make(map[string]diagram.Point),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Version increases on every mutation.
func (s *Store) Version() uint64 {
	return s.version
}

// Snapshot returns a deep copy of the committed graph.
func (s *Store) Snapshot() diagram.Graph {
	return diagram.Graph{Nodes: s.nodes, Connections: s.connections}.Clone()
}

// Replace swaps the whole graph atomically. Coordinates are sanitized and
// missing or duplicated ids regenerated; live drag positions are dropped.
func (s *Store) Replace(g diagram.Graph) {
	g = g.Sanitize()
	diagram.EnsureUniqueIDs(&g, nil)
	s.nodes = g.Nodes
	s.connections = g.Connections
	s.live = make(map[string]diagram.Point)
	s.reindex()
	s.touch()
	s.logger.Debug("graph replaced",
		zap.Int("nodes", len(s.nodes)),
		zap.Int("connections", len(s.connections)),
	)
}

func (s *Store) reindex() {
	s.nodeIndex = make(map[string]int, len(s.nodes))
	for i, n := range s.nodes {
		s.nodeIndex[n.ID] = i
	}
	s.connIndex = make(map[string]int, len(s.connections))
	for i, c := range s.connections {
		s.connIndex[c.ID] = i
	}
}

func (s *Store) touch() {
	s.version++
}

// Nodes returns a copy of the nodes in order.
func (s *Store) Nodes() []diagram.Node {
	return slices.Clone(s.nodes)
}

// Connections returns a copy of the connections in order.
func (s *Store) Connections() []diagram.Connection {
	return diagram.Graph{Connections: s.connections}.Clone().Connections
}

// Node returns the node with the given id.
func (s *Store) Node(id string) (diagram.Node, bool) {
	i, ok := s.nodeIndex[id]
	if !ok {
		return diagram.Node{}, false
	}
	return s.nodes[i], true
}

// Connection returns the connection with the given id.
func (s *Store) Connection(id string) (diagram.Connection, bool) {
	i, ok := s.connIndex[id]
	if !ok {
		return diagram.Connection{}, false
	}
	return s.connections[i], true
}

// Connected reports whether a and b are joined in either direction.
func (s *Store) Connected(a, b string) bool {
	for _, c := range s.connections {
		if c.Links(a, b) {
			return true
		}
	}
	return false
}

// AddNode appends a node, generating an id when it has none. Its position is
// sanitized before storing.
func (s *Store) AddNode(n diagram.Node) (diagram.Node, error) {
	if n.ID == "" {
		n.ID = diagram.NewID()
	}
	if _, exists := s.nodeIndex[n.ID]; exists {
		return diagram.Node{}, fmt.Errorf("add node %s: %w", n.ID, ErrDuplicateID)
	}
	p := diagram.SanitizePoint(n.Position(), diagram.Point{})
	n.X, n.Y = p.X, p.Y

	s.nodes = append(s.nodes, n)
	s.nodeIndex[n.ID] = len(s.nodes) - 1
	s.touch()
	s.logger.Debug("node added", zap.String("id", n.ID), zap.Float64("x", n.X), zap.Float64("y", n.Y))
	return n, nil
}

// UpdateNodeTitle sets a node's title.
func (s *Store) UpdateNodeTitle(id, title string) error {
	i, ok := s.nodeIndex[id]
	if !ok {
		return fmt.Errorf("update title %s: %w", id, ErrNodeNotFound)
	}
	s.nodes[i].Title = title
	s.touch()
	return nil
}

// MoveNode commits a node's world position. Non-finite coordinates keep the
// previous value.
func (s *Store) MoveNode(id string, p diagram.Point) error {
	i, ok := s.nodeIndex[id]
	if !ok {
		return fmt.Errorf("move node %s: %w", id, ErrNodeNotFound)
	}
	p = diagram.SanitizePoint(p, s.nodes[i].Position())
	s.nodes[i].X, s.nodes[i].Y = p.X, p.Y
	delete(s.live, id)
	s.touch()
	return nil
}

// DeleteNode removes a node and every connection that references it.
// The removed connections are returned in their original order.
func (s *Store) DeleteNode(id string) ([]diagram.Connection, error) {
	i, ok := s.nodeIndex[id]
	if !ok {
		return nil, fmt.Errorf("delete node %s: %w", id, ErrNodeNotFound)
	}
	s.nodes = slices.Delete(s.nodes, i, i+1)
	delete(s.live, id)

	var removed []diagram.Connection
	kept := s.connections[:0:0]
	for _, c := range s.connections {
		if c.Touches(id) {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	s.connections = kept
	s.reindex()
	s.touch()
	s.logger.Debug("node deleted", zap.String("id", id), zap.Int("cascaded", len(removed)))
	return removed, nil
}

// AddConnection appends a connection between two existing nodes. Self
// connections and a second connection between the same pair, in either
// direction, are rejected. Missing styling fields get their defaults.
func (s *Store) AddConnection(c diagram.Connection) (diagram.Connection, error) {
	if c.SourceID == c.TargetID {
		return diagram.Connection{}, ErrSelfConnection
	}
	if _, ok := s.nodeIndex[c.SourceID]; !ok {
		return diagram.Connection{}, fmt.Errorf("connect from %s: %w", c.SourceID, ErrNodeNotFound)
	}
	if _, ok := s.nodeIndex[c.TargetID]; !ok {
		return diagram.Connection{}, fmt.Errorf("connect to %s: %w", c.TargetID, ErrNodeNotFound)
	}
	if s.Connected(c.SourceID, c.TargetID) {
		return diagram.Connection{}, ErrDuplicateConnection
	}
	if c.ID == "" {
		c.ID = diagram.NewID()
	}
	if _, exists := s.connIndex[c.ID]; exists {
		return diagram.Connection{}, fmt.Errorf("add connection %s: %w", c.ID, ErrDuplicateID)
	}

	c = c.WithDefaults()
	s.connections = append(s.connections, c)
	s.connIndex[c.ID] = len(s.connections) - 1
	s.touch()
	s.logger.Debug("connection added",
		zap.String("id", c.ID),
		zap.String("source", c.SourceID),
		zap.String("target", c.TargetID),
	)
	return c, nil
}

// DeleteConnection removes a connection by id.
func (s *Store) DeleteConnection(id string) error {
	i, ok := s.connIndex[id]
	if !ok {
		return fmt.Errorf("delete connection %s: %w", id, ErrConnectionNotFound)
	}
	s.connections = slices.Delete(s.connections, i, i+1)
	s.reindex()
	s.touch()
	return nil
}
