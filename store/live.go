package store

import "mindmaps/diagram"

// SetLive records the uncommitted position of a node being dragged. Renders
// read it through Position until CommitLive or DiscardLive reconciles it.
func (s *Store) SetLive(id string, p diagram.Point) error {
	n, ok := s.Node(id)
	if !ok {
		return ErrNodeNotFound
	}
	prev, dragging := s.live[id]
	if !dragging {
		prev = n.Position()
	}
	s.live[id] = diagram.SanitizePoint(p, prev)
	return nil
}

// Live returns the uncommitted position of a node, if it is being dragged.
func (s *Store) Live(id string) (diagram.Point, bool) {
	p, ok := s.live[id]
	return p, ok
}

// Position returns where a node is drawn: its live position while dragged,
// otherwise the committed one.
func (s *Store) Position(n diagram.Node) diagram.Point {
	if p, ok := s.live[n.ID]; ok {
		return p
	}
	return n.Position()
}

// CommitLive moves the node to its live position and ends the drag.
// It reports whether there was a live position to commit.
func (s *Store) CommitLive(id string) (diagram.Point, bool) {
	p, ok := s.live[id]
	if !ok {
		return diagram.Point{}, false
	}
	if err := s.MoveNode(id, p); err != nil {
		delete(s.live, id)
		return diagram.Point{}, false
	}
	return p, true
}

// DiscardLive drops the live position, leaving the committed one in place.
func (s *Store) DiscardLive(id string) {
	delete(s.live, id)
}
