// Package proposal carries graph edits proposed by an external assistant.
//
// The assistant receives the instruction and a trimmed snapshot of the graph
// and answers with patch operations and a summary. New nodes in the answer
// use temporary "tmp-" ids and may omit coordinates; nothing is applied until
// the user approves the Review built from the answer.
package proposal

import (
	"context"
	"errors"

	"mindmaps/diagram"
	"mindmaps/patch"
)

// ErrUnavailable is returned when the assistant cannot be reached.
var ErrUnavailable = errors.New("proposal service unavailable")

// SnapshotNode is the part of a node the assistant sees.
type SnapshotNode struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// SnapshotConnection is the part of a connection the assistant sees.
type SnapshotConnection struct {
	ID       string           `json:"id"`
	SourceID string           `json:"sourceId"`
	TargetID string           `json:"targetId"`
	Relation diagram.Relation `json:"relation,omitempty"`
}

// Snapshot is the graph as sent to the assistant.
type Snapshot struct {
	Nodes       []SnapshotNode       `json:"nodes"`
	Connections []SnapshotConnection `json:"connections"`
}

// Request asks the assistant for a proposal.
type Request struct {
	Instruction string   `json:"instruction" validate:"required"`
	Snapshot    Snapshot `json:"snapshot"`
	Selection   []string `json:"selection,omitempty"`
}

// Response is the assistant's answer.
type Response struct {
	Patch   []patch.Operation `json:"patch" validate:"dive"`
	Summary string            `json:"summary"`
}

// Proposer obtains proposals.
type Proposer interface {
	Propose(ctx context.Context, req Request) (*Response, error)
}

// NewRequest builds a request from the current graph.
func NewRequest(instruction string, g diagram.Graph, selection ...string) Request {
	snap := Snapshot{
		Nodes:       make([]SnapshotNode, 0, len(g.Nodes)),
		Connections: make([]SnapshotConnection, 0, len(g.Connections)),
	}
	for _, n := range g.Nodes {
		snap.Nodes = append(snap.Nodes, SnapshotNode{ID: n.ID, Title: n.Title, X: n.X, Y: n.Y})
	}
	for _, c := range g.Connections {
		snap.Connections = append(snap.Connections, SnapshotConnection{
			ID:       c.ID,
			SourceID: c.SourceID,
			TargetID: c.TargetID,
			Relation: c.Relation,
		})
	}
	return Request{Instruction: instruction, Snapshot: snap, Selection: selection}
}
