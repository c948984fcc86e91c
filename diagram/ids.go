package diagram

import (
	"strings"

	"github.com/google/uuid"
)

// TempIDPrefix marks ids proposed by an external collaborator that the
// client must replace with permanent ones once the proposal is approved.
const TempIDPrefix = "tmp-"

// NewID returns a fresh permanent identifier.
func NewID() string {
	return uuid.NewString()
}

// NewTempID returns a fresh temporary identifier.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTempID reports whether id carries the temporary prefix.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// IDGenerator produces identifiers for nodes and connections.
type IDGenerator func() string

// EnsureUniqueIDs gives every node and connection a non-empty, unique id.
// Connections referencing a renamed node are not rewritten: a duplicated node
// id is ambiguous, so the first occurrence keeps it.
func EnsureUniqueIDs(g *Graph, gen IDGenerator) {
	if g == nil {
		return
	}
	if gen == nil {
		gen = NewID
	}

	seen := make(map[string]bool, len(g.Nodes))
	for i := range g.Nodes {
		id := g.Nodes[i].ID
		if id == "" || seen[id] {
			id = gen()
			g.Nodes[i].ID = id
		}
		seen[id] = true
	}

	seen = make(map[string]bool, len(g.Connections))
	for i := range g.Connections {
		id := g.Connections[i].ID
		if id == "" || seen[id] {
			id = gen()
			g.Connections[i].ID = id
		}
		seen[id] = true
	}
}
