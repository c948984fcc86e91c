package importer

import (
	"strconv"
	"strings"

	"mindmaps/diagram"
)

// builder accumulates the nodes and connections of a text diagram, keyed by
// the identifiers the diagram uses.
type builder struct {
	graph  diagram.Graph
	index  map[string]int
	placed map[string]bool
}

func newBuilder() *builder {
	return &builder{
		index:  make(map[string]int),
		placed: make(map[string]bool),
	}
}

// ensure returns the index of the node named id, creating it with id as its
// title when it does not exist yet.
func (b *builder) ensure(id string) int {
	if i, ok := b.index[id]; ok {
		return i
	}
	b.graph.Nodes = append(b.graph.Nodes, diagram.Node{ID: id, Title: id})
	b.index[id] = len(b.graph.Nodes) - 1
	return b.index[id]
}

func (b *builder) setTitle(id, title string) {
	i := b.ensure(id)
	if title = strings.TrimSpace(title); title != "" {
		b.graph.Nodes[i].Title = title
	}
}

func (b *builder) setPosition(id string, p diagram.Point) {
	i := b.ensure(id)
	b.graph.Nodes[i].X, b.graph.Nodes[i].Y = p.X, p.Y
	b.placed[id] = true
}

func (b *builder) connect(c diagram.Connection) {
	b.ensure(c.SourceID)
	b.ensure(c.TargetID)
	c.ID = "c" + strconv.Itoa(len(b.graph.Connections))
	b.graph.Connections = append(b.graph.Connections, c)
}

func (b *builder) parsed(title string) (*Parsed, error) {
	if len(b.graph.Nodes) == 0 {
		return nil, ErrEmpty
	}
	var unplaced []string
	for _, n := range b.graph.Nodes {
		if !b.placed[n.ID] {
			unplaced = append(unplaced, n.ID)
		}
	}
	return &Parsed{Title: title, Graph: b.graph, Unplaced: unplaced}, nil
}

// relation maps an edge label to a relation, falling back to generico.
func relation(text string) diagram.Relation {
	r := diagram.Relation(strings.ToLower(strings.TrimSpace(text)))
	if diagram.IsRelation(r) {
		return r
	}
	return diagram.RelationGeneric
}

func boolPtr(v bool) *bool {
	return &v
}
