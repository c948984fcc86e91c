package importer

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmaps/diagram"
	"mindmaps/export"
)

var importedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestRegistry() *Registry {
	n := 0
	return NewRegistry(
		WithIDGenerator(func() string {
			n++
			return "id-" + strconv.Itoa(n)
		}),
		WithClock(func() time.Time { return importedAt }),
	)
}

func byTitle(t *testing.T, m *diagram.MindMap, title string) diagram.Node {
	t.Helper()
	for _, n := range m.Nodes {
		if n.Title == title {
			return n
		}
	}
	t.Fatalf("no node titled %q in %+v", title, m.Nodes)
	return diagram.Node{}
}

func linking(t *testing.T, m *diagram.MindMap, a, b diagram.Node) diagram.Connection {
	t.Helper()
	for _, c := range m.Connections {
		if c.SourceID == a.ID && c.TargetID == b.ID {
			return c
		}
	}
	t.Fatalf("no connection %s -> %s", a.Title, b.Title)
	return diagram.Connection{}
}

func TestJSONRoundTrip(t *testing.T) {
	original := &diagram.MindMap{
		ID:    "map-1",
		Title: "Biología",
		Nodes: []diagram.Node{
			{ID: "1", Title: "Célula", X: -120, Y: 40, Color: "#FEF3C7"},
			{ID: "2", Title: "Núcleo", X: 200, Y: 80},
		},
		Connections: []diagram.Connection{
			diagram.Connection{ID: "k", SourceID: "1", TargetID: "2", Relation: diagram.RelationPartOf}.WithDefaults(),
		},
	}
	data, err := export.NewJSONExporter().Export(original)
	require.NoError(t, err)

	m, err := newTestRegistry().Import(data)
	require.NoError(t, err)

	assert.NotEqual(t, "map-1", m.ID)
	assert.Equal(t, "Biología (importado)", m.Title)
	assert.Equal(t, importedAt, m.CreatedAt)
	require.Len(t, m.Nodes, 2)
	require.Len(t, m.Connections, 1)

	cell := byTitle(t, m, "Célula")
	nucleus := byTitle(t, m, "Núcleo")
	assert.Equal(t, diagram.Point{X: -120, Y: 40}, cell.Position())
	assert.Equal(t, "#FEF3C7", cell.Color)
	assert.Equal(t, diagram.RelationPartOf, linking(t, m, cell, nucleus).Relation)
	assert.NotEqual(t, "1", cell.ID)
}

func TestJSONToleratesComments(t *testing.T) {
	content := `{
		// exported by hand
		"version": "1.0",
		"mindMap": {"id": "x", "title": "t", "nodes": [{"id": "a", "title": "A", "x": 1, "y": 2},], "connections": []},
	}`

	m, err := newTestRegistry().Import(content)
	require.NoError(t, err)
	assert.Len(t, m.Nodes, 1)
}

func TestJSONRejectsForeignVersion(t *testing.T) {
	for _, version := range []string{"2.0", "", "0.9"} {
		t.Run(version, func(t *testing.T) {
			content := `{"version": "` + version + `", "mindMap": {"id": "x", "title": "t", "nodes": [], "connections": []}}`
			_, err := newTestRegistry().Import(content)
			if !errors.Is(err, ErrUnsupportedVersion) {
				t.Errorf("Expected ErrUnsupportedVersion, got %v", err)
			}
		})
	}
}

func TestJSONDropsBrokenConnections(t *testing.T) {
	content := `{"version": "1.0", "mindMap": {"id": "x", "title": "t",
		"nodes": [{"id": "a", "title": "A", "x": 0, "y": 0}, {"id": "b", "title": "B", "x": 300, "y": 0}],
		"connections": [
			{"id": "1", "sourceId": "a", "targetId": "b"},
			{"id": "2", "sourceId": "b", "targetId": "a"},
			{"id": "3", "sourceId": "a", "targetId": "ghost"}
		]}}`

	m, err := newTestRegistry().Import(content)
	require.NoError(t, err)
	require.Len(t, m.Connections, 1)
	assert.Equal(t, diagram.ConnectionCurved, m.Connections[0].Type)
}

func TestMermaidImport(t *testing.T) {
	content := `---
title: Ideas
---
flowchart LR
    %% comment
    n0["Raíz"]
    n1["Dice #quot;hola#quot;"]
    n2(Hoja)
    n0 -->|causa| n1
    n0 --- n2
    n1 <--> n2
    n2 --> n3
    style n0 fill:#FEF3C7,stroke:#F59E0B
`

	m, err := newTestRegistry().Import(content)
	require.NoError(t, err)

	assert.Equal(t, "Ideas (importado)", m.Title)
	require.Len(t, m.Nodes, 4)
	require.Len(t, m.Connections, 4)

	root := byTitle(t, m, "Raíz")
	quoted := byTitle(t, m, `Dice "hola"`)
	leaf := byTitle(t, m, "Hoja")
	bare := byTitle(t, m, "n3")

	assert.Equal(t, "#FEF3C7", root.Color)
	assert.Equal(t, "#F59E0B", root.BorderColor)
	assert.Equal(t, diagram.RelationCause, linking(t, m, root, quoted).Relation)
	assert.False(t, linking(t, m, root, leaf).ArrowVisible())
	assert.Equal(t, diagram.ArrowBoth, linking(t, m, quoted, leaf).ArrowPosition)
	assert.Equal(t, diagram.RelationGeneric, linking(t, m, leaf, bare).Relation)

	seen := map[diagram.Point]bool{}
	for _, n := range m.Nodes {
		assert.False(t, seen[n.Position()], "nodes overlap at %v", n.Position())
		seen[n.Position()] = true
	}
}

func TestMermaidChainsAndInlineLabels(t *testing.T) {
	content := "graph TD\n  A -- ejemplo --> B --> C\n  C --> A\n"

	m, err := newTestRegistry().ImportWithFormat(content, "mermaid")
	require.NoError(t, err)
	require.Len(t, m.Nodes, 3)
	require.Len(t, m.Connections, 3)

	a, b := byTitle(t, m, "A"), byTitle(t, m, "B")
	assert.Equal(t, diagram.RelationExample, linking(t, m, a, b).Relation)
	assert.Equal(t, "Mapa (importado)", m.Title)
}

func TestMermaidWithoutNodes(t *testing.T) {
	_, err := newTestRegistry().Import("flowchart LR\n")
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}

func TestGraphvizImport(t *testing.T) {
	content := `digraph G {
  label="Plan";
  node [shape=box, style=rounded];
  a [label="Inicio", pos="0,100!", fillcolor="#DBEAFE"];
  b [label="Fin"];
  a -> b [label="consecuencia", dir=both, penwidth=3];
  b -> c;
  c -> a [dir=none];
}
`

	m, err := newTestRegistry().Import(content)
	require.NoError(t, err)

	assert.Equal(t, "Plan (importado)", m.Title)
	require.Len(t, m.Nodes, 3)

	start := byTitle(t, m, "Inicio")
	end := byTitle(t, m, "Fin")
	c := byTitle(t, m, "c")
	assert.Equal(t, diagram.Point{X: 0, Y: -100}, start.Position())
	assert.Equal(t, "#DBEAFE", start.Color)

	first := linking(t, m, start, end)
	assert.Equal(t, diagram.RelationConsequence, first.Relation)
	assert.Equal(t, diagram.ArrowBoth, first.ArrowPosition)
	assert.Equal(t, 3.0, first.Width)
	assert.False(t, linking(t, m, c, start).ArrowVisible())
	assert.NotEqual(t, start.Position(), end.Position())
}

func TestGraphvizUndirected(t *testing.T) {
	content := "graph {\n  \"x y\" -- z;\n}\n"

	m, err := newTestRegistry().ImportWithFormat(content, "dot")
	require.NoError(t, err)

	xy, z := byTitle(t, m, "x y"), byTitle(t, m, "z")
	assert.False(t, linking(t, m, xy, z).ArrowVisible())
}

func TestGraphvizRoundTripKeepsPositions(t *testing.T) {
	original := &diagram.MindMap{
		ID:    "m",
		Title: "Mapa",
		Nodes: []diagram.Node{
			{ID: "1", Title: "Uno", X: -50, Y: 0},
			{ID: "2", Title: "Dos", X: 250, Y: 120},
		},
		Connections: []diagram.Connection{
			diagram.Connection{ID: "k", SourceID: "1", TargetID: "2"}.WithDefaults(),
		},
	}
	dot, err := export.NewGraphvizExporter().Export(original)
	require.NoError(t, err)

	m, err := newTestRegistry().Import(dot)
	require.NoError(t, err)

	assert.Equal(t, diagram.Point{X: -50, Y: 0}, byTitle(t, m, "Uno").Position())
	assert.Equal(t, diagram.Point{X: 250, Y: 120}, byTitle(t, m, "Dos").Position())
	assert.Len(t, m.Connections, 1)
}

func TestDetectFormat(t *testing.T) {
	r := newTestRegistry()
	tests := []struct {
		content string
		want    string
	}{
		{`{"version": "1.0", "mindMap": {}}`, "JSON"},
		{"flowchart LR\n a --> b", "Mermaid"},
		{"graph TD\n a --> b", "Mermaid"},
		{"digraph G {\n a -> b;\n}", "Graphviz"},
	}
	for _, tt := range tests {
		imp, err := r.DetectFormat(tt.content)
		if err != nil {
			t.Errorf("DetectFormat(%q) failed: %v", tt.content, err)
			continue
		}
		if imp.GetFormatName() != tt.want {
			t.Errorf("DetectFormat(%q) = %s, want %s", tt.content, imp.GetFormatName(), tt.want)
		}
	}

	if _, err := r.Import("hello world"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
	if _, err := r.ImportWithFormat("x", "visio"); err == nil {
		t.Errorf("Expected error for unknown format")
	}
}
