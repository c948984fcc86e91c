package validation

import (
	"math"
	"strings"
	"testing"

	"mindmaps/diagram"
)

func kinds(issues []ValidationError) []Kind {
	out := make([]Kind, len(issues))
	for i, e := range issues {
		out[i] = e.Kind
	}
	return out
}

func TestGraphValidator_Issues(t *testing.T) {
	tests := []struct {
		name  string
		graph diagram.Graph
		want  []Kind
	}{
		{
			name: "clean graph",
			graph: diagram.Graph{
				Nodes:       []diagram.Node{{ID: "1"}, {ID: "2"}},
				Connections: []diagram.Connection{{ID: "c", SourceID: "1", TargetID: "2"}},
			},
			want: nil,
		},
		{
			name:  "duplicate node id",
			graph: diagram.Graph{Nodes: []diagram.Node{{ID: "1"}, {ID: "1"}}},
			want:  []Kind{DuplicateNodeID},
		},
		{
			name:  "missing node id",
			graph: diagram.Graph{Nodes: []diagram.Node{{Title: "sin id"}}},
			want:  []Kind{MissingID},
		},
		{
			name:  "non-finite coordinate",
			graph: diagram.Graph{Nodes: []diagram.Node{{ID: "1", X: math.NaN()}}},
			want:  []Kind{NonFiniteCoordinate},
		},
		{
			name: "self connection",
			graph: diagram.Graph{
				Nodes:       []diagram.Node{{ID: "1"}},
				Connections: []diagram.Connection{{ID: "c", SourceID: "1", TargetID: "1"}},
			},
			want: []Kind{SelfConnection},
		},
		{
			name: "dangling connection",
			graph: diagram.Graph{
				Nodes:       []diagram.Node{{ID: "1"}},
				Connections: []diagram.Connection{{ID: "c", SourceID: "1", TargetID: "9"}},
			},
			want: []Kind{DanglingConnection},
		},
		{
			name: "reversed duplicate pair",
			graph: diagram.Graph{
				Nodes: []diagram.Node{{ID: "1"}, {ID: "2"}},
				Connections: []diagram.Connection{
					{ID: "a", SourceID: "1", TargetID: "2"},
					{ID: "b", SourceID: "2", TargetID: "1"},
				},
			},
			want: []Kind{DuplicatePair},
		},
		{
			name: "duplicate connection id and bad relation",
			graph: diagram.Graph{
				Nodes: []diagram.Node{{ID: "1"}, {ID: "2"}, {ID: "3"}},
				Connections: []diagram.Connection{
					{ID: "a", SourceID: "1", TargetID: "2"},
					{ID: "a", SourceID: "2", TargetID: "3", Relation: "amistad"},
				},
			},
			want: []Kind{DuplicateConnectionID, InvalidField},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewGraphValidator()
			got := kinds(v.Validate(tt.graph))
			if len(got) != len(tt.want) {
				t.Fatalf("Validate() kinds = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("issue %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGraphValidator_StrictMode(t *testing.T) {
	g := diagram.Graph{
		Nodes:       []diagram.Node{{ID: "1"}},
		Connections: []diagram.Connection{{ID: "c", SourceID: "1", TargetID: "9"}},
	}

	v := NewGraphValidator()
	if HasErrors(v.Validate(g)) {
		t.Errorf("dangling connections should only warn by default")
	}

	v.SetStrictMode(true)
	issues := v.Validate(g)
	if !HasErrors(issues) {
		t.Errorf("strict mode should promote dangling connections to errors")
	}
	if !strings.Contains(issues[0].String(), "error [dangling-connection] c") {
		t.Errorf("unexpected formatting: %s", issues[0])
	}
}

func TestRepair(t *testing.T) {
	n := 0
	gen := func() string {
		n++
		return "gen-" + string(rune('0'+n))
	}
	g := diagram.Graph{
		Nodes: []diagram.Node{
			{ID: "1", X: math.Inf(1)},
			{ID: "1"},
			{ID: "2"},
		},
		Connections: []diagram.Connection{
			{ID: "a", SourceID: "1", TargetID: "2"},
			{ID: "b", SourceID: "2", TargetID: "1"},
			{ID: "c", SourceID: "2", TargetID: "2"},
			{ID: "d", SourceID: "2", TargetID: "ghost"},
		},
	}

	out := Repair(g, gen)

	if out.Nodes[0].X != 0 {
		t.Errorf("Expected infinite x to be sanitized, got %v", out.Nodes[0].X)
	}
	if out.Nodes[1].ID != "gen-1" {
		t.Errorf("Expected duplicate node to be re-keyed, got %q", out.Nodes[1].ID)
	}
	if len(out.Connections) != 2 || out.Connections[0].ID != "a" || out.Connections[1].ID != "d" {
		t.Errorf("Expected connections a and d to survive, got %+v", out.Connections)
	}
	if len(g.Connections) != 4 || !math.IsInf(g.Nodes[0].X, 1) {
		t.Errorf("Repair mutated its input")
	}

	if issues := NewGraphValidator().Validate(out); HasErrors(issues) {
		t.Errorf("repaired graph still has errors: %v", issues)
	}
}
