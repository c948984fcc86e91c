package importer

import (
	"regexp"
	"strconv"
	"strings"

	"mindmaps/diagram"
)

var (
	// Pattern: A -> B [attr1=val1, attr2="val2"];
	dotEdge = regexp.MustCompile(`^("(?:[^"\\]|\\.)*"|[\w.]+)\s*(->|--)\s*("(?:[^"\\]|\\.)*"|[\w.]+)\s*(?:\[(.*)\])?\s*;?$`)
	// Pattern: A [attr1=val1, attr2="val2"];
	dotNode = regexp.MustCompile(`^("(?:[^"\\]|\\.)*"|[\w.]+)\s*\[(.*)\]\s*;?$`)
	// Pattern: label="Title";
	dotLabel = regexp.MustCompile(`^label\s*=\s*"((?:[^"\\]|\\.)*)"\s*;?$`)
	dotAttr  = regexp.MustCompile(`(\w+)\s*=\s*(?:"((?:[^"\\]|\\.)*)"|([^,;\s\]]+))`)
)

// GraphvizImporter imports Graphviz DOT format
type GraphvizImporter struct{}

// NewGraphvizImporter creates a new Graphviz importer
func NewGraphvizImporter() *GraphvizImporter {
	return &GraphvizImporter{}
}

// CanImport checks if the content is a Graphviz DOT diagram
func (g *GraphvizImporter) CanImport(content string) bool {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "strict ")
	return strings.HasPrefix(content, "digraph") ||
		strings.HasPrefix(content, "graph") && strings.Contains(content, "{")
}

// Import converts Graphviz DOT content. Nodes with a pos attribute keep it
// (y flipped back to screen orientation); the rest are left for layout.
func (g *GraphvizImporter) Import(content string) (*Parsed, error) {
	b := newBuilder()
	title := ""
	depth := 0

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}

		// Graph declaration, subgraphs and closing braces
		if strings.HasPrefix(line, "digraph") || strings.HasPrefix(line, "strict") ||
			strings.HasPrefix(line, "graph") && !strings.HasPrefix(line, "graph [") ||
			strings.HasPrefix(line, "subgraph") || line == "{" {
			depth++
			continue
		}
		if line == "}" {
			depth--
			continue
		}

		// Global attributes
		if strings.HasPrefix(line, "node ") || strings.HasPrefix(line, "node[") ||
			strings.HasPrefix(line, "edge ") || strings.HasPrefix(line, "edge[") ||
			strings.HasPrefix(line, "graph [") || strings.HasPrefix(line, "rankdir") {
			continue
		}

		if match := dotLabel.FindStringSubmatch(line); match != nil {
			// Only the outermost graph's label names the map.
			if depth <= 1 {
				title = g.unescape(match[1])
			}
			continue
		}

		if match := dotEdge.FindStringSubmatch(line); match != nil {
			g.edge(b, g.name(match[1]), match[2], g.name(match[3]), g.parseAttributes(match[4]))
			continue
		}

		if match := dotNode.FindStringSubmatch(line); match != nil {
			g.node(b, g.name(match[1]), g.parseAttributes(match[2]))
		}
	}

	return b.parsed(title)
}

func (g *GraphvizImporter) node(b *builder, id string, attrs map[string]string) {
	i := b.ensure(id)
	if label, ok := attrs["label"]; ok {
		b.setTitle(id, label)
	}
	if pos, ok := attrs["pos"]; ok {
		if p, ok := g.parsePos(pos); ok {
			b.setPosition(id, p)
		}
	}
	if fill, ok := attrs["fillcolor"]; ok {
		b.graph.Nodes[i].Color = fill
	}
	if color, ok := attrs["color"]; ok {
		b.graph.Nodes[i].BorderColor = color
	}
}

func (g *GraphvizImporter) edge(b *builder, from, op, to string, attrs map[string]string) {
	if from == to {
		b.ensure(from)
		return
	}
	conn := diagram.Connection{
		SourceID: from,
		TargetID: to,
		Relation: relation(attrs["label"]),
		Color:    attrs["color"],
	}
	dir, ok := attrs["dir"]
	if !ok && op == "--" {
		dir = "none"
	}
	switch dir {
	case "none":
		conn.ShowArrow = boolPtr(false)
	case "back":
		conn.ArrowPosition = diagram.ArrowStart
	case "both":
		conn.ArrowPosition = diagram.ArrowBoth
	}
	if w, err := strconv.ParseFloat(attrs["penwidth"], 64); err == nil && w > 0 && diagram.IsFinite(w) {
		conn.Width = w
	}
	b.connect(conn)
}

// parsePos reads "x,y" or "x,y!" in DOT's y-up orientation.
func (g *GraphvizImporter) parsePos(pos string) (diagram.Point, bool) {
	xs, ys, ok := strings.Cut(strings.TrimSuffix(strings.TrimSpace(pos), "!"), ",")
	if !ok {
		return diagram.Point{}, false
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return diagram.Point{}, false
	}
	p := diagram.Point{X: x, Y: -y}
	if p.Y == 0 {
		p.Y = 0
	}
	return p, true
}

// parseAttributes parses DOT attribute string into a map
func (g *GraphvizImporter) parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)
	for _, match := range dotAttr.FindAllStringSubmatch(attrStr, -1) {
		value := match[3]
		if value == "" {
			value = g.unescape(match[2])
		}
		attrs[strings.ToLower(match[1])] = value
	}
	return attrs
}

func (g *GraphvizImporter) name(raw string) string {
	if len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) {
		return g.unescape(raw[1 : len(raw)-1])
	}
	return raw
}

func (g *GraphvizImporter) unescape(s string) string {
	r := strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\l`, "\n", `\r`, "\n")
	return r.Replace(s)
}

// GetFormatName returns the format name
func (g *GraphvizImporter) GetFormatName() string {
	return "Graphviz"
}

// GetFileExtensions returns common file extensions
func (g *GraphvizImporter) GetFileExtensions() []string {
	return []string{".dot", ".gv"}
}
