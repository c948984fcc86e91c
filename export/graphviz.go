package export

import (
	"fmt"
	"strings"

	"mindmaps/diagram"
)

// GraphvizExporter exports mind maps to Graphviz DOT syntax
type GraphvizExporter struct{}

// NewGraphvizExporter creates a new Graphviz exporter
func NewGraphvizExporter() *GraphvizExporter {
	return &GraphvizExporter{}
}

// Export converts the mind map to Graphviz DOT syntax. Node positions are
// pinned so neato reproduces the canvas layout.
func (e *GraphvizExporter) Export(m *diagram.MindMap) (string, error) {
	if err := checkMap(m); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("digraph G {\n")
	if m.Title != "" {
		sb.WriteString(fmt.Sprintf("  label=\"%s\";\n", e.escapeLabel(m.Title)))
	}
	sb.WriteString("  node [shape=box, style=rounded];\n")
	sb.WriteString("  edge [arrowhead=normal];\n\n")

	ids := shortIDs(m)
	for _, node := range m.Nodes {
		sb.WriteString(fmt.Sprintf("  %s [%s];\n", ids[node.ID], strings.Join(e.nodeAttributes(node), ", ")))
	}

	conns := renderable(m)
	if len(conns) > 0 {
		sb.WriteString("\n")
	}
	for _, conn := range conns {
		attributes := e.edgeAttributes(conn)
		if len(attributes) > 0 {
			sb.WriteString(fmt.Sprintf("  %s -> %s [%s];\n", ids[conn.SourceID], ids[conn.TargetID], strings.Join(attributes, ", ")))
		} else {
			sb.WriteString(fmt.Sprintf("  %s -> %s;\n", ids[conn.SourceID], ids[conn.TargetID]))
		}
	}

	sb.WriteString("}\n")
	return sb.String(), nil
}

func (e *GraphvizExporter) nodeAttributes(node diagram.Node) []string {
	// DOT's y axis points up; points are 1/72 inch, close enough to pixels.
	y := -node.Y
	if y == 0 {
		y = 0 // no "-0"
	}
	attrs := []string{
		fmt.Sprintf("label=\"%s\"", e.escapeLabel(label(node))),
		fmt.Sprintf("pos=\"%g,%g!\"", node.X, y),
	}
	if node.Color != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=\"%s\"", node.Color), "style=\"rounded,filled\"")
	}
	if node.BorderColor != "" {
		attrs = append(attrs, fmt.Sprintf("color=\"%s\"", node.BorderColor))
	}
	return attrs
}

func (e *GraphvizExporter) edgeAttributes(conn diagram.Connection) []string {
	var attrs []string
	if rel := relationLabel(conn); rel != "" {
		attrs = append(attrs, fmt.Sprintf("label=\"%s\"", rel))
	}
	switch {
	case !conn.ArrowVisible():
		attrs = append(attrs, "dir=none")
	case conn.ArrowPosition == diagram.ArrowStart:
		attrs = append(attrs, "dir=back")
	case conn.ArrowPosition == diagram.ArrowBoth:
		attrs = append(attrs, "dir=both")
	}
	if conn.Color != "" {
		attrs = append(attrs, fmt.Sprintf("color=\"%s\"", conn.Color))
	}
	if conn.Width > 0 && conn.Width != diagram.DefaultConnectionWidth {
		attrs = append(attrs, fmt.Sprintf("penwidth=%g", conn.Width))
	}
	return attrs
}

// escapeLabel escapes special characters in DOT labels
func (e *GraphvizExporter) escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return strings.ReplaceAll(s, "\n", "\\n")
}

// GetFileExtension returns the file extension for Graphviz
func (e *GraphvizExporter) GetFileExtension() string {
	return ".dot"
}

// GetFormatName returns the format name
func (e *GraphvizExporter) GetFormatName() string {
	return "Graphviz"
}
