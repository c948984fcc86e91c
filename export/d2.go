package export

import (
	"fmt"
	"strings"

	"mindmaps/diagram"
)

// D2Exporter exports mind maps to D2 syntax
type D2Exporter struct{}

// NewD2Exporter creates a new D2 exporter
func NewD2Exporter() *D2Exporter {
	return &D2Exporter{}
}

// Export converts the mind map to D2 syntax
func (e *D2Exporter) Export(m *diagram.MindMap) (string, error) {
	if err := checkMap(m); err != nil {
		return "", err
	}

	var sb strings.Builder
	if m.Title != "" {
		sb.WriteString(fmt.Sprintf("# %s\n\n", m.Title))
	}

	ids := shortIDs(m)
	for _, node := range m.Nodes {
		id := ids[node.ID]
		sb.WriteString(fmt.Sprintf("%s: %s\n", id, e.quote(label(node))))
		if node.Color != "" {
			sb.WriteString(fmt.Sprintf("%s.style.fill: \"%s\"\n", id, node.Color))
		}
		if node.BorderColor != "" {
			sb.WriteString(fmt.Sprintf("%s.style.stroke: \"%s\"\n", id, node.BorderColor))
		}
	}

	conns := renderable(m)
	if len(conns) > 0 {
		sb.WriteString("\n")
	}
	for i, conn := range conns {
		edge := fmt.Sprintf("%s %s %s", ids[conn.SourceID], e.arrow(conn), ids[conn.TargetID])
		if rel := relationLabel(conn); rel != "" {
			sb.WriteString(fmt.Sprintf("%s: %s\n", edge, rel))
		} else {
			sb.WriteString(edge + "\n")
		}
		if conn.Color != "" && conn.Color != diagram.DefaultConnectionColor {
			// D2 addresses an edge by its expression and ordinal.
			sb.WriteString(fmt.Sprintf("(%s)[%d].style.stroke: \"%s\"\n", edge, e.ordinal(conns, i), conn.Color))
		}
	}

	return sb.String(), nil
}

func (e *D2Exporter) arrow(conn diagram.Connection) string {
	if !conn.ArrowVisible() {
		return "--"
	}
	switch conn.ArrowPosition {
	case diagram.ArrowStart:
		return "<-"
	case diagram.ArrowBoth:
		return "<->"
	}
	return "->"
}

// ordinal counts earlier connections between the same pair of nodes.
func (e *D2Exporter) ordinal(conns []diagram.Connection, i int) int {
	n := 0
	for _, c := range conns[:i] {
		if c.SourceID == conns[i].SourceID && c.TargetID == conns[i].TargetID {
			n++
		}
	}
	return n
}

// quote wraps labels that contain D2 syntax characters
func (e *D2Exporter) quote(s string) string {
	if strings.ContainsAny(s, ":;{}[]#|\"'\n") {
		s = strings.ReplaceAll(s, "\"", "\\\"")
		return "\"" + strings.ReplaceAll(s, "\n", "\\n") + "\""
	}
	return s
}

// GetFileExtension returns the file extension for D2
func (e *D2Exporter) GetFileExtension() string {
	return ".d2"
}

// GetFormatName returns the format name
func (e *D2Exporter) GetFormatName() string {
	return "D2"
}
