package export

import (
	"fmt"
	"strings"

	"mindmaps/diagram"
)

// MermaidExporter exports mind maps to Mermaid flowchart syntax
type MermaidExporter struct{}

// NewMermaidExporter creates a new Mermaid exporter
func NewMermaidExporter() *MermaidExporter {
	return &MermaidExporter{}
}

// Export converts the mind map to Mermaid syntax
func (e *MermaidExporter) Export(m *diagram.MindMap) (string, error) {
	if err := checkMap(m); err != nil {
		return "", err
	}

	var sb strings.Builder
	if m.Title != "" {
		sb.WriteString(fmt.Sprintf("---\ntitle: %s\n---\n", m.Title))
	}
	sb.WriteString("flowchart LR\n")

	ids := shortIDs(m)
	for _, node := range m.Nodes {
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", ids[node.ID], e.escape(label(node))))
	}

	conns := renderable(m)
	if len(conns) > 0 {
		sb.WriteString("\n")
	}
	for _, conn := range conns {
		from, to := ids[conn.SourceID], ids[conn.TargetID]
		arrow := e.arrow(conn)
		if conn.ArrowVisible() && conn.ArrowPosition == diagram.ArrowStart {
			// Mermaid has no start-only arrow; draw it reversed.
			from, to = to, from
		}
		if rel := relationLabel(conn); rel != "" {
			sb.WriteString(fmt.Sprintf("    %s %s|%s| %s\n", from, arrow, rel, to))
		} else {
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", from, arrow, to))
		}
	}

	// Node colours as style directives
	for _, node := range m.Nodes {
		var styles []string
		if node.Color != "" {
			styles = append(styles, "fill:"+node.Color)
		}
		if node.BorderColor != "" {
			styles = append(styles, "stroke:"+node.BorderColor)
		}
		if len(styles) > 0 {
			sb.WriteString(fmt.Sprintf("    style %s %s\n", ids[node.ID], strings.Join(styles, ",")))
		}
	}

	return sb.String(), nil
}

func (e *MermaidExporter) arrow(conn diagram.Connection) string {
	if !conn.ArrowVisible() {
		return "---"
	}
	if conn.ArrowPosition == diagram.ArrowBoth {
		return "<-->"
	}
	return "-->"
}

// escape replaces characters that would break a quoted Mermaid label
func (e *MermaidExporter) escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "#quot;")
	return strings.ReplaceAll(s, "\n", "<br/>")
}

// GetFileExtension returns the file extension for Mermaid
func (e *MermaidExporter) GetFileExtension() string {
	return ".mmd"
}

// GetFormatName returns the format name
func (e *MermaidExporter) GetFormatName() string {
	return "Mermaid"
}
