package export

import (
	"fmt"
	"strings"

	"mindmaps/diagram"
)

// PlantUMLExporter exports mind maps to PlantUML syntax
type PlantUMLExporter struct{}

// NewPlantUMLExporter creates a new PlantUML exporter
func NewPlantUMLExporter() *PlantUMLExporter {
	return &PlantUMLExporter{}
}

// Export converts the mind map to a PlantUML diagram of rounded rectangles.
func (e *PlantUMLExporter) Export(m *diagram.MindMap) (string, error) {
	if err := checkMap(m); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("@startuml\n")
	if m.Title != "" {
		sb.WriteString(fmt.Sprintf("title %s\n", m.Title))
	}
	sb.WriteString("skinparam backgroundColor white\n")
	sb.WriteString("skinparam shadowing false\n")
	sb.WriteString("skinparam roundCorner 12\n\n")

	ids := shortIDs(m)
	for _, node := range m.Nodes {
		color := ""
		if node.Color != "" {
			color = " " + e.color(node.Color)
		}
		sb.WriteString(fmt.Sprintf("rectangle \"%s\" as %s%s\n", e.escape(label(node)), ids[node.ID], color))
	}

	conns := renderable(m)
	if len(conns) > 0 {
		sb.WriteString("\n")
	}
	for _, conn := range conns {
		line := fmt.Sprintf("%s %s %s", ids[conn.SourceID], e.arrow(conn), ids[conn.TargetID])
		if rel := relationLabel(conn); rel != "" {
			line += " : " + rel
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("@enduml\n")
	return sb.String(), nil
}

func (e *PlantUMLExporter) arrow(conn diagram.Connection) string {
	style := "-"
	if conn.Color != "" && conn.Color != diagram.DefaultConnectionColor {
		style = "-[" + e.color(conn.Color) + "]-"
	}
	if !conn.ArrowVisible() {
		return style + "-"
	}
	switch conn.ArrowPosition {
	case diagram.ArrowStart:
		return "<" + style + "-"
	case diagram.ArrowBoth:
		return "<" + style + "->"
	}
	return style + "->"
}

// color keeps #rrggbb values and prefixes named colours with #
func (e *PlantUMLExporter) color(c string) string {
	if strings.HasPrefix(c, "#") {
		return c
	}
	return "#" + c
}

func (e *PlantUMLExporter) escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", "\\n")
}

// GetFileExtension returns the file extension for PlantUML
func (e *PlantUMLExporter) GetFileExtension() string {
	return ".puml"
}

// GetFormatName returns the format name
func (e *PlantUMLExporter) GetFormatName() string {
	return "PlantUML"
}
