// Package export provides functionality to export mind maps to various text-based formats
package export

import (
	"errors"
	"fmt"
	"strings"

	"mindmaps/diagram"
)

// Format represents an export format
type Format string

const (
	// FormatJSON exports the self-contained mind map file (native format)
	FormatJSON Format = "json"
	// FormatMermaid exports to Mermaid flowchart syntax
	FormatMermaid Format = "mermaid"
	// FormatGraphviz exports to Graphviz DOT syntax
	FormatGraphviz Format = "graphviz"
	// FormatD2 exports to D2 syntax
	FormatD2 Format = "d2"
	// FormatPlantUML exports to PlantUML syntax
	FormatPlantUML Format = "plantuml"
	// FormatSVG renders the map as drawn on the canvas
	FormatSVG Format = "svg"
)

var (
	errNilMap  = errors.New("mind map is nil")
	errNoNodes = errors.New("mind map has no nodes")
)

// Exporter interface for different export formats
type Exporter interface {
	// Export converts a mind map to the target format
	Export(m *diagram.MindMap) (string, error)
	// GetFileExtension returns the recommended file extension for this format
	GetFileExtension() string
	// GetFormatName returns a human-readable name for this format
	GetFormatName() string
}

// NewExporter creates an exporter for the specified format
func NewExporter(format Format) (Exporter, error) {
	switch format {
	case FormatJSON:
		return NewJSONExporter(), nil
	case FormatMermaid:
		return NewMermaidExporter(), nil
	case FormatGraphviz:
		return NewGraphvizExporter(), nil
	case FormatD2:
		return NewD2Exporter(), nil
	case FormatPlantUML:
		return NewPlantUMLExporter(), nil
	case FormatSVG:
		return NewSVGExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ParseFormat converts a string to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "mindmap":
		return FormatJSON, nil
	case "mermaid", "mmd":
		return FormatMermaid, nil
	case "graphviz", "dot", "gv":
		return FormatGraphviz, nil
	case "d2":
		return FormatD2, nil
	case "plantuml", "puml":
		return FormatPlantUML, nil
	case "svg":
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// GetAvailableFormats returns a list of all available export formats
func GetAvailableFormats() []Format {
	return []Format{
		FormatJSON,
		FormatMermaid,
		FormatGraphviz,
		FormatD2,
		FormatPlantUML,
		FormatSVG,
	}
}

// GetFormatDescriptions returns human-readable descriptions of all formats
func GetFormatDescriptions() map[Format]string {
	return map[Format]string{
		FormatJSON:     "Mind map file (re-importable)",
		FormatMermaid:  "Mermaid flowchart syntax (for Markdown)",
		FormatGraphviz: "Graphviz DOT syntax, positions pinned",
		FormatD2:       "D2 diagram syntax",
		FormatPlantUML: "PlantUML diagram syntax",
		FormatSVG:      "SVG image of the canvas",
	}
}

func checkMap(m *diagram.MindMap) error {
	if m == nil {
		return errNilMap
	}
	if len(m.Nodes) == 0 {
		return errNoNodes
	}
	return nil
}

// renderable returns the connections whose endpoints both exist, so text
// formats never reference an undeclared node.
func renderable(m *diagram.MindMap) []diagram.Connection {
	ids := make(map[string]bool, len(m.Nodes))
	for _, n := range m.Nodes {
		ids[n.ID] = true
	}
	var out []diagram.Connection
	for _, c := range m.Connections {
		if ids[c.SourceID] && ids[c.TargetID] {
			out = append(out, c)
		}
	}
	return out
}

// shortIDs maps node ids, usually UUIDs, to short identifiers valid in
// every text format.
func shortIDs(m *diagram.MindMap) map[string]string {
	out := make(map[string]string, len(m.Nodes))
	for i, n := range m.Nodes {
		out[n.ID] = fmt.Sprintf("n%d", i)
	}
	return out
}

// label returns the node title, or a placeholder for untitled nodes.
func label(n diagram.Node) string {
	if t := strings.TrimSpace(n.Title); t != "" {
		return t
	}
	return "(sin título)"
}

// relationLabel returns the edge label for non-generic relations.
func relationLabel(c diagram.Connection) string {
	if c.Relation == "" || c.Relation == diagram.RelationGeneric {
		return ""
	}
	return string(c.Relation)
}
