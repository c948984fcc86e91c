package importer

import (
	"fmt"
	"regexp"
	"strings"

	"mindmaps/diagram"
)

var (
	// Matches: ID((text)), ID[[text]], ID[(text)], ID([text]), ID{{text}}, ID[text], ID(text), ID{text}, ID>text]
	mermaidNode = regexp.MustCompile(`([A-Za-z0-9_]+)(\(\((?:"[^"]*"|[^)]*)\)\)|\[\[(?:"[^"]*"|[^\]]*)\]\]|\[\((?:"[^"]*"|[^)]*)\)\]|\(\[(?:"[^"]*"|[^\]]*)\]\)|\{\{(?:"[^"]*"|[^}]*)\}\}|\[(?:"[^"]*"|[^\]]*)\]|\((?:"[^"]*"|[^)]*)\)|\{(?:"[^"]*"|[^}]*)\}|>(?:"[^"]*"|[^\]]*)\])`)

	mermaidSource = regexp.MustCompile(`^([A-Za-z0-9_]+)`)

	// Matches one link and its target: --> B, ---|label| B, -- label --> B, <--> B
	mermaidLink = regexp.MustCompile(`^\s*(<-->|<==>|-\.->|==>|-->|===|---|-\.-|--\s+([^-|]+?)\s+-->)\s*(?:\|([^|]*)\|)?\s*([A-Za-z0-9_]+)`)

	mermaidStyle = regexp.MustCompile(`^style\s+([A-Za-z0-9_]+)\s+(.+)$`)
)

// MermaidImporter imports Mermaid flowcharts
type MermaidImporter struct{}

// NewMermaidImporter creates a new Mermaid importer
func NewMermaidImporter() *MermaidImporter {
	return &MermaidImporter{}
}

// CanImport checks if the content is a Mermaid flowchart
func (m *MermaidImporter) CanImport(content string) bool {
	_, body := m.frontMatter(strings.TrimSpace(content))
	first, _, _ := strings.Cut(strings.TrimSpace(body), "\n")
	fields := strings.Fields(first)
	if len(fields) == 0 || strings.Contains(first, "{") {
		// "graph {" opens a DOT graph
		return false
	}
	return fields[0] == "graph" || fields[0] == "flowchart"
}

// Import converts a Mermaid flowchart. Nodes carry no coordinates.
func (m *MermaidImporter) Import(content string) (*Parsed, error) {
	title, body := m.frontMatter(strings.TrimSpace(content))
	if !m.CanImport(body) {
		return nil, fmt.Errorf("unsupported Mermaid diagram type")
	}

	b := newBuilder()
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}

		// Skip the declaration and directives that carry no graph data
		if strings.HasPrefix(line, "graph") || strings.HasPrefix(line, "flowchart") ||
			strings.HasPrefix(line, "subgraph") || line == "end" ||
			strings.HasPrefix(line, "classDef") || strings.HasPrefix(line, "class ") ||
			strings.HasPrefix(line, "linkStyle") || strings.HasPrefix(line, "click ") {
			continue
		}

		if match := mermaidStyle.FindStringSubmatch(line); match != nil {
			m.applyStyle(b, match[1], match[2])
			continue
		}

		// Register shaped nodes, then reduce them to bare ids so links parse uniformly
		line = mermaidNode.ReplaceAllStringFunc(line, func(decl string) string {
			parts := mermaidNode.FindStringSubmatch(decl)
			b.setTitle(parts[1], m.shapeText(parts[2]))
			return parts[1]
		})

		m.parseLinks(b, line)
	}

	return b.parsed(title)
}

func (m *MermaidImporter) parseLinks(b *builder, line string) {
	from := mermaidSource.FindString(line)
	if from == "" {
		return
	}
	b.ensure(from)

	rest := line[len(from):]
	for {
		match := mermaidLink.FindStringSubmatch(rest)
		if match == nil {
			return
		}
		arrow, inline, piped, to := match[1], match[2], match[3], match[4]

		label := piped
		if inline != "" {
			label = inline
		}

		conn := diagram.Connection{
			SourceID: from,
			TargetID: to,
			Relation: relation(label),
		}
		switch {
		case strings.HasPrefix(arrow, "<"):
			conn.ArrowPosition = diagram.ArrowBoth
		case arrow == "---" || arrow == "-.-" || arrow == "===":
			conn.ShowArrow = boolPtr(false)
		}
		if strings.Contains(arrow, "==") {
			conn.Width = 4
		}
		if from != to {
			b.connect(conn)
		}

		from = to
		rest = rest[len(match[0]):]
	}
}

// shapeText strips the shape delimiters and quotes around a node label.
func (m *MermaidImporter) shapeText(shape string) string {
	open := 0
	for open < len(shape) && strings.ContainsRune("[({>", rune(shape[open])) {
		open++
	}
	text := shape
	if len(shape) >= 2*open {
		text = shape[open : len(shape)-open]
	}
	text = strings.TrimSpace(text)
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		text = text[1 : len(text)-1]
	}
	text = strings.ReplaceAll(text, "#quot;", `"`)
	text = strings.ReplaceAll(text, "<br/>", "\n")
	return strings.ReplaceAll(text, "<br>", "\n")
}

func (m *MermaidImporter) applyStyle(b *builder, id, style string) {
	i := b.ensure(id)
	for _, part := range strings.Split(style, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "fill":
			b.graph.Nodes[i].Color = strings.TrimSpace(value)
		case "stroke":
			b.graph.Nodes[i].BorderColor = strings.TrimSpace(value)
		}
	}
}

// frontMatter splits an optional "---" block carrying "title:" from the body.
func (m *MermaidImporter) frontMatter(content string) (title, body string) {
	if !strings.HasPrefix(content, "---") {
		return "", content
	}
	rest := strings.TrimPrefix(content, "---")
	header, body, ok := strings.Cut(rest, "\n---")
	if !ok {
		return "", content
	}
	for _, line := range strings.Split(header, "\n") {
		if key, value, ok := strings.Cut(strings.TrimSpace(line), ":"); ok && strings.TrimSpace(key) == "title" {
			title = strings.TrimSpace(value)
		}
	}
	return title, strings.TrimSpace(body)
}

// GetFormatName returns the format name
func (m *MermaidImporter) GetFormatName() string {
	return "Mermaid"
}

// GetFileExtensions returns common file extensions
func (m *MermaidImporter) GetFileExtensions() []string {
	return []string{".mmd", ".mermaid"}
}
