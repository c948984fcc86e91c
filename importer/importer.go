// Package importer turns mind map files and text diagrams into mind maps.
//
// Every import produces a brand new map: ids are re-keyed, coordinates are
// sanitised and nodes that arrive without a position are placed by the ring
// layout.
package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mindmaps/diagram"
	"mindmaps/layout"
	"mindmaps/sizing"
)

var (
	// ErrUnknownFormat is returned when no importer accepts the content.
	ErrUnknownFormat = errors.New("unable to detect format")
	// ErrUnsupportedVersion is returned for file contracts with a foreign version.
	ErrUnsupportedVersion = errors.New("unsupported file version")
	// ErrEmpty is returned when a text diagram declares no nodes.
	ErrEmpty = errors.New("no nodes found")
)

// TitleSuffix is appended to the title of every imported map.
const TitleSuffix = " (importado)"

// Parsed is what an importer extracts before the registry finalises it.
type Parsed struct {
	Title    string
	Graph    diagram.Graph
	Unplaced []string
}

// Importer defines methods for importing mind maps from various formats
type Importer interface {
	// CanImport checks if the given content can be imported by this importer
	CanImport(content string) bool

	// Import extracts the graph described by content
	Import(content string) (*Parsed, error)

	// GetFormatName returns the human-readable name of the format
	GetFormatName() string

	// GetFileExtensions returns common file extensions for this format
	GetFileExtensions() []string
}

// Registry manages available importers
type Registry struct {
	importers []Importer
	layout    *layout.RingLayout
	newID     diagram.IDGenerator
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLayout replaces the layout used for unpositioned nodes.
func WithLayout(l *layout.RingLayout) Option {
	return func(r *Registry) { r.layout = l }
}

// WithIDGenerator replaces the generator used for fresh ids.
func WithIDGenerator(gen diagram.IDGenerator) Option {
	return func(r *Registry) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// WithClock replaces the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a registry holding the JSON, Mermaid and Graphviz importers.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		importers: []Importer{
			NewJSONImporter(),
			NewMermaidImporter(),
			NewGraphvizImporter(),
		},
		newID:  diagram.NewID,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.layout == nil {
		r.layout = layout.NewRingLayout(sizing.NewEngine(0), layout.DefaultOptions())
	}
	return r
}

// Register adds a new importer to the registry
func (r *Registry) Register(imp Importer) {
	r.importers = append(r.importers, imp)
}

// DetectFormat attempts to detect the format of the given content
func (r *Registry) DetectFormat(content string) (Importer, error) {
	for _, imp := range r.importers {
		if imp.CanImport(content) {
			return imp, nil
		}
	}
	return nil, ErrUnknownFormat
}

// Import attempts to import content using auto-detection
func (r *Registry) Import(content string) (*diagram.MindMap, error) {
	imp, err := r.DetectFormat(content)
	if err != nil {
		return nil, err
	}
	return r.run(imp, content)
}

// ImportWithFormat imports content using a specific format
func (r *Registry) ImportWithFormat(content, format string) (*diagram.MindMap, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	for _, imp := range r.importers {
		if strings.ToLower(imp.GetFormatName()) == format {
			return r.run(imp, content)
		}
		for _, ext := range imp.GetFileExtensions() {
			if strings.TrimPrefix(ext, ".") == format {
				return r.run(imp, content)
			}
		}
	}
	return nil, fmt.Errorf("unknown format: %s", format)
}

// GetAvailableFormats returns a list of available import formats
func (r *Registry) GetAvailableFormats() []string {
	formats := make([]string, len(r.importers))
	for i, imp := range r.importers {
		formats[i] = imp.GetFormatName()
	}
	return formats
}

func (r *Registry) run(imp Importer, content string) (*diagram.MindMap, error) {
	parsed, err := imp.Import(content)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", imp.GetFormatName(), err)
	}

	g := parsed.Graph.Sanitize()
	g, unplaced := r.rekey(g, parsed.Unplaced)
	if len(unplaced) > 0 {
		g = r.layout.Place(g, unplaced)
	}
	for i := range g.Connections {
		g.Connections[i] = g.Connections[i].WithDefaults()
	}

	title := strings.TrimSpace(parsed.Title)
	if title == "" {
		title = "Mapa"
	}
	now := r.now().UTC()
	m := diagram.MindMap{
		ID:        r.newID(),
		Title:     title + TitleSuffix,
		CreatedAt: now,
		UpdatedAt: now,
	}.WithGraph(g)

	r.logger.Debug("mind map imported",
		zap.String("format", imp.GetFormatName()),
		zap.String("map_id", m.ID),
		zap.Int("nodes", len(m.Nodes)),
		zap.Int("connections", len(m.Connections)),
		zap.Int("placed", len(unplaced)))
	return &m, nil
}

// rekey gives every node and connection a fresh id, rewriting connection
// endpoints and the unplaced list to match. Connections with unknown
// endpoints, self connections and repeated pairs are dropped.
func (r *Registry) rekey(g diagram.Graph, unplaced []string) (diagram.Graph, []string) {
	ids := make(map[string]string, len(g.Nodes))
	nodes := make([]diagram.Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := ids[n.ID]; dup && n.ID != "" {
			continue
		}
		fresh := r.newID()
		if n.ID != "" {
			ids[n.ID] = fresh
		}
		n.ID = fresh
		nodes = append(nodes, n)
	}

	type pair struct{ a, b string }
	linked := make(map[pair]bool, len(g.Connections))
	conns := make([]diagram.Connection, 0, len(g.Connections))
	for _, c := range g.Connections {
		src, okS := ids[c.SourceID]
		dst, okT := ids[c.TargetID]
		if !okS || !okT || src == dst || linked[pair{src, dst}] {
			continue
		}
		linked[pair{src, dst}], linked[pair{dst, src}] = true, true
		c.ID, c.SourceID, c.TargetID = r.newID(), src, dst
		conns = append(conns, c)
	}

	rewritten := make([]string, 0, len(unplaced))
	for _, id := range unplaced {
		if fresh, ok := ids[id]; ok {
			rewritten = append(rewritten, fresh)
		}
	}
	return diagram.Graph{Nodes: nodes, Connections: conns}, rewritten
}
