package export

import (
	"encoding/json"
	"time"

	"mindmaps/diagram"
)

// FileVersion is the version of the mind map file contract.
const FileVersion = "1.0"

// File is a self-contained mind map snapshot.
type File struct {
	Version    string          `json:"version" validate:"required"`
	MindMap    diagram.MindMap `json:"mindMap"`
	ExportedAt time.Time       `json:"exportedAt"`
}

// JSONExporter exports mind maps to the file contract
type JSONExporter struct {
	now func() time.Time
}

// NewJSONExporter creates a new JSON exporter
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{now: time.Now}
}

// Export converts a mind map to JSON. Empty maps are allowed.
func (e *JSONExporter) Export(m *diagram.MindMap) (string, error) {
	if m == nil {
		return "", errNilMap
	}
	f := File{Version: FileVersion, MindMap: *m, ExportedAt: e.now().UTC()}
	if f.MindMap.Nodes == nil {
		f.MindMap.Nodes = []diagram.Node{}
	}
	if f.MindMap.Connections == nil {
		f.MindMap.Connections = []diagram.Connection{}
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetFileExtension returns the file extension for JSON
func (e *JSONExporter) GetFileExtension() string {
	return ".json"
}

// GetFormatName returns the format name
func (e *JSONExporter) GetFormatName() string {
	return "JSON"
}
