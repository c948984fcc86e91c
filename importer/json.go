package importer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"

	"mindmaps/export"
)

// JSONImporter reads the mind map file contract. Comments and trailing
// commas are tolerated.
type JSONImporter struct{}

// NewJSONImporter creates a new JSON importer
func NewJSONImporter() *JSONImporter {
	return &JSONImporter{}
}

// CanImport checks if the content looks like a mind map file
func (j *JSONImporter) CanImport(content string) bool {
	content = strings.TrimSpace(content)
	return strings.HasPrefix(content, "{") && strings.Contains(content, `"mindMap"`)
}

// Import decodes the file and checks its version. Only major version 1 is
// understood.
func (j *JSONImporter) Import(content string) (*Parsed, error) {
	var f export.File
	if err := json.Unmarshal(jsonc.ToJSON([]byte(content)), &f); err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	if !supportedVersion(f.Version) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, f.Version)
	}
	return &Parsed{
		Title: f.MindMap.Title,
		Graph: f.MindMap.Graph(),
	}, nil
}

func supportedVersion(v string) bool {
	major, _, _ := strings.Cut(strings.TrimSpace(v), ".")
	want, _, _ := strings.Cut(export.FileVersion, ".")
	return major != "" && major == want
}

// GetFormatName returns the format name
func (j *JSONImporter) GetFormatName() string {
	return "JSON"
}

// GetFileExtensions returns common file extensions
func (j *JSONImporter) GetFileExtensions() []string {
	return []string{".json", ".mindmap"}
}
