package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"mindmaps/diagram"
	"mindmaps/export"
)

// FileExtension is the suffix of stored map files.
const FileExtension = ".json"

// FileStore keeps one file per map in a directory, using the export file
// contract. Writes go to a temporary file that is renamed into place.
type FileStore struct {
	dir    string
	logger *zap.Logger
	mu     sync.Mutex
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileLogger sets the logger.
func WithFileLogger(logger *zap.Logger) FileOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFileStore creates the directory if needed and returns a store rooted there.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	s := &FileStore{dir: dir, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file a map id is stored in.
func (s *FileStore) Path(id string) string {
	return filepath.Join(s.dir, id+FileExtension)
}

// IDFromPath returns the map id a storage file holds, if path names one.
func IDFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, FileExtension) {
		return "", false
	}
	id := strings.TrimSuffix(base, FileExtension)
	return id, ValidID(id)
}

// Load reads a map. Non-finite coordinates are replaced on the way in.
func (s *FileStore) Load(ctx context.Context, id string) (*diagram.MindMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ValidID(id) {
		return nil, ErrInvalidID
	}

	data, err := os.ReadFile(s.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading map %s: %w", id, err)
	}

	m, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding map %s: %w", id, err)
	}
	return m, nil
}

func decode(data []byte) (*diagram.MindMap, error) {
	var f export.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Version == "" {
		return nil, errors.New("missing file version")
	}
	m := f.MindMap.WithGraph(f.MindMap.Graph().Sanitize())
	return &m, nil
}

// Save writes a map atomically.
func (s *FileStore) Save(ctx context.Context, m *diagram.MindMap) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m == nil || !ValidID(m.ID) {
		return ErrInvalidID
	}

	exp := export.NewJSONExporter()
	content, err := exp.Export(m)
	if err != nil {
		return fmt.Errorf("encoding map %s: %w", m.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*"+FileExtension)
	if err != nil {
		return fmt.Errorf("creating temp map file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.WriteString(content); err != nil {
		return fmt.Errorf("writing temp map file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp map file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp map file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path(m.ID)); err != nil {
		return fmt.Errorf("renaming map file for %s: %w", m.ID, err)
	}
	success = true

	s.logger.Debug("mind map saved",
		zap.String("map_id", m.ID),
		zap.Int("bytes", len(content)))
	return nil
}

// List returns every readable map, most recently updated first. Unreadable
// files are logged and skipped.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing storage directory: %w", err)
	}

	out := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		id, ok := IDFromPath(entry.Name())
		if !ok {
			continue
		}
		m, err := s.Load(ctx, id)
		if err != nil {
			s.logger.Warn("skipping unreadable map file",
				zap.String("file", entry.Name()),
				zap.Error(err))
			continue
		}
		out = append(out, summarize(*m))
	}
	sortSummaries(out)
	return out, nil
}

// Delete removes a map file.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidID(id) {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting map %s: %w", id, err)
	}
	return nil
}
