// Package persistence stores mind maps outside the process.
//
// The editor never waits for storage: mutations are handed to a Saver, which
// coalesces them and writes the latest snapshot in the background.
package persistence

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"
	"time"

	"mindmaps/diagram"
)

var (
	// ErrNotFound is returned when no map is stored under the requested id.
	ErrNotFound = errors.New("mind map not found")
	// ErrInvalidID is returned for ids that cannot name a stored map.
	ErrInvalidID = errors.New("invalid mind map id")
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidID reports whether id can be used as a storage key.
func ValidID(id string) bool {
	return validID.MatchString(id)
}

// Summary describes a stored map without its graph.
type Summary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Nodes       int       `json:"nodes"`
	Connections int       `json:"connections"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func summarize(m diagram.MindMap) Summary {
	return Summary{
		ID:          m.ID,
		Title:       m.Title,
		Nodes:       len(m.Nodes),
		Connections: len(m.Connections),
		UpdatedAt:   m.UpdatedAt,
	}
}

// sortSummaries orders by most recent update, then id.
func sortSummaries(s []Summary) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].UpdatedAt.Equal(s[j].UpdatedAt) {
			return s[i].UpdatedAt.After(s[j].UpdatedAt)
		}
		return s[i].ID < s[j].ID
	})
}

// Store is the persistence boundary.
type Store interface {
	Load(ctx context.Context, id string) (*diagram.MindMap, error)
	Save(ctx context.Context, m *diagram.MindMap) error
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps maps in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	maps map[string]diagram.MindMap
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{maps: make(map[string]diagram.MindMap)}
}

// Load returns a copy of the stored map.
func (s *MemoryStore) Load(ctx context.Context, id string) (*diagram.MindMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.maps[id]
	if !ok {
		return nil, ErrNotFound
	}
	m = m.WithGraph(m.Graph())
	return &m, nil
}

// Save stores a copy of m.
func (s *MemoryStore) Save(ctx context.Context, m *diagram.MindMap) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m == nil || !ValidID(m.ID) {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maps[m.ID] = m.WithGraph(m.Graph())
	return nil
}

// List returns every stored map, most recently updated first.
func (s *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]Summary, 0, len(s.maps))
	for _, m := range s.maps {
		out = append(out, summarize(m))
	}
	s.mu.RUnlock()
	sortSummaries(out)
	return out, nil
}

// Delete removes a stored map.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.maps[id]; !ok {
		return ErrNotFound
	}
	delete(s.maps, id)
	return nil
}
