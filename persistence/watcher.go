package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeFunc receives the id of a map whose file changed on disk. removed is
// true when the file disappeared.
type ChangeFunc func(id string, removed bool)

// Watcher reports external edits to a storage directory. Bursts of events for
// the same file are debounced into one notification.
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *zap.Logger
	onChange ChangeFunc

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timers  map[string]*time.Timer
	done    chan struct{}
}

// NewWatcher starts watching dir. Call Run to deliver events.
func NewWatcher(dir string, debounce time.Duration, logger *zap.Logger, onChange ChangeFunc) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		logger:   logger,
		onChange: onChange,
		watcher:  fsWatcher,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}, nil
}

// Run delivers change notifications until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	defer w.stopTimers()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("storage watcher error", zap.Error(err))

		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	id, ok := IDFromPath(event.Name)
	if !ok {
		return
	}
	var removed bool
	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
	case event.Op&fsnotify.Remove != 0:
		removed = true
	default:
		return
	}

	w.logger.Debug("map file changed",
		zap.String("map_id", id),
		zap.String("operation", event.Op.String()))

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[id]; ok {
		t.Stop()
	}
	w.timers[id] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, id)
		w.mu.Unlock()
		w.onChange(id, removed)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, t := range w.timers {
		t.Stop()
		delete(w.timers, id)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
		close(w.done)
	}
	return w.watcher.Close()
}
