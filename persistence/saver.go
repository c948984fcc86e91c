package persistence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindmaps/diagram"
)

// DefaultSaveDelay is how long the Saver waits for further changes before writing.
const DefaultSaveDelay = 400 * time.Millisecond

// SaveObserver is told about every completed write.
type SaveObserver func(id string, took time.Duration, err error)

// Saver writes maps in the background. Schedule never blocks on storage:
// repeated calls for the same map inside the delay collapse into one write of
// the latest snapshot. Failures are logged and reported to the observer; the
// caller is never told.
type Saver struct {
	store    Store
	delay    time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	observer SaveObserver

	mu      sync.Mutex
	pending map[string]diagram.MindMap
	timer   *time.Timer
	closed  bool

	// writeMu serialises flushes so an older snapshot never lands after a newer one.
	writeMu sync.Mutex
}

// SaverOption configures a Saver.
type SaverOption func(*Saver)

// WithDelay sets the coalescing delay.
func WithDelay(d time.Duration) SaverOption {
	return func(s *Saver) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithSaveTimeout bounds each background write.
func WithSaveTimeout(d time.Duration) SaverOption {
	return func(s *Saver) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithSaverLogger sets the logger.
func WithSaverLogger(logger *zap.Logger) SaverOption {
	return func(s *Saver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers a callback for completed writes.
func WithObserver(fn SaveObserver) SaverOption {
	return func(s *Saver) { s.observer = fn }
}

// NewSaver creates a Saver writing to store.
func NewSaver(store Store, opts ...SaverOption) *Saver {
	s := &Saver{
		store:   store,
		delay:   DefaultSaveDelay,
		timeout: 10 * time.Second,
		logger:  zap.NewNop(),
		pending: make(map[string]diagram.MindMap),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule queues m for writing. Calls after Close are dropped.
func (s *Saver) Schedule(m diagram.MindMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn("save dropped after close", zap.String("map_id", m.ID))
		return
	}
	s.pending[m.ID] = m.WithGraph(m.Graph())

	// Debounce: restart the countdown on every change.
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.flushPending)
}

// Pending returns the number of maps waiting to be written.
func (s *Saver) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush writes everything pending now and waits for it.
func (s *Saver) Flush(ctx context.Context) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.write(ctx)
}

// Close flushes pending writes and stops accepting new ones.
func (s *Saver) Close(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.Flush(ctx)
}

func (s *Saver) flushPending() {
	s.write(context.Background())
}

func (s *Saver) write(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string]diagram.MindMap)
	s.mu.Unlock()

	for id, m := range batch {
		start := time.Now()
		wctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.store.Save(wctx, &m)
		cancel()
		took := time.Since(start)

		if err != nil {
			s.logger.Error("background save failed",
				zap.String("map_id", id),
				zap.Duration("took", took),
				zap.Error(err))
		} else {
			s.logger.Debug("background save completed",
				zap.String("map_id", id),
				zap.Duration("took", took))
		}
		if s.observer != nil {
			s.observer(id, took, err)
		}
	}
}
