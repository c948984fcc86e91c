// Package server exposes mind maps over HTTP.
//
// Maps are opened lazily: the first request for an id loads it from the
// store into an engine that stays open until the map is deleted or the
// server shuts down. Every mutation goes through that engine, so HTTP
// clients share undo history and background saving with other surfaces.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mindmaps/canvas"
	"mindmaps/config"
	"mindmaps/diagram"
	"mindmaps/engine"
	"mindmaps/geometry"
	"mindmaps/importer"
	"mindmaps/metrics"
	"mindmaps/persistence"
	"mindmaps/proposal"
	"mindmaps/sizing"
)

// Server serves the mind map API.
type Server struct {
	cfg      config.Server
	store    persistence.Store
	saver    *persistence.Saver
	proposer proposal.Proposer
	imports  *importer.Registry
	metrics  *metrics.Collector
	logger   *zap.Logger
	validate *validator.Validate

	sys        canvas.System
	sizer      canvas.Sizer
	geo        geometry.Options
	engineOpts []engine.Option

	mu      sync.Mutex
	engines map[string]*engine.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the listener configuration.
func WithConfig(cfg config.Server) Option {
	return func(s *Server) { s.cfg = cfg }
}

// WithSaver sets the background saver shared by every open map.
func WithSaver(saver *persistence.Saver) Option {
	return func(s *Server) { s.saver = saver }
}

// WithProposer enables assistant proposals.
func WithProposer(p proposal.Proposer) Option {
	return func(s *Server) { s.proposer = p }
}

// WithImporter replaces the import registry.
func WithImporter(r *importer.Registry) Option {
	return func(s *Server) { s.imports = r }
}

// WithMetrics enables Prometheus metrics and the /metrics endpoint.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSystem sets the coordinate system used for geometry requests.
func WithSystem(sys canvas.System) Option {
	return func(s *Server) { s.sys = sys }
}

// WithSizer sets the node sizer used for geometry requests.
func WithSizer(sizer canvas.Sizer) Option {
	return func(s *Server) { s.sizer = sizer }
}

// WithGeometry sets the connection geometry options.
func WithGeometry(opts geometry.Options) Option {
	return func(s *Server) { s.geo = opts }
}

// WithEngineOptions passes options to every engine the server opens.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Server) { s.engineOpts = append(s.engineOpts, opts...) }
}

// New creates a server backed by store.
func New(store persistence.Store, opts ...Option) *Server {
	s := &Server{
		cfg:      config.Default().Server,
		store:    store,
		logger:   zap.NewNop(),
		validate: diagram.Validator(),
		sys:      canvas.Default(),
		geo:      geometry.DefaultOptions(),
		engines:  make(map[string]*engine.Engine),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sizer == nil {
		s.sizer = sizing.NewEngine(0)
	}
	if s.imports == nil {
		s.imports = importer.NewRegistry(importer.WithLogger(s.logger))
	}
	return s
}

// open returns the engine for id, loading the map on first use.
func (s *Server) open(ctx context.Context, id string) (*engine.Engine, error) {
	if !persistence.ValidID(id) {
		return nil, persistence.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.engines[id]; ok {
		return e, nil
	}

	m, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.attach(m), nil
}

// attach opens an engine for m. The caller holds s.mu.
func (s *Server) attach(m *diagram.MindMap) *engine.Engine {
	opts := []engine.Option{
		engine.WithLogger(s.logger),
		engine.WithSizer(s.sizer),
		engine.WithGeometry(s.geo),
	}
	if s.saver != nil {
		opts = append(opts, engine.WithSaver(s.saver))
	}
	if s.proposer != nil {
		opts = append(opts, engine.WithProposer(s.proposer))
	}
	if s.metrics != nil {
		opts = append(opts, engine.WithRecorder(s.metrics))
	}
	opts = append(opts, s.engineOpts...)

	e := engine.New(m, opts...)
	s.engines[e.ID()] = e
	s.reportOpen()
	return e
}

// close drops the engine for id, if open.
func (s *Server) close(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.engines[id]; ok {
		delete(s.engines, id)
		s.reportOpen()
	}
}

func (s *Server) reportOpen() {
	if s.metrics != nil {
		s.metrics.SetOpenMaps(len(s.engines))
	}
}

// ChangeFunc returns a persistence.Watcher callback that keeps open maps in
// step with edits made to their files by other processes.
func (s *Server) ChangeFunc(ctx context.Context) persistence.ChangeFunc {
	return func(id string, removed bool) {
		if removed {
			s.close(id)
			return
		}
		s.mu.Lock()
		e, ok := s.engines[id]
		s.mu.Unlock()
		if !ok {
			return
		}
		m, err := s.store.Load(ctx, id)
		if err != nil {
			s.logger.Warn("reload after external change failed", zap.String("map_id", id), zap.Error(err))
			return
		}
		e.Reload(m)
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and flushes pending saves.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	err := srv.Shutdown(shutdownCtx)
	s.Close(shutdownCtx)
	if err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Close writes pending saves.
func (s *Server) Close(ctx context.Context) {
	if s.saver != nil {
		s.saver.Flush(ctx)
	}
}
