package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"mindmaps/canvas"
	"mindmaps/diagram"
	"mindmaps/editor"
	"mindmaps/engine"
	"mindmaps/geometry"
	"mindmaps/importer"
	"mindmaps/layout"
	"mindmaps/metrics"
	"mindmaps/persistence"
	"mindmaps/proposal"
	"mindmaps/sizing"
)

// stack holds the components every command builds from the configuration.
type stack struct {
	store    *persistence.FileStore
	saver    *persistence.Saver
	sys      canvas.System
	sizer    *sizing.Engine
	layout   *layout.RingLayout
	proposer proposal.Proposer
	metrics  *metrics.Collector
}

func newStack() (*stack, error) {
	st, err := persistence.NewFileStore(cfg.Storage.Dir, persistence.WithFileLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	s := &stack{
		store: st,
		sys:   cfg.System(),
		sizer: sizing.NewEngine(cfg.Canvas.SizingCache),
	}
	s.layout = layout.NewRingLayout(s.sizer, cfg.Layout)
	if cfg.Metrics.Enabled {
		s.metrics = metrics.NewCollector(cfg.Metrics.Namespace)
	}

	saverOpts := []persistence.SaverOption{
		persistence.WithDelay(cfg.Storage.SaveDelay),
		persistence.WithSaveTimeout(cfg.Storage.SaveTimeout),
		persistence.WithSaverLogger(logger),
	}
	if s.metrics != nil {
		saverOpts = append(saverOpts, persistence.WithObserver(s.metrics.ObserveSave))
	}
	s.saver = persistence.NewSaver(st, saverOpts...)

	if cfg.Proposal.Endpoint != "" {
		s.proposer = proposal.NewHTTPClient(cfg.Proposal, logger)
	}
	return s, nil
}

func (s *stack) geometry() geometry.Options {
	return geometry.Options{Padding: cfg.Canvas.Padding}
}

// engineOptions configures an engine the way every surface expects.
func (s *stack) engineOptions() []engine.Option {
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithSaver(s.saver),
		engine.WithSizer(s.sizer),
		engine.WithGeometry(s.geometry()),
		engine.WithCullMargin(cfg.Canvas.CullMargin),
		engine.WithHistorySize(cfg.Canvas.HistorySize),
		engine.WithReviewer(proposal.NewReviewer(
			proposal.WithReviewLayout(s.layout),
			proposal.WithReviewLogger(logger),
		)),
		engine.WithMachineOptions(
			editor.WithConfig(cfg.Gestures),
			editor.WithSystem(s.sys),
		),
	}
	if s.proposer != nil {
		opts = append(opts, engine.WithProposer(s.proposer))
	}
	if s.metrics != nil {
		opts = append(opts, engine.WithRecorder(s.metrics))
	}
	return opts
}

func (s *stack) importer() *importer.Registry {
	return importer.NewRegistry(importer.WithLayout(s.layout), importer.WithLogger(logger))
}

// open loads the map with the given id into an engine.
func (s *stack) open(ctx context.Context, id string) (*engine.Engine, error) {
	m, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", id, err)
	}
	return engine.New(m, s.engineOptions()...), nil
}

// openOrCreate is open, except that a missing map starts empty under id.
func (s *stack) openOrCreate(ctx context.Context, id, title string) (*engine.Engine, bool, error) {
	e, err := s.open(ctx, id)
	if err == nil {
		return e, false, nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return nil, false, err
	}
	if id != "" && !persistence.ValidID(id) {
		return nil, false, persistence.ErrInvalidID
	}

	m := &diagram.MindMap{ID: id, Title: title}
	if m.ID == "" {
		m.ID = diagram.NewID()
	}
	e = engine.New(m, s.engineOptions()...)
	created := e.MindMap()
	if err := s.store.Save(ctx, &created); err != nil {
		return nil, false, fmt.Errorf("creating %s: %w", created.ID, err)
	}
	return e, true, nil
}

func (s *stack) close(ctx context.Context) {
	s.saver.Close(ctx)
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes to a file, or stdout when path is empty.
func writeOutput(path string, data string) error {
	if path == "" {
		_, err := io.WriteString(os.Stdout, data)
		return err
	}
	return os.WriteFile(path, []byte(data), 0o644)
}
