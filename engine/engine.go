// Package engine ties the editing pieces together for one open map. Both
// front ends drive the same Engine: they translate their input into editor
// events, paint the Frame it returns, and never touch the store directly.
//
// Every batch of commands that changes the graph is recorded in the undo
// history and handed to the background saver.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindmaps/canvas"
	"mindmaps/diagram"
	"mindmaps/editor"
	"mindmaps/geometry"
	"mindmaps/patch"
	"mindmaps/persistence"
	"mindmaps/proposal"
	"mindmaps/sizing"
	"mindmaps/store"
	"mindmaps/validation"
)

// ErrNoProposer is returned by Propose when no assistant is configured.
var ErrNoProposer = errors.New("no proposer configured")

// Recorder receives engine activity. The metrics package implements it.
type Recorder interface {
	Mutation(source string)
	PatchApplied(applied, skipped int)
}

type nopRecorder struct{}

func (nopRecorder) Mutation(string)       {}
func (nopRecorder) PatchApplied(int, int) {}

// Mutation sources reported to the Recorder.
const (
	SourceGesture  = "gesture"
	SourcePatch    = "patch"
	SourceProposal = "proposal"
	SourceHistory  = "history"
	SourceReload   = "reload"
)

// Engine edits one map. All methods are safe for concurrent use; calls are
// serialised internally.
type Engine struct {
	mu sync.Mutex

	meta    diagram.MindMap // id, title and timestamps; the graph lives in st
	st      *store.Store
	machine *editor.Machine
	history *editor.History
	sizer   canvas.Sizer
	geo     geometry.Options
	margin  float64

	saver    *persistence.Saver
	proposer proposal.Proposer
	reviewer *proposal.Reviewer
	recorder Recorder
	newID    diagram.IDGenerator
	now      func() time.Time
	logger   *zap.Logger

	historySize int
	machineOpts []editor.Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithSaver persists every mutation in the background.
func WithSaver(s *persistence.Saver) Option {
	return func(e *Engine) { e.saver = s }
}

// WithProposer sets the assistant used by Propose.
func WithProposer(p proposal.Proposer) Option {
	return func(e *Engine) { e.proposer = p }
}

// WithReviewer replaces the default proposal reviewer.
func WithReviewer(r *proposal.Reviewer) Option {
	return func(e *Engine) {
		if r != nil {
			e.reviewer = r
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

func WithSizer(s canvas.Sizer) Option {
	return func(e *Engine) {
		if s != nil {
			e.sizer = s
		}
	}
}

func WithGeometry(opts geometry.Options) Option {
	return func(e *Engine) { e.geo = opts }
}

// WithCullMargin sets how far outside the viewport connections are still
// routed.
func WithCullMargin(m float64) Option {
	return func(e *Engine) { e.margin = m }
}

func WithHistorySize(n int) Option {
	return func(e *Engine) { e.historySize = n }
}

func WithIDGenerator(gen diagram.IDGenerator) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMachineOptions passes options through to the gesture machine.
func WithMachineOptions(opts ...editor.Option) Option {
	return func(e *Engine) { e.machineOpts = append(e.machineOpts, opts...) }
}

// New opens m for editing. The graph is repaired first so the store never
// holds duplicate ids, self connections or repeated pairs.
func New(m *diagram.MindMap, opts ...Option) *Engine {
	e := &Engine{
		geo:      geometry.DefaultOptions(),
		margin:   200,
		recorder: nopRecorder{},
		newID:    diagram.NewID,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sizer == nil {
		e.sizer = sizing.NewEngine(0)
	}
	if e.reviewer == nil {
		e.reviewer = proposal.NewReviewer(proposal.WithReviewIDs(e.newID), proposal.WithReviewLogger(e.logger))
	}
	if m == nil {
		now := e.now().UTC()
		m = &diagram.MindMap{ID: e.newID(), Title: "Mapa", CreatedAt: now, UpdatedAt: now}
	}

	e.meta = m.WithGraph(diagram.Graph{})
	e.st = store.New(store.WithLogger(e.logger))
	e.st.Replace(validation.Repair(m.Graph(), e.newID))
	e.history = editor.NewHistory(e.historySize)
	e.history.Save(e.st.Snapshot())

	mopts := append([]editor.Option{editor.WithLogger(e.logger), editor.WithGeometry(e.geo)}, e.machineOpts...)
	e.machine = editor.New(e.st, e.sizer, mopts...)

	e.logger.Info("map opened",
		zap.String("map_id", e.meta.ID),
		zap.Int("nodes", len(e.st.Nodes())),
		zap.Int("connections", len(e.st.Connections())))
	return e
}

// ID returns the map id.
func (e *Engine) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.meta.ID
}

// MindMap returns a copy of the map as currently edited.
func (e *Engine) MindMap() diagram.MindMap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mindMap()
}

func (e *Engine) mindMap() diagram.MindMap {
	return e.meta.WithGraph(e.st.Snapshot())
}

// SetTitle renames the map.
func (e *Engine) SetTitle(title string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.meta.Title = title
	e.persist()
}

// ApplyGesture feeds one input primitive to the gesture machine.
func (e *Engine) ApplyGesture(ev editor.Event) []editor.Command {
	e.mu.Lock()
	defer e.mu.Unlock()

	cmds := e.machine.Handle(ev)
	if editor.Mutates(cmds) {
		e.commit(SourceGesture)
	}
	return cmds
}

// Tick fires the gesture timers due at now.
func (e *Engine) Tick(now time.Time) []editor.Command {
	return e.ApplyGesture(editor.Tick{At: now})
}

// NextDeadline reports when Tick should next be called.
func (e *Engine) NextDeadline() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.NextDeadline()
}

// Session returns the gesture session.
func (e *Engine) Session() editor.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Session()
}

// Viewport returns the current viewport.
func (e *Engine) Viewport() canvas.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Viewport()
}

// Resize changes the viewport size, keeping the scroll offset.
func (e *Engine) Resize(width, height float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	vp := e.machine.Viewport()
	vp.Width, vp.Height = width, height
	e.machine.SetViewport(vp)
}

// SetViewport replaces the viewport.
func (e *Engine) SetViewport(vp canvas.Viewport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.machine.SetViewport(vp)
}

// Pan scrolls so that content follows a pointer moved by delta.
func (e *Engine) Pan(delta diagram.Point) canvas.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	vp := e.machine.System().Pan(e.machine.Viewport(), delta)
	e.machine.SetViewport(vp)
	return vp
}

// Home scrolls the world origin back to the viewport centre.
func (e *Engine) Home() {
	e.mu.Lock()
	defer e.mu.Unlock()
	vp := e.machine.Viewport()
	vp.ScrollOffset = e.machine.System().HomeOffset()
	e.machine.SetViewport(vp)
}

// ComputeGeometry routes every connection visible in the viewport, using live
// positions for nodes being dragged. Dangling connections are returned
// separately and stay stored.
func (e *Engine) ComputeGeometry() (routed []geometry.Routed, dangling []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.route()
}

func (e *Engine) route() ([]geometry.Routed, []string) {
	return geometry.Route(e.st.Snapshot(), e.machine.Viewport(), e.machine.System(), e.sizer, geometry.RouteOptions{
		Options:    e.geo,
		Position:   e.st.Position,
		Cull:       true,
		CullMargin: e.margin,
	})
}

// ApplyPatch applies ops to the current graph. Operations that cannot be
// applied are skipped and reported in the result; the rest take effect.
// The returned commands reconcile the gesture session with the new graph.
func (e *Engine) ApplyPatch(ops []patch.Operation) (patch.Result, []editor.Command) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := patch.Apply(e.st.Snapshot(), ops, patch.WithIDGenerator(e.newID), patch.WithLogger(e.logger))
	e.recorder.PatchApplied(res.Applied(), len(res.Skipped()))
	if res.Applied() == 0 {
		return res, nil
	}
	return res, e.replace(res.Graph, SourcePatch)
}

// Propose asks the assistant for edits. Nothing changes until the returned
// review is passed to Approve.
func (e *Engine) Propose(ctx context.Context, instruction string, selection ...string) (*proposal.Review, error) {
	e.mu.Lock()
	if e.proposer == nil {
		e.mu.Unlock()
		return nil, ErrNoProposer
	}
	base := e.st.Snapshot()
	p := e.proposer
	e.mu.Unlock()

	// The assistant may take seconds; gestures keep flowing meanwhile.
	resp, err := p.Propose(ctx, proposal.NewRequest(instruction, base, selection...))
	if err != nil {
		return nil, fmt.Errorf("requesting proposal: %w", err)
	}
	return e.reviewer.Review(base, *resp), nil
}

// Approve applies a reviewed proposal to the graph as it is now.
func (e *Engine) Approve(rev *proposal.Review) (patch.Result, []editor.Command) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := e.reviewer.Apply(e.st.Snapshot(), rev)
	e.recorder.PatchApplied(res.Applied(), len(res.Skipped()))
	if res.Applied() == 0 {
		return res, nil
	}
	return res, e.replace(res.Graph, SourceProposal)
}

// Undo restores the previous graph. It reports false when there is nothing
// to undo.
func (e *Engine) Undo() ([]editor.Command, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.history.Undo()
	if !ok {
		return nil, false
	}
	return e.restore(g), true
}

// Redo reapplies the last undone graph.
func (e *Engine) Redo() ([]editor.Command, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.history.Redo()
	if !ok {
		return nil, false
	}
	return e.restore(g), true
}

func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// Reload takes in a version of the map written by someone else. Versions not
// newer than the one being edited, including our own saves, are ignored.
func (e *Engine) Reload(m *diagram.MindMap) ([]editor.Command, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if m == nil || m.ID != e.meta.ID || !m.UpdatedAt.After(e.meta.UpdatedAt) {
		return nil, false
	}
	e.meta.Title = m.Title
	e.meta.UpdatedAt = m.UpdatedAt
	e.st.Replace(validation.Repair(m.Graph(), e.newID))
	e.history.Save(e.st.Snapshot())
	e.recorder.Mutation(SourceReload)
	e.logger.Info("map reloaded from storage", zap.String("map_id", m.ID))
	return e.machine.Reconcile(), true
}

// Validate reports structural problems in the current graph.
func (e *Engine) Validate(strict bool) []validation.ValidationError {
	e.mu.Lock()
	g := e.st.Snapshot()
	e.mu.Unlock()

	v := validation.NewGraphValidator()
	v.SetStrictMode(strict)
	return v.Validate(g)
}

// Flush writes pending saves now.
func (e *Engine) Flush(ctx context.Context) {
	if e.saver != nil {
		e.saver.Flush(ctx)
	}
}

// replace swaps in a graph produced outside the gesture machine.
func (e *Engine) replace(g diagram.Graph, source string) []editor.Command {
	e.st.Replace(g)
	cmds := e.machine.Reconcile()
	e.commit(source)
	return cmds
}

func (e *Engine) restore(g diagram.Graph) []editor.Command {
	e.st.Replace(g)
	cmds := e.machine.Reconcile()
	e.recorder.Mutation(SourceHistory)
	e.persist()
	return cmds
}

// commit records the current graph in the history and saves it.
func (e *Engine) commit(source string) {
	e.history.Save(e.st.Snapshot())
	e.recorder.Mutation(source)
	e.persist()
}

func (e *Engine) persist() {
	e.meta.UpdatedAt = e.now().UTC()
	if e.saver != nil {
		e.saver.Schedule(e.mindMap())
	}
}
