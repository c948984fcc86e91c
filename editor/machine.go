package editor

import (
	"time"

	"mindmaps/canvas"
	"mindmaps/diagram"
	"mindmaps/geometry"
	"mindmaps/store"

	"go.uber.org/zap"
)

// tap remembers the previous press for double tap detection.
type tap struct {
	pos    diagram.Point
	at     time.Time
	target string
}

// Machine is the gesture state machine. It is driven from a single
// goroutine: Handle must not be called concurrently.
type Machine struct {
	store  *store.Store
	sizer  canvas.Sizer
	sys    canvas.System
	vp     canvas.Viewport
	geo    geometry.Options
	cfg    Config
	timers *Scheduler
	logger *zap.Logger

	session Session
	last    *tap
	out     []Command
}

// Option configures a Machine.
type Option func(*Machine)

func WithConfig(cfg Config) Option {
	return func(m *Machine) { m.cfg = cfg }
}

func WithSystem(sys canvas.System) Option {
	return func(m *Machine) { m.sys = sys }
}

func WithViewport(vp canvas.Viewport) Option {
	return func(m *Machine) { m.vp = vp }
}

func WithGeometry(opts geometry.Options) Option {
	return func(m *Machine) { m.geo = opts }
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a machine editing st. The sizer must match the one the
// front end paints with, or hit testing drifts from what is drawn.
func New(st *store.Store, sizer canvas.Sizer, opts ...Option) *Machine {
	m := &Machine{
		store:  st,
		sizer:  sizer,
		sys:    canvas.Default(),
		geo:    geometry.DefaultOptions(),
		cfg:    DefaultConfig(),
		timers: NewScheduler(),
		logger: zap.NewNop(),
		session: Session{
			Tool:      ToolSelect,
			State:     Idle{},
			Selection: NoSelection{},
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.vp == (canvas.Viewport{}) {
		m.vp = m.sys.NewViewport(0, 0)
	}
	return m
}

// Session returns the current gesture session.
func (m *Machine) Session() Session {
	return m.session
}

// Viewport returns the current viewport.
func (m *Machine) Viewport() canvas.Viewport {
	return m.vp
}

// SetViewport replaces the viewport, e.g. after a resize.
func (m *Machine) SetViewport(vp canvas.Viewport) {
	vp.ScrollOffset = m.sys.ClampScroll(vp.ScrollOffset)
	m.vp = vp
}

// System returns the coordinate system in use.
func (m *Machine) System() canvas.System {
	return m.sys
}

// NextDeadline returns when the next Tick is due, if a timer is pending.
func (m *Machine) NextDeadline() (time.Time, bool) {
	return m.timers.Next()
}

// Handle applies one event and returns the commands it produced.
func (m *Machine) Handle(ev Event) []Command {
	m.out = nil

	// Timers due before this event fire first, so a late event never acts
	// on a state that has already expired.
	if at, ok := eventTime(ev); ok {
		m.fire(at)
	}

	switch ev := ev.(type) {
	case Press:
		m.press(ev.Pos, ev.At, ev.Modifier)
	case DoubleTap:
		m.doubleTap(ev.Pos)
	case Move:
		m.move(ev.Pos)
	case Release:
		m.release(ev.Pos)
	case Tick:
	case Confirm:
		m.confirmEdit(ev.Text)
	case Cancel:
		m.cancel()
	case ForceExitEditing:
		m.endEdit(false)
	case SetTool:
		m.setTool(ev.Tool)
	case DeleteSelection:
		m.deleteSelection()
	}

	out := m.out
	m.out = nil
	return out
}

// Reconcile drops any gesture state or selection that refers to nodes or
// connections no longer in the store, e.g. after undo or a patch.
func (m *Machine) Reconcile() []Command {
	m.out = nil
	m.reconcile()
	out := m.out
	m.out = nil
	return out
}

func (m *Machine) emit(cmds ...Command) {
	m.out = append(m.out, cmds...)
}

// transition enters a new state. The timer owned by the old state is
// cancelled unless the new state carries it over.
func (m *Machine) transition(to State) {
	from := m.session.State
	if id, ok := timerOf(from); ok {
		if next, keeps := timerOf(to); !keeps || next != id {
			m.timers.Cancel(id)
		}
	}
	m.session.State = to
	if from.Name() != to.Name() {
		m.logger.Debug("gesture state changed", zap.String("from", from.Name()), zap.String("to", to.Name()))
		m.emit(StateChanged{From: from.Name(), To: to.Name()})
	}
}

func (m *Machine) selectItem(sel Selection) {
	if sel == m.session.Selection {
		return
	}
	m.session.Selection = sel
	m.emit(Selected{Selection: sel})
}

func (m *Machine) fire(now time.Time) {
	for _, f := range m.timers.Due(now) {
		switch st := m.session.State.(type) {
		case PressingNode:
			if f.Kind == TimerDragDelay && f.ID == st.Timer {
				m.transition(DraggingNode{NodeID: st.NodeID, Grab: st.Grab})
			}
		case ConnectionPending:
			if f.Kind == TimerConnectionTimeout && f.ID == st.Timer {
				m.logger.Debug("pending connection expired", zap.String("source", st.SourceID))
				m.transition(Idle{})
			}
		}
	}
}

func (m *Machine) setTool(t Tool) {
	if _, editing := m.session.EditingNode(); editing {
		m.endEdit(false)
	}
	m.abortState()
	m.timers.CancelAll()
	m.selectItem(NoSelection{})
	m.last = nil
	if m.session.Tool != t {
		m.session.Tool = t
		m.emit(ToolChanged{Tool: t})
	}
}

// abortState leaves any gesture in progress without committing it.
func (m *Machine) abortState() {
	switch st := m.session.State.(type) {
	case DraggingNode:
		m.store.DiscardLive(st.NodeID)
		if n, ok := m.store.Node(st.NodeID); ok {
			m.emit(NodeMoved{ID: st.NodeID, Position: n.Position(), Live: true})
		}
	case DraggingConnection:
		m.emit(ConnectionPreview{SourceID: st.SourceID, Active: false})
	case EditingNodeTitle:
		m.emit(EditEnded{NodeID: st.NodeID, ReleaseFocus: true})
	}
	m.transition(Idle{})
}

func (m *Machine) cancel() {
	switch m.session.State.(type) {
	case EditingNodeTitle:
		m.endEdit(false)
	case Idle:
	default:
		m.abortState()
	}
}

func (m *Machine) reconcile() {
	for _, id := range references(m.session.State) {
		if _, ok := m.store.Node(id); !ok {
			m.abortState()
			m.timers.CancelAll()
			break
		}
	}
	switch sel := m.session.Selection.(type) {
	case NodeSelection:
		if _, ok := m.store.Node(sel.ID); !ok {
			m.selectItem(NoSelection{})
		}
	case ConnectionSelection:
		if _, ok := m.store.Connection(sel.ID); !ok {
			m.selectItem(NoSelection{})
		}
	}
	if m.last != nil && m.last.target != "" {
		if _, ok := m.store.Node(m.last.target); !ok {
			m.last = nil
		}
	}
}

// world converts a pointer position to world coordinates.
func (m *Machine) world(p diagram.Point) diagram.Point {
	return m.sys.PointToWorld(p, m.vp)
}

func (m *Machine) nodeAt(p diagram.Point) (diagram.Node, bool) {
	return m.sys.NodeAt(m.store.Nodes(), p, m.vp, m.sizer, m.store.Position)
}

func (m *Machine) connectionAt(p diagram.Point) (diagram.Connection, bool) {
	g := diagram.Graph{Nodes: m.store.Nodes(), Connections: m.store.Connections()}
	routed, _ := geometry.Route(g, m.vp, m.sys, m.sizer, geometry.RouteOptions{
		Options:  m.geo,
		Position: m.store.Position,
	})
	return geometry.ConnectionAt(routed, p, m.cfg.ConnectionTolerance)
}
