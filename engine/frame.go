package engine

import (
	"context"

	"go.uber.org/zap"

	"mindmaps/canvas"
	"mindmaps/diagram"
	"mindmaps/editor"
	"mindmaps/geometry"
	"mindmaps/persistence"
)

// NodeView is a node as it should be painted.
type NodeView struct {
	Node     diagram.Node // at its live position while dragged
	Rect     diagram.Rect // screen space
	Selected bool
	Editing  bool
	Source   bool // start of a connection in progress
}

// Preview is the rubber band of a connection being dragged, in screen space.
type Preview struct {
	From diagram.Point
	To   diagram.Point
}

// Frame is everything a front end needs to paint one screen.
type Frame struct {
	Viewport           canvas.Viewport
	Nodes              []NodeView
	Routes             []geometry.Routed
	Dangling           []string
	SelectedConnection string
	Preview            *Preview
	Tool               editor.Tool
	State              string
}

// Frame captures the current scene. Nodes are listed in paint order.
func (e *Engine) Frame() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.machine.Session()
	vp := e.machine.Viewport()
	sys := e.machine.System()

	f := Frame{
		Viewport: vp,
		Tool:     sess.Tool,
		State:    sess.State.Name(),
	}
	f.Routes, f.Dangling = e.route()
	f.SelectedConnection, _ = sess.SelectedConnection()

	selected, _ := sess.SelectedNode()
	editing, _ := sess.EditingNode()
	source, _ := sess.ConnectionSource()

	rects := make(map[string]diagram.Rect)
	for _, n := range e.st.Nodes() {
		p := e.st.Position(n)
		n.X, n.Y = p.X, p.Y
		r := sys.NodeRect(p, e.sizer.Size(n.Title), vp)
		rects[n.ID] = r
		f.Nodes = append(f.Nodes, NodeView{
			Node:     n,
			Rect:     r,
			Selected: n.ID == selected,
			Editing:  n.ID == editing,
			Source:   n.ID == source,
		})
	}

	if st, ok := sess.State.(editor.DraggingConnection); ok {
		if r, ok := rects[st.SourceID]; ok {
			to := diagram.Rect{X: st.Pointer.X, Y: st.Pointer.Y}
			f.Preview = &Preview{From: geometry.Anchor(r, to, e.geo.Padding), To: st.Pointer}
		}
	}
	return f
}

// Follow returns a change callback for persistence.Watcher that reloads this
// map when its file is changed by another process. onReload receives the
// commands produced by reconciling the session; it may be nil.
func (e *Engine) Follow(ctx context.Context, st persistence.Store, onReload func([]editor.Command)) persistence.ChangeFunc {
	return func(id string, removed bool) {
		if removed || id != e.ID() {
			return
		}
		m, err := st.Load(ctx, id)
		if err != nil {
			e.logger.Warn("reload after external change failed",
				zap.String("map_id", id),
				zap.Error(err))
			return
		}
		if cmds, ok := e.Reload(m); ok && onReload != nil {
			onReload(cmds)
		}
	}
}
