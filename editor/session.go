// Package editor interprets a stream of pointer primitives into mind map
// edits. A Machine owns the gesture session and the timers that disambiguate
// taps, double taps, drags and connections; every change to the graph goes
// through the store.
package editor

import (
	"time"

	"mindmaps/diagram"
)

// Tool is the active editing tool.
type Tool int

const (
	ToolSelect Tool = iota // Create, select, drag, edit and connect
	ToolErase              // Taps delete what they hit
)

// String returns the tool name for display
func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "SELECT"
	case ToolErase:
		return "ERASE"
	default:
		return "UNKNOWN"
	}
}

// State is the gesture in progress. Exactly one state is active at a time,
// so combinations such as editing while dragging cannot be represented.
type State interface {
	Name() string
	state()
}

// Idle waits for the next press.
type Idle struct{}

// PanningCanvas scrolls the viewport while the pointer is held on empty canvas.
// After a double tap Create is set: the viewport stays put and the release
// creates a node where the pointer is lifted.
type PanningCanvas struct {
	Last   diagram.Point
	Create bool
}

// PressingNode holds a press on a node until the drag delay elapses, the
// pointer moves away, or a double tap turns it into an edit.
type PressingNode struct {
	NodeID string
	Origin diagram.Point
	Grab   diagram.Point
	Timer  TimerID
}

// DraggingNode moves a node. Its position stays live until release.
type DraggingNode struct {
	NodeID string
	Grab   diagram.Point
	Moved  bool
}

// EditingNodeTitle has the title field of a node focused.
type EditingNodeTitle struct {
	NodeID   string
	Original string
}

// ConnectionPending waits for a second node to be clicked before Deadline.
type ConnectionPending struct {
	SourceID string
	Deadline time.Time
	Timer    TimerID
	// Holding is set while the press that started the connection is down;
	// moving far enough turns it into a DraggingConnection.
	Holding bool
	Origin  diagram.Point
}

// DraggingConnection follows the pointer from a source node until release.
type DraggingConnection struct {
	SourceID string
	Pointer  diagram.Point
}

// ConnectionCommitted swallows the remainder of the input that completed a
// connection, so the target node is not also selected or dragged by it.
type ConnectionCommitted struct {
	ConnectionID string
	TargetID     string
}

func (Idle) Name() string                { return "idle" }
func (PanningCanvas) Name() string       { return "panning" }
func (PressingNode) Name() string        { return "pressing-node" }
func (DraggingNode) Name() string        { return "dragging-node" }
func (EditingNodeTitle) Name() string    { return "editing" }
func (ConnectionPending) Name() string   { return "connection-pending" }
func (DraggingConnection) Name() string  { return "dragging-connection" }
func (ConnectionCommitted) Name() string { return "connection-committed" }

func (Idle) state()                {}
func (PanningCanvas) state()       {}
func (PressingNode) state()        {}
func (DraggingNode) state()        {}
func (EditingNodeTitle) state()    {}
func (ConnectionPending) state()   {}
func (DraggingConnection) state()  {}
func (ConnectionCommitted) state() {}

// Selection is what the user last selected: nothing, a node or a connection.
type Selection interface {
	selection()
}

type NoSelection struct{}

type NodeSelection struct {
	ID string
}

type ConnectionSelection struct {
	ID string
}

func (NoSelection) selection()         {}
func (NodeSelection) selection()       {}
func (ConnectionSelection) selection() {}

// Session is the transient gesture state. It is never persisted.
type Session struct {
	Tool      Tool
	State     State
	Selection Selection
}

// SelectedNode returns the selected node id, if a node is selected.
func (s Session) SelectedNode() (string, bool) {
	n, ok := s.Selection.(NodeSelection)
	return n.ID, ok
}

// SelectedConnection returns the selected connection id, if any.
func (s Session) SelectedConnection() (string, bool) {
	c, ok := s.Selection.(ConnectionSelection)
	return c.ID, ok
}

// EditingNode returns the id of the node whose title is being edited.
func (s Session) EditingNode() (string, bool) {
	e, ok := s.State.(EditingNodeTitle)
	return e.NodeID, ok
}

// ConnectionSource returns the source of a connection in progress.
func (s Session) ConnectionSource() (string, bool) {
	switch st := s.State.(type) {
	case ConnectionPending:
		return st.SourceID, true
	case DraggingConnection:
		return st.SourceID, true
	}
	return "", false
}

// DraggedNode returns the node currently being dragged.
func (s Session) DraggedNode() (string, bool) {
	d, ok := s.State.(DraggingNode)
	return d.NodeID, ok
}

// references returns the node ids the current state depends on.
func references(st State) []string {
	switch st := st.(type) {
	case PressingNode:
		return []string{st.NodeID}
	case DraggingNode:
		return []string{st.NodeID}
	case EditingNodeTitle:
		return []string{st.NodeID}
	case ConnectionPending:
		return []string{st.SourceID}
	case DraggingConnection:
		return []string{st.SourceID}
	case ConnectionCommitted:
		return []string{st.TargetID}
	}
	return nil
}

// timerOf returns the timer owned by a state, if any.
func timerOf(st State) (TimerID, bool) {
	switch st := st.(type) {
	case PressingNode:
		return st.Timer, true
	case ConnectionPending:
		return st.Timer, true
	}
	return 0, false
}
