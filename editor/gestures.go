package editor

import (
	"strings"
	"time"

	"mindmaps/diagram"

	"go.uber.org/zap"
)

func (m *Machine) press(pos diagram.Point, at time.Time, modifier bool) {
	switch st := m.session.State.(type) {
	case ConnectionPending:
		if m.pressWhilePending(st, pos) {
			return
		}
	case ConnectionCommitted:
		m.transition(Idle{})
	case EditingNodeTitle:
		if n, ok := m.nodeAt(pos); ok && n.ID == st.NodeID {
			return
		}
		m.endEdit(false)
	case Idle:
	default:
		// The release for the previous press never arrived.
		m.release(pos)
	}

	if m.session.Tool == ToolErase {
		m.erasePress(pos)
		return
	}

	node, onNode := m.nodeAt(pos)
	if onNode && modifier {
		m.last = nil
		m.beginConnection(node.ID, pos, at)
		return
	}

	target := ""
	conn, onConn := diagram.Connection{}, false
	if onNode {
		target = node.ID
	} else if conn, onConn = m.connectionAt(pos); onConn {
		target = connTarget + conn.ID
	}
	if !onConn && m.isDoubleTap(pos, at, target) {
		m.last = nil
		m.doubleTapOn(node, onNode, pos)
		return
	}
	m.last = &tap{pos: pos, at: at, target: target}

	if onNode {
		m.pressNode(node, pos, at)
		return
	}
	if onConn {
		m.selectItem(ConnectionSelection{ID: conn.ID})
		return
	}
	m.selectItem(NoSelection{})
	m.transition(PanningCanvas{Last: pos})
}

// connTarget prefixes connection ids in the double tap record so a tap on a
// connection never pairs with one on empty canvas.
const connTarget = "conn:"

func (m *Machine) isDoubleTap(pos diagram.Point, at time.Time, target string) bool {
	if m.last == nil || m.last.target != target {
		return false
	}
	elapsed := at.Sub(m.last.at)
	return elapsed >= 0 && elapsed <= m.cfg.DoubleTapWindow &&
		pos.Dist(m.last.pos) <= m.cfg.DoubleTapDistance
}

func (m *Machine) doubleTap(pos diagram.Point) {
	if m.session.Tool == ToolErase {
		return
	}
	switch st := m.session.State.(type) {
	case Idle, PressingNode:
	case PanningCanvas:
		m.transition(Idle{})
	case EditingNodeTitle:
		if n, ok := m.nodeAt(pos); ok && n.ID == st.NodeID {
			return
		}
		m.endEdit(false)
	default:
		return
	}
	m.last = nil
	node, onNode := m.nodeAt(pos)
	if !onNode {
		if conn, ok := m.connectionAt(pos); ok {
			m.transition(Idle{})
			m.selectItem(ConnectionSelection{ID: conn.ID})
			return
		}
	}
	m.doubleTapOn(node, onNode, pos)
}

// doubleTapOn edits the node under the pointer. On empty canvas it arms a
// create that the release completes. Editing wins over a pending drag:
// entering it cancels the drag delay timer.
func (m *Machine) doubleTapOn(node diagram.Node, onNode bool, pos diagram.Point) {
	if onNode {
		m.selectItem(NodeSelection{ID: node.ID})
		m.transition(EditingNodeTitle{NodeID: node.ID, Original: node.Title})
		m.emit(EditStarted{NodeID: node.ID, Title: node.Title})
		return
	}
	m.selectItem(NoSelection{})
	m.transition(PanningCanvas{Last: pos, Create: true})
}

func (m *Machine) createNode(pos diagram.Point) {
	w := m.world(pos)
	n, err := m.store.AddNode(diagram.Node{Title: m.cfg.NewNodeTitle, X: w.X, Y: w.Y})
	if err != nil {
		m.logger.Warn("create node failed", zap.Error(err))
		return
	}
	m.emit(NodeCreated{Node: n})
	m.selectItem(NodeSelection{ID: n.ID})
}

func (m *Machine) pressNode(node diagram.Node, pos diagram.Point, at time.Time) {
	delay := m.cfg.DragDelay
	if id, ok := m.session.SelectedNode(); ok && id == node.ID {
		delay = m.cfg.SelectedDragDelay
	}
	m.selectItem(NodeSelection{ID: node.ID})

	grab := m.store.Position(node).Sub(m.world(pos))
	timer := m.timers.Start(TimerDragDelay, at.Add(delay))
	m.transition(PressingNode{NodeID: node.ID, Origin: pos, Grab: grab, Timer: timer})
}

func (m *Machine) move(pos diagram.Point) {
	switch st := m.session.State.(type) {
	case PanningCanvas:
		if st.Create {
			return
		}
		delta := pos.Sub(st.Last)
		m.session.State = PanningCanvas{Last: pos}
		if delta == (diagram.Point{}) {
			return
		}
		m.vp = m.sys.Pan(m.vp, delta)
		m.emit(Panned{Offset: m.vp.ScrollOffset})

	case PressingNode:
		if pos.Dist(st.Origin) < m.cfg.DragThreshold {
			return
		}
		m.transition(DraggingNode{NodeID: st.NodeID, Grab: st.Grab})
		m.dragTo(pos)

	case DraggingNode:
		m.dragTo(pos)

	case ConnectionPending:
		if !st.Holding || pos.Dist(st.Origin) < m.cfg.DragThreshold {
			return
		}
		m.transition(DraggingConnection{SourceID: st.SourceID, Pointer: pos})
		m.emit(ConnectionPreview{SourceID: st.SourceID, Pointer: pos, Active: true})

	case DraggingConnection:
		st.Pointer = pos
		m.session.State = st
		m.emit(ConnectionPreview{SourceID: st.SourceID, Pointer: pos, Active: true})
	}
}

func (m *Machine) dragTo(pos diagram.Point) {
	st := m.session.State.(DraggingNode)
	if err := m.store.SetLive(st.NodeID, m.world(pos).Add(st.Grab)); err != nil {
		m.abortState()
		return
	}
	live, _ := m.store.Live(st.NodeID)
	st.Moved = true
	m.session.State = st
	m.emit(NodeMoved{ID: st.NodeID, Position: live, Live: true})
}

func (m *Machine) release(pos diagram.Point) {
	switch st := m.session.State.(type) {
	case PanningCanvas:
		m.transition(Idle{})
		if st.Create {
			m.createNode(pos)
		}

	case PressingNode, ConnectionCommitted:
		m.transition(Idle{})

	case DraggingNode:
		if p, ok := m.store.CommitLive(st.NodeID); ok {
			m.emit(NodeMoved{ID: st.NodeID, Position: p})
		}
		m.transition(Idle{})

	case ConnectionPending:
		if st.Holding {
			st.Holding = false
			m.session.State = st
		}

	case DraggingConnection:
		m.emit(ConnectionPreview{SourceID: st.SourceID, Pointer: pos, Active: false})
		if node, ok := m.nodeAt(pos); ok && node.ID != st.SourceID {
			m.connect(st.SourceID, node.ID)
		}
		m.transition(Idle{})
	}
}

func (m *Machine) beginConnection(sourceID string, pos diagram.Point, at time.Time) {
	deadline := at.Add(m.cfg.ConnectionTimeout)
	timer := m.timers.Start(TimerConnectionTimeout, deadline)
	m.transition(ConnectionPending{
		SourceID: sourceID,
		Deadline: deadline,
		Timer:    timer,
		Holding:  true,
		Origin:   pos,
	})
}

// pressWhilePending handles a press while a connection waits for its
// target. It reports whether the press was consumed; a press on empty
// canvas cancels the connection and is then handled normally.
func (m *Machine) pressWhilePending(st ConnectionPending, pos diagram.Point) bool {
	node, ok := m.nodeAt(pos)
	if !ok {
		m.transition(Idle{})
		return false
	}
	if node.ID == st.SourceID {
		m.transition(Idle{})
		return true
	}

	conn, ok := m.connect(st.SourceID, node.ID)
	if !ok {
		st.Holding = false
		m.session.State = st
		return true
	}
	m.transition(ConnectionCommitted{ConnectionID: conn.ID, TargetID: node.ID})
	return true
}

func (m *Machine) connect(sourceID, targetID string) (diagram.Connection, bool) {
	conn, err := m.store.AddConnection(diagram.Connection{SourceID: sourceID, TargetID: targetID})
	if err != nil {
		m.logger.Debug("connection rejected",
			zap.String("source", sourceID),
			zap.String("target", targetID),
			zap.Error(err),
		)
		m.emit(ConnectionRejected{SourceID: sourceID, TargetID: targetID, Reason: err})
		return diagram.Connection{}, false
	}
	m.emit(ConnectionCreated{Connection: conn})
	return conn, true
}

func (m *Machine) confirmEdit(text string) {
	st, ok := m.session.State.(EditingNodeTitle)
	if !ok {
		return
	}
	committed := false
	title := strings.TrimSpace(text)
	if title != "" && title != st.Original {
		if err := m.store.UpdateNodeTitle(st.NodeID, title); err == nil {
			m.emit(TitleChanged{ID: st.NodeID, Title: title})
			committed = true
		}
	}
	m.emit(EditEnded{NodeID: st.NodeID, Committed: committed, ReleaseFocus: true})
	m.transition(Idle{})
}

func (m *Machine) endEdit(committed bool) {
	st, ok := m.session.State.(EditingNodeTitle)
	if !ok {
		return
	}
	m.emit(EditEnded{NodeID: st.NodeID, Committed: committed, ReleaseFocus: true})
	m.transition(Idle{})
}

func (m *Machine) erasePress(pos diagram.Point) {
	if node, ok := m.nodeAt(pos); ok {
		m.deleteNode(node.ID)
		return
	}
	if conn, ok := m.connectionAt(pos); ok {
		m.deleteConnection(conn.ID)
		return
	}
	m.transition(PanningCanvas{Last: pos})
}

func (m *Machine) deleteSelection() {
	if _, editing := m.session.EditingNode(); editing {
		return
	}
	switch sel := m.session.Selection.(type) {
	case NodeSelection:
		m.deleteNode(sel.ID)
	case ConnectionSelection:
		m.deleteConnection(sel.ID)
	}
}

func (m *Machine) deleteNode(id string) {
	removed, err := m.store.DeleteNode(id)
	if err != nil {
		return
	}
	ids := make([]string, len(removed))
	for i, c := range removed {
		ids[i] = c.ID
	}
	m.emit(NodeDeleted{ID: id, Connections: ids})
	m.reconcile()
}

func (m *Machine) deleteConnection(id string) {
	if err := m.store.DeleteConnection(id); err != nil {
		return
	}
	m.emit(ConnectionDeleted{ID: id})
	m.reconcile()
}
