package editor

import (
	"testing"
	"time"

	"mindmaps/canvas"
	"mindmaps/diagram"
	"mindmaps/sizing"
	"mindmaps/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

// screen returns the pointer position of a world point in the 800x600 test
// viewport scrolled home, where the world origin sits at (400, 300).
func screen(x, y float64) diagram.Point {
	return diagram.Point{X: 400 + x, Y: 300 + y}
}

func newTestMachine(t *testing.T) (*Machine, *store.Store) {
	t.Helper()
	st := store.New()
	for _, n := range []diagram.Node{
		{ID: "A", Title: "A"},
		{ID: "B", Title: "B", X: 300},
		{ID: "C", Title: "C", Y: 200},
	} {
		_, err := st.AddNode(n)
		require.NoError(t, err)
	}
	sys := canvas.Default()
	m := New(st, sizing.NewEngine(64), WithSystem(sys), WithViewport(sys.NewViewport(800, 600)))
	return m, st
}

func find[T Command](cmds []Command) (T, bool) {
	for _, c := range cmds {
		if v, ok := c.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func count[T Command](cmds []Command) int {
	n := 0
	for _, c := range cmds {
		if _, ok := c.(T); ok {
			n++
		}
	}
	return n
}

func TestPressEmptyCanvasPans(t *testing.T) {
	m, _ := newTestMachine(t)

	m.Handle(Press{Pos: diagram.Point{X: 100, Y: 100}, At: at(0)})
	require.IsType(t, PanningCanvas{}, m.Session().State)

	cmds := m.Handle(Move{Pos: diagram.Point{X: 130, Y: 110}, At: at(20)})
	panned, ok := find[Panned](cmds)
	require.True(t, ok)
	assert.Equal(t, diagram.Point{X: 4970, Y: 4990}, panned.Offset)
	assert.Equal(t, panned.Offset, m.Viewport().ScrollOffset)

	m.Handle(Release{Pos: diagram.Point{X: 130, Y: 110}, At: at(40)})
	assert.IsType(t, Idle{}, m.Session().State)
}

func TestDoubleClickEmptyCanvasCreatesNode(t *testing.T) {
	m, st := newTestMachine(t)

	m.Handle(Press{Pos: diagram.Point{X: 100, Y: 100}, At: at(0)})
	m.Handle(Release{Pos: diagram.Point{X: 100, Y: 100}, At: at(60)})
	cmds := m.Handle(Press{Pos: diagram.Point{X: 104, Y: 102}, At: at(200)})
	assert.Zero(t, count[NodeCreated](cmds), "the second press only arms the create")
	assert.Equal(t, PanningCanvas{Last: diagram.Point{X: 104, Y: 102}, Create: true}, m.Session().State)

	cmds = m.Handle(Move{Pos: diagram.Point{X: 200, Y: 200}, At: at(220)})
	assert.Zero(t, count[Panned](cmds), "an armed create does not pan")

	cmds = m.Handle(Release{Pos: diagram.Point{X: 200, Y: 200}, At: at(240)})
	created, ok := find[NodeCreated](cmds)
	require.True(t, ok, "release after a double click creates a node")
	assert.Equal(t, "Nueva idea", created.Node.Title)
	assert.Equal(t, diagram.Point{X: -200, Y: -100}, created.Node.Position(), "node sits at the release point")
	assert.Equal(t, canvas.DefaultCenter, m.Viewport().ScrollOffset.X)
	assert.IsType(t, Idle{}, m.Session().State)

	id, selected := m.Session().SelectedNode()
	assert.True(t, selected)
	assert.Equal(t, created.Node.ID, id)
	assert.Len(t, st.Nodes(), 4)
}

func TestDoubleClickOnConnection(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
	}{
		{"press pair", []Event{
			Press{Pos: screen(150, 3), At: at(0)},
			Release{Pos: screen(150, 3), At: at(40)},
			Press{Pos: screen(150, 3), At: at(150)},
			Release{Pos: screen(150, 3), At: at(190)},
		}},
		{"double tap", []Event{
			DoubleTap{Pos: screen(150, 3), At: at(0)},
			Release{Pos: screen(150, 3), At: at(40)},
		}},
		{"canvas then connection", []Event{
			Press{Pos: screen(150, 12), At: at(0)},
			Release{Pos: screen(150, 12), At: at(40)},
			Press{Pos: screen(150, 5), At: at(150)},
			Release{Pos: screen(150, 5), At: at(190)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, st := newTestMachine(t)
			_, err := st.AddConnection(diagram.Connection{ID: "ab", SourceID: "A", TargetID: "B", Type: diagram.ConnectionStraight})
			require.NoError(t, err)

			var created int
			for _, ev := range tt.events {
				created += count[NodeCreated](m.Handle(ev))
			}

			assert.Zero(t, created, "nodes are only created on empty canvas")
			assert.Len(t, st.Nodes(), 3)
			id, ok := m.Session().SelectedConnection()
			require.True(t, ok)
			assert.Equal(t, "ab", id)
			assert.IsType(t, Idle{}, m.Session().State)
		})
	}
}

func TestDoubleTapEmptyCanvasCreatesAtRelease(t *testing.T) {
	m, st := newTestMachine(t)

	cmds := m.Handle(DoubleTap{Pos: screen(-300, -200), At: at(0)})
	assert.Zero(t, count[NodeCreated](cmds))

	cmds = m.Handle(Release{Pos: screen(-250, -150), At: at(50)})
	created, ok := find[NodeCreated](cmds)
	require.True(t, ok)
	assert.Equal(t, diagram.Point{X: -250, Y: -150}, created.Node.Position())
	assert.Len(t, st.Nodes(), 4)
}

func TestSlowSecondPressPansInstead(t *testing.T) {
	m, st := newTestMachine(t)

	m.Handle(Press{Pos: diagram.Point{X: 100, Y: 100}, At: at(0)})
	m.Handle(Release{Pos: diagram.Point{X: 100, Y: 100}, At: at(60)})
	cmds := m.Handle(Press{Pos: diagram.Point{X: 100, Y: 100}, At: at(600)})

	assert.Zero(t, count[NodeCreated](cmds))
	assert.IsType(t, PanningCanvas{}, m.Session().State)
	assert.Len(t, st.Nodes(), 3)
}

func TestFarSecondPressPansInstead(t *testing.T) {
	m, _ := newTestMachine(t)

	m.Handle(Press{Pos: diagram.Point{X: 100, Y: 100}, At: at(0)})
	m.Handle(Release{Pos: diagram.Point{X: 100, Y: 100}, At: at(60)})
	cmds := m.Handle(Press{Pos: diagram.Point{X: 120, Y: 100}, At: at(150)})

	assert.Zero(t, count[NodeCreated](cmds))
}

func TestPressNodeDragsAfterDelay(t *testing.T) {
	m, st := newTestMachine(t)

	cmds := m.Handle(Press{Pos: screen(0, 0), At: at(0)})
	sel, ok := find[Selected](cmds)
	require.True(t, ok)
	assert.Equal(t, NodeSelection{ID: "A"}, sel.Selection)
	require.IsType(t, PressingNode{}, m.Session().State)

	m.Handle(Tick{At: at(119)})
	require.IsType(t, PressingNode{}, m.Session().State)
	m.Handle(Tick{At: at(120)})
	require.IsType(t, DraggingNode{}, m.Session().State)

	cmds = m.Handle(Move{Pos: screen(50, 20), At: at(150)})
	moved, ok := find[NodeMoved](cmds)
	require.True(t, ok)
	assert.True(t, moved.Live)
	assert.Equal(t, diagram.Point{X: 50, Y: 20}, moved.Position)

	committed, _ := st.Node("A")
	assert.Equal(t, diagram.Point{}, committed.Position(), "drag must not commit before release")

	cmds = m.Handle(Release{Pos: screen(50, 20), At: at(200)})
	moved, ok = find[NodeMoved](cmds)
	require.True(t, ok)
	assert.False(t, moved.Live)
	assert.True(t, Mutates(cmds))

	committed, _ = st.Node("A")
	assert.Equal(t, diagram.Point{X: 50, Y: 20}, committed.Position())
	assert.IsType(t, Idle{}, m.Session().State)
}

func TestSelectedNodeUsesShorterDragDelay(t *testing.T) {
	m, _ := newTestMachine(t)

	m.Handle(Press{Pos: screen(0, 0), At: at(0)})
	m.Handle(Release{Pos: screen(0, 0), At: at(50)})

	m.Handle(Press{Pos: screen(0, 0), At: at(1000)})
	m.Handle(Tick{At: at(1080)})
	assert.IsType(t, DraggingNode{}, m.Session().State)
}

func TestMovePastThresholdStartsDragEarly(t *testing.T) {
	m, _ := newTestMachine(t)

	m.Handle(Press{Pos: screen(0, 0), At: at(0)})
	m.Handle(Move{Pos: screen(3, 0), At: at(10)})
	require.IsType(t, PressingNode{}, m.Session().State)

	cmds := m.Handle(Move{Pos: screen(10, 0), At: at(20)})
	require.IsType(t, DraggingNode{}, m.Session().State)
	moved, ok := find[NodeMoved](cmds)
	require.True(t, ok)
	assert.Equal(t, diagram.Point{X: 10}, moved.Position)
}

func TestTapWithoutMovingDoesNotMove(t *testing.T) {
	m, st := newTestMachine(t)

	m.Handle(Press{Pos: screen(300, 0), At: at(0)})
	cmds := m.Handle(Release{Pos: screen(300, 0), At: at(40)})

	assert.Zero(t, count[NodeMoved](cmds))
	assert.False(t, Mutates(cmds))
	n, _ := st.Node("B")
	assert.Equal(t, 300.0, n.X)
}

func TestDoubleTapWinsOverDrag(t *testing.T) {
	m, _ := newTestMachine(t)

	m.Handle(Press{Pos: screen(0, 0), At: at(0)})
	cmds := m.Handle(DoubleTap{Pos: screen(0, 0), At: at(60)})

	started, ok := find[EditStarted](cmds)
	require.True(t, ok)
	assert.Equal(t, "A", started.NodeID)
	assert.Equal(t, "A", started.Title)
	assert.Zero(t, m.timers.Len(), "drag delay timer must be cancelled")

	m.Handle(Tick{At: at(500)})
	assert.IsType(t, EditingNodeTitle{}, m.Session().State)
}

func TestSecondPressOnNodeEdits(t *testing.T) {
	m, _ := newTestMachine(t)

	m.Handle(Press{Pos: screen(0, 0), At: at(0)})
	m.Handle(Release{Pos: screen(0, 0), At: at(50)})
	m.Handle(Press{Pos: screen(2, 1), At: at(250)})

	id, editing := m.Session().EditingNode()
	require.True(t, editing)
	assert.Equal(t, "A", id)
	assert.Zero(t, m.timers.Len())
}

func TestConfirmEdit(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantTitle string
		committed bool
	}{
		{"trimmed new title", "  Centro  ", "Centro", true},
		{"unchanged", "A", "A", false},
		{"blank", "   ", "A", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, st := newTestMachine(t)
			m.Handle(DoubleTap{Pos: screen(0, 0), At: at(0)})
			require.IsType(t, EditingNodeTitle{}, m.Session().State)

			cmds := m.Handle(Confirm{Text: tt.text})

			ended, ok := find[EditEnded](cmds)
			require.True(t, ok)
			assert.True(t, ended.ReleaseFocus)
			assert.Equal(t, tt.committed, ended.Committed)
			assert.Equal(t, tt.committed, count[TitleChanged](cmds) == 1)

			n, _ := st.Node("A")
			assert.Equal(t, tt.wantTitle, n.Title)
			assert.IsType(t, Idle{}, m.Session().State)
		})
	}
}

func TestCancelAndForceExitEditing(t *testing.T) {
	for _, ev := range []Event{Cancel{}, ForceExitEditing{}} {
		m, st := newTestMachine(t)
		m.Handle(DoubleTap{Pos: screen(0, 0), At: at(0)})

		cmds := m.Handle(ev)
		ended, ok := find[EditEnded](cmds)
		require.True(t, ok, "%T should end editing", ev)
		assert.False(t, ended.Committed)
		assert.True(t, ended.ReleaseFocus)
		n, _ := st.Node("A")
		assert.Equal(t, "A", n.Title)
	}
}

func TestBackgroundPressExitsEditing(t *testing.T) {
	m, _ := newTestMachine(t)
	m.Handle(DoubleTap{Pos: screen(0, 0), At: at(0)})

	cmds := m.Handle(Press{Pos: diagram.Point{X: 50, Y: 50}, At: at(1000)})

	_, ok := find[EditEnded](cmds)
	assert.True(t, ok)
	_, editing := m.Session().EditingNode()
	assert.False(t, editing)
}

func TestPressOnEditedNodeKeepsEditing(t *testing.T) {
	m, _ := newTestMachine(t)
	m.Handle(DoubleTap{Pos: screen(0, 0), At: at(0)})

	cmds := m.Handle(Press{Pos: screen(5, 5), At: at(1000)})
	assert.Empty(t, cmds)
	assert.IsType(t, EditingNodeTitle{}, m.Session().State)
}

func TestConnectionPendingExpires(t *testing.T) {
	m, st := newTestMachine(t)

	m.Handle(Press{Pos: screen(0, 0), At: at(0), Modifier: true})
	m.Handle(Release{Pos: screen(0, 0), At: at(50)})

	pending, ok := m.Session().State.(ConnectionPending)
	require.True(t, ok)
	assert.Equal(t, "A", pending.SourceID)
	assert.Equal(t, at(3000), pending.Deadline)

	m.Handle(Tick{At: at(2999)})
	require.IsType(t, ConnectionPending{}, m.Session().State)

	cmds := m.Handle(Tick{At: at(3000)})
	changed, ok := find[StateChanged](cmds)
	require.True(t, ok)
	assert.Equal(t, "idle", changed.To)
	_, pendingSource := m.Session().ConnectionSource()
	assert.False(t, pendingSource)

	m.Handle(Press{Pos: screen(300, 0), At: at(3100)})
	assert.Empty(t, st.Connections(), "late click must not connect")
}

func TestLateClickAfterDeadlineDoesNotConnect(t *testing.T) {
	m, st := newTestMachine(t)

	m.Handle(Press{Pos: screen(0, 0), At: at(0), Modifier: true})
	m.Handle(Release{Pos: screen(0, 0), At: at(50)})
	cmds := m.Handle(Press{Pos: screen(300, 0), At: at(3500)})

	assert.Zero(t, count[ConnectionCreated](cmds))
	assert.Empty(t, st.Connections())
	id, _ := m.Session().SelectedNode()
	assert.Equal(t, "B", id)
}

func TestClickSecondNodeCommitsConnection(t *testing.T) {
	m, st := newTestMachine(t)

	m.Handle(Press{Pos: screen(0, 0), At: at(0), Modifier: true})
	m.Handle(Release{Pos: screen(0, 0), At: at(50)})
	cmds := m.Handle(Press{Pos: screen(300, 0), At: at(800)})

	created, ok := find[ConnectionCreated](cmds)
	require.True(t, ok)
	assert.Equal(t, "A", created.Connection.SourceID)
	assert.Equal(t, "B", created.Connection.TargetID)
	assert.Equal(t, diagram.ConnectionCurved, created.Connection.Type)
	assert.Zero(t, count[Selected](cmds), "target must not be selected by the committing click")
	require.IsType(t, ConnectionCommitted{}, m.Session().State)
	assert.Zero(t, m.timers.Len())

	// The rest of the same input is swallowed.
	cmds = m.Handle(Move{Pos: screen(340, 20), At: at(900)})
	assert.Zero(t, count[NodeMoved](cmds))
	cmds = m.Handle(Release{Pos: screen(340, 20), At: at(950)})
	assert.Zero(t, count[Selected](cmds))
	assert.IsType(t, Idle{}, m.Session().State)

	_, selected := m.Session().SelectedNode()
	assert.False(t, selected)
	n, _ := st.Node("B")
	assert.Equal(t, 300.0, n.X)
	assert.Len(t, st.Connections(), 1)
}

func TestClickSourceCancelsPending(t *testing.T) {
	m, st := newTestMachine(t)

	m.Handle(Press{Pos: screen(0, 0), At: at(0), Modifier: true})
	m.Handle(Release{Pos: screen(0, 0), At: at(50)})
	m.Handle(Press{Pos: screen(0, 0), At: at(400)})

	assert.IsType(t, Idle{}, m.Session().State)
	assert.Empty(t, st.Connections())
	assert.Zero(t, m.timers.Len())
}

func TestDuplicateConnectionRejected(t *testing.T) {
	m, st := newTestMachine(t)
	_, err := st.AddConnection(diagram.Connection{ID: "ab", SourceID: "A", TargetID: "B"})
	require.NoError(t, err)

	for _, pair := range [][2]diagram.Point{
		{screen(0, 0), screen(300, 0)},
		{screen(300, 0), screen(0, 0)},
	} {
		m.Handle(Press{Pos: pair[0], At: at(0), Modifier: true})
		m.Handle(Release{Pos: pair[0], At: at(20)})
		cmds := m.Handle(Press{Pos: pair[1], At: at(100)})

		rejected, ok := find[ConnectionRejected](cmds)
		require.True(t, ok)
		assert.ErrorIs(t, rejected.Reason, store.ErrDuplicateConnection)
		assert.False(t, Mutates(cmds))
		assert.IsType(t, ConnectionPending{}, m.Session().State)

		m.Handle(Cancel{})
		require.IsType(t, Idle{}, m.Session().State)
	}
	assert.Len(t, st.Connections(), 1)
}

func TestDraggingConnection(t *testing.T) {
	m, st := newTestMachine(t)

	m.Handle(Press{Pos: screen(0, 0), At: at(0), Modifier: true})
	cmds := m.Handle(Move{Pos: screen(150, 0), At: at(40)})

	preview, ok := find[ConnectionPreview](cmds)
	require.True(t, ok)
	assert.True(t, preview.Active)
	assert.Equal(t, "A", preview.SourceID)
	require.IsType(t, DraggingConnection{}, m.Session().State)
	assert.Zero(t, m.timers.Len())

	cmds = m.Handle(Release{Pos: screen(300, 0), At: at(400)})
	created, ok := find[ConnectionCreated](cmds)
	require.True(t, ok)
	assert.Equal(t, "B", created.Connection.TargetID)
	preview, _ = find[ConnectionPreview](cmds)
	assert.False(t, preview.Active)
	assert.IsType(t, Idle{}, m.Session().State)
	assert.Len(t, st.Connections(), 1)
}

func TestDraggingConnectionReleasedOutsideCancels(t *testing.T) {
	tests := []struct {
		name    string
		release diagram.Point
	}{
		{"empty canvas", diagram.Point{X: 20, Y: 20}},
		{"back on source", screen(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, st := newTestMachine(t)
			m.Handle(Press{Pos: screen(0, 0), At: at(0), Modifier: true})
			m.Handle(Move{Pos: screen(150, 0), At: at(40)})
			cmds := m.Handle(Release{Pos: tt.release, At: at(400)})

			assert.Zero(t, count[ConnectionCreated](cmds))
			assert.Empty(t, st.Connections())
			assert.IsType(t, Idle{}, m.Session().State)
		})
	}
}

func TestPressConnectionSelectsIt(t *testing.T) {
	m, st := newTestMachine(t)
	_, err := st.AddConnection(diagram.Connection{ID: "ab", SourceID: "A", TargetID: "B", Type: diagram.ConnectionStraight})
	require.NoError(t, err)

	m.Handle(Press{Pos: screen(150, 3), At: at(0)})

	id, ok := m.Session().SelectedConnection()
	require.True(t, ok)
	assert.Equal(t, "ab", id)
	assert.IsType(t, Idle{}, m.Session().State)
}

func TestEraseTool(t *testing.T) {
	m, st := newTestMachine(t)
	_, err := st.AddConnection(diagram.Connection{ID: "ab", SourceID: "A", TargetID: "B", Type: diagram.ConnectionStraight})
	require.NoError(t, err)
	_, err = st.AddConnection(diagram.Connection{ID: "ac", SourceID: "A", TargetID: "C"})
	require.NoError(t, err)
	_, err = st.AddConnection(diagram.Connection{ID: "bc", SourceID: "B", TargetID: "C"})
	require.NoError(t, err)

	m.Handle(SetTool{Tool: ToolErase})

	cmds := m.Handle(Press{Pos: screen(150, 0), At: at(0)})
	deleted, ok := find[ConnectionDeleted](cmds)
	require.True(t, ok)
	assert.Equal(t, "ab", deleted.ID)
	m.Handle(Release{Pos: screen(150, 0), At: at(30)})

	cmds = m.Handle(Press{Pos: screen(0, 200), At: at(1000)})
	nodeDeleted, ok := find[NodeDeleted](cmds)
	require.True(t, ok)
	assert.Equal(t, "C", nodeDeleted.ID)
	assert.ElementsMatch(t, []string{"ac", "bc"}, nodeDeleted.Connections)
	assert.Empty(t, st.Connections())
	assert.IsType(t, Idle{}, m.Session().State, "erasing is a tool, not a gesture state")
}

func TestToolSwitchClearsSession(t *testing.T) {
	t.Run("editing", func(t *testing.T) {
		m, _ := newTestMachine(t)
		m.Handle(DoubleTap{Pos: screen(0, 0), At: at(0)})

		cmds := m.Handle(SetTool{Tool: ToolErase})

		_, ended := find[EditEnded](cmds)
		assert.True(t, ended)
		assert.IsType(t, Idle{}, m.Session().State)
		assert.Equal(t, NoSelection{}, m.Session().Selection)
		assert.Equal(t, ToolErase, m.Session().Tool)
	})

	t.Run("pending connection", func(t *testing.T) {
		m, _ := newTestMachine(t)
		m.Handle(Press{Pos: screen(300, 0), At: at(0)})
		m.Handle(Release{Pos: screen(300, 0), At: at(20)})
		m.Handle(Press{Pos: screen(0, 0), At: at(1000), Modifier: true})

		m.Handle(SetTool{Tool: ToolSelect})

		assert.IsType(t, Idle{}, m.Session().State)
		assert.Equal(t, NoSelection{}, m.Session().Selection)
		assert.Zero(t, m.timers.Len())
	})

	t.Run("dragging", func(t *testing.T) {
		m, st := newTestMachine(t)
		m.Handle(Press{Pos: screen(0, 0), At: at(0)})
		m.Handle(Move{Pos: screen(90, 0), At: at(10)})

		m.Handle(SetTool{Tool: ToolErase})

		_, live := st.Live("A")
		assert.False(t, live)
		n, _ := st.Node("A")
		assert.Equal(t, 0.0, n.X)
	})
}

func TestDeleteSelectionCascades(t *testing.T) {
	m, st := newTestMachine(t)
	_, err := st.AddConnection(diagram.Connection{ID: "ab", SourceID: "A", TargetID: "B"})
	require.NoError(t, err)
	_, err = st.AddConnection(diagram.Connection{ID: "bc", SourceID: "B", TargetID: "C"})
	require.NoError(t, err)

	m.Handle(Press{Pos: screen(0, 0), At: at(0)})
	m.Handle(Release{Pos: screen(0, 0), At: at(20)})
	cmds := m.Handle(DeleteSelection{})

	deleted, ok := find[NodeDeleted](cmds)
	require.True(t, ok)
	assert.Equal(t, []string{"ab"}, deleted.Connections)

	conns := st.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "bc", conns[0].ID)
	assert.Equal(t, NoSelection{}, m.Session().Selection)
}

func TestReconcileDropsDeletedSource(t *testing.T) {
	m, st := newTestMachine(t)
	m.Handle(Press{Pos: screen(0, 0), At: at(0), Modifier: true})
	m.Handle(Release{Pos: screen(0, 0), At: at(20)})

	_, err := st.DeleteNode("A")
	require.NoError(t, err)
	m.Reconcile()

	assert.IsType(t, Idle{}, m.Session().State)
	assert.Zero(t, m.timers.Len())
}

func TestLostReleaseIsRecovered(t *testing.T) {
	m, st := newTestMachine(t)

	m.Handle(Press{Pos: screen(0, 0), At: at(0)})
	m.Handle(Move{Pos: screen(40, 0), At: at(10)})
	m.Handle(Press{Pos: diagram.Point{X: 20, Y: 20}, At: at(2000)})

	n, _ := st.Node("A")
	assert.Equal(t, 40.0, n.X)
	assert.IsType(t, PanningCanvas{}, m.Session().State)
}
