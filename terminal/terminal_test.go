package terminal

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmaps/diagram"
	"mindmaps/editor"
	"mindmaps/engine"
)

// newTestApp opens a two node map on a 100x40 simulated screen. With 8x16
// cells the viewport is 800x624 pixels and the world origin is the pixel
// (400, 312).
func newTestApp(t *testing.T) (*App, tcell.SimulationScreen, *engine.Engine) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(100, 40)

	e := engine.New(&diagram.MindMap{
		ID:    "m",
		Title: "Energía",
		Nodes: []diagram.Node{
			{ID: "A", Title: "A"},
			{ID: "B", Title: "B", X: 300},
		},
		Connections: []diagram.Connection{
			diagram.Connection{ID: "ab", SourceID: "A", TargetID: "B"}.WithDefaults(),
		},
	})
	app := NewApp(screen, e)
	app.Resize()
	return app, screen, e
}

func row(screen tcell.SimulationScreen, y int) string {
	w, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func cell(screen tcell.SimulationScreen, x, y int) rune {
	r, _, _, _ := screen.GetContent(x, y)
	return r
}

func click(app *App, col, row int) {
	app.Handle(tcell.NewEventMouse(col, row, tcell.ButtonPrimary, tcell.ModNone))
	app.Handle(tcell.NewEventMouse(col, row, tcell.ButtonNone, tcell.ModNone))
}

func key(app *App, k tcell.Key, r rune) bool {
	return app.Handle(tcell.NewEventKey(k, r, tcell.ModNone))
}

func TestPaintNodesAndConnections(t *testing.T) {
	app, screen, _ := newTestApp(t)
	app.Draw()

	// Node A is 100x50 pixels centred on (400, 312): cells 43..56 x 17..21.
	assert.Equal(t, '┌', cell(screen, 43, 17))
	assert.Equal(t, '┐', cell(screen, 56, 17))
	assert.Equal(t, '└', cell(screen, 43, 21))
	assert.Equal(t, '┘', cell(screen, 56, 21))
	assert.Equal(t, 'A', cell(screen, 49, 19))

	var drawn bool
	for y := 10; y < 30 && !drawn; y++ {
		for x := 57; x < 81; x++ {
			if strings.ContainsRune("─│╱╲→↘↓↙←↖↑↗", cell(screen, x, y)) {
				drawn = true
				break
			}
		}
	}
	assert.True(t, drawn, "connection between the nodes should be painted")

	status := row(screen, 39)
	assert.Contains(t, status, "[ Energía ]")
	assert.Contains(t, status, "Nodes: 2")
	assert.Contains(t, status, "Tool: SELECT")
}

func TestSelectedNodeUsesDoubleBorder(t *testing.T) {
	app, screen, e := newTestApp(t)

	click(app, 49, 19)
	id, ok := e.Session().SelectedNode()
	require.True(t, ok)
	assert.Equal(t, "A", id)

	app.Draw()
	assert.Equal(t, '╔', cell(screen, 43, 17))
}

func TestDoubleClickEditsTitle(t *testing.T) {
	app, screen, e := newTestApp(t)

	click(app, 49, 19)
	app.Handle(tcell.NewEventMouse(49, 19, tcell.ButtonPrimary, tcell.ModNone))
	_, editing := e.Session().EditingNode()
	require.True(t, editing)
	app.Handle(tcell.NewEventMouse(49, 19, tcell.ButtonNone, tcell.ModNone))

	key(app, tcell.KeyCtrlU, 0)
	for _, r := range "Sol" {
		key(app, tcell.KeyRune, r)
	}
	app.Draw()
	assert.Contains(t, row(screen, 19), "Sol▏")

	key(app, tcell.KeyEnter, 0)
	n, ok := e.MindMap().Graph().NodeByID("A")
	require.True(t, ok)
	assert.Equal(t, "Sol", n.Title)
	_, editing = app.input.Editing()
	assert.False(t, editing)

	// Keys are commands again once editing ends.
	assert.True(t, key(app, tcell.KeyRune, 'q'))
}

func TestUndoKey(t *testing.T) {
	app, _, e := newTestApp(t)

	click(app, 49, 19)
	key(app, tcell.KeyDelete, 0)
	require.Len(t, e.MindMap().Nodes, 1)
	assert.Contains(t, app.message, "Deleted node")

	key(app, tcell.KeyRune, 'u')
	assert.Len(t, e.MindMap().Nodes, 2)
	assert.Len(t, e.MindMap().Connections, 1)

	key(app, tcell.KeyRune, 'u')
	assert.Equal(t, "Nothing to undo", app.message)
}

func TestReloadedRepaintsExternalEdit(t *testing.T) {
	app, screen, e := newTestApp(t)

	cmds, ok := e.Reload(&diagram.MindMap{
		ID:        "m",
		Title:     "Energía",
		Nodes:     []diagram.Node{{ID: "A", Title: "Z"}},
		UpdatedAt: time.Now(),
	})
	require.True(t, ok)
	app.Handle(tcell.NewEventInterrupt(cmds))
	app.Draw()

	assert.Equal(t, 'Z', cell(screen, 49, 19))
	assert.Contains(t, row(screen, 39), "Reloaded from disk")
	assert.Contains(t, row(screen, 39), "Nodes: 1")
}

func TestPanKeys(t *testing.T) {
	app, _, e := newTestApp(t)
	before := e.Viewport().ScrollOffset

	key(app, tcell.KeyRight, 0)
	after := e.Viewport().ScrollOffset
	assert.Equal(t, before.X+32, after.X)

	key(app, tcell.KeyRune, 'g')
	assert.Equal(t, before, e.Viewport().ScrollOffset)
}

func TestInputMouse(t *testing.T) {
	in := NewInput(DefaultGrid())

	events, action, _ := in.Mouse(tcell.NewEventMouse(2, 3, tcell.ButtonSecondary, tcell.ModNone))
	require.Len(t, events, 1)
	press := events[0].(editor.Press)
	assert.True(t, press.Modifier)
	assert.Equal(t, diagram.Point{X: 20, Y: 56}, press.Pos)
	assert.Equal(t, ActionNone, action)

	events, _, _ = in.Mouse(tcell.NewEventMouse(4, 3, tcell.ButtonSecondary, tcell.ModNone))
	assert.IsType(t, editor.Move{}, events[0])
	events, _, _ = in.Mouse(tcell.NewEventMouse(4, 3, tcell.ButtonNone, tcell.ModNone))
	assert.IsType(t, editor.Release{}, events[0])

	in.ToggleLatch()
	events, _, _ = in.Mouse(tcell.NewEventMouse(0, 0, tcell.ButtonPrimary, tcell.ModNone))
	assert.True(t, events[0].(editor.Press).Modifier)
	assert.False(t, in.Latched(), "the latch is used up by one press")

	events, action, delta := in.Mouse(tcell.NewEventMouse(0, 0, tcell.WheelDown, tcell.ModNone))
	assert.Empty(t, events)
	assert.Equal(t, ActionPan, action)
	assert.Equal(t, diagram.Point{Y: -64}, delta)
}

func TestInputKeys(t *testing.T) {
	tests := []struct {
		name   string
		key    tcell.Key
		r      rune
		events []editor.Event
		action Action
	}{
		{"quit", tcell.KeyRune, 'q', nil, ActionQuit},
		{"ctrl-c", tcell.KeyCtrlC, 0, nil, ActionQuit},
		{"undo", tcell.KeyCtrlZ, 0, nil, ActionUndo},
		{"redo", tcell.KeyCtrlR, 0, nil, ActionRedo},
		{"save", tcell.KeyCtrlS, 0, nil, ActionSave},
		{"cancel", tcell.KeyEscape, 0, []editor.Event{editor.Cancel{}}, ActionNone},
		{"delete", tcell.KeyDelete, 0, []editor.Event{editor.DeleteSelection{}}, ActionNone},
		{"erase tool", tcell.KeyRune, 'x', []editor.Event{editor.SetTool{Tool: editor.ToolErase}}, ActionNone},
		{"select tool", tcell.KeyRune, 'v', []editor.Event{editor.SetTool{Tool: editor.ToolSelect}}, ActionNone},
		{"latch", tcell.KeyRune, 'c', nil, ActionLatch},
		{"unbound", tcell.KeyRune, 'z', nil, ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewInput(DefaultGrid())
			events, action, _ := in.Key(tcell.NewEventKey(tt.key, tt.r, tcell.ModNone))
			assert.Equal(t, tt.events, events)
			assert.Equal(t, tt.action, action)
		})
	}
}

func TestGridSpan(t *testing.T) {
	g := DefaultGrid()
	c0, r0, c1, r1 := g.Span(diagram.Rect{X: 350, Y: 287, Width: 100, Height: 50})
	assert.Equal(t, []int{43, 17, 56, 21}, []int{c0, r0, c1, r1})

	col, rw := g.Cell(g.Point(7, 9))
	assert.Equal(t, 7, col)
	assert.Equal(t, 9, rw)
}
