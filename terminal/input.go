package terminal

import (
	"github.com/gdamore/tcell/v2"

	"mindmaps/diagram"
	"mindmaps/editor"
)

// Action is a key binding handled by the app rather than the editor.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionUndo
	ActionRedo
	ActionSave
	ActionHome
	ActionPan
	ActionLatch
)

// panStep is how far the arrow keys scroll, in cells.
const panStep = 4

// Input translates tcell events into editor events. The secondary button,
// a held Ctrl, Alt or Shift, or the connect latch make a press connect.
type Input struct {
	grid    Grid
	down    bool
	latch   bool
	editing bool
	buffer  []rune
}

// NewInput creates an Input for grid.
func NewInput(grid Grid) *Input {
	return &Input{grid: grid}
}

// BeginEdit starts collecting a title, prefilled with title.
func (in *Input) BeginEdit(title string) {
	in.editing = true
	in.buffer = []rune(title)
}

// EndEdit stops collecting a title.
func (in *Input) EndEdit() {
	in.editing = false
	in.buffer = nil
}

// Editing returns the title being typed, if any.
func (in *Input) Editing() ([]rune, bool) {
	return in.buffer, in.editing
}

// Latched reports whether the next press connects.
func (in *Input) Latched() bool {
	return in.latch
}

// ToggleLatch arms or disarms connecting for the next press.
func (in *Input) ToggleLatch() {
	in.latch = !in.latch
}

// Mouse translates a mouse event. Wheel motion pans.
func (in *Input) Mouse(ev *tcell.EventMouse) ([]editor.Event, Action, diagram.Point) {
	col, row := ev.Position()
	pos := in.grid.Point(col, row)
	at := ev.When()
	buttons := ev.Buttons()

	switch {
	case buttons&tcell.WheelUp != 0:
		return nil, ActionPan, diagram.Point{Y: panStep * in.grid.CellHeight}
	case buttons&tcell.WheelDown != 0:
		return nil, ActionPan, diagram.Point{Y: -panStep * in.grid.CellHeight}
	case buttons&tcell.WheelLeft != 0:
		return nil, ActionPan, diagram.Point{X: panStep * in.grid.CellWidth}
	case buttons&tcell.WheelRight != 0:
		return nil, ActionPan, diagram.Point{X: -panStep * in.grid.CellWidth}
	}

	pressed := buttons&(tcell.ButtonPrimary|tcell.ButtonSecondary) != 0
	switch {
	case pressed && !in.down:
		in.down = true
		mod := buttons&tcell.ButtonSecondary != 0 ||
			ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt|tcell.ModShift) != 0 ||
			in.latch
		in.latch = false
		return []editor.Event{editor.Press{Pos: pos, At: at, Modifier: mod}}, ActionNone, diagram.Point{}
	case !pressed && in.down:
		in.down = false
		return []editor.Event{editor.Release{Pos: pos, At: at}}, ActionNone, diagram.Point{}
	default:
		return []editor.Event{editor.Move{Pos: pos, At: at}}, ActionNone, diagram.Point{}
	}
}

// Key translates a key event. While a title is being edited every key goes
// to the title.
func (in *Input) Key(ev *tcell.EventKey) ([]editor.Event, Action, diagram.Point) {
	if in.editing {
		return in.editKey(ev), ActionNone, diagram.Point{}
	}

	stepX := panStep * in.grid.CellWidth
	stepY := panStep * in.grid.CellHeight
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return nil, ActionQuit, diagram.Point{}
	case tcell.KeyCtrlZ:
		return nil, ActionUndo, diagram.Point{}
	case tcell.KeyCtrlR, tcell.KeyCtrlY:
		return nil, ActionRedo, diagram.Point{}
	case tcell.KeyCtrlS:
		return nil, ActionSave, diagram.Point{}
	case tcell.KeyEscape:
		in.latch = false
		return []editor.Event{editor.Cancel{}}, ActionNone, diagram.Point{}
	case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
		return []editor.Event{editor.DeleteSelection{}}, ActionNone, diagram.Point{}
	case tcell.KeyLeft:
		return nil, ActionPan, diagram.Point{X: stepX}
	case tcell.KeyRight:
		return nil, ActionPan, diagram.Point{X: -stepX}
	case tcell.KeyUp:
		return nil, ActionPan, diagram.Point{Y: stepY}
	case tcell.KeyDown:
		return nil, ActionPan, diagram.Point{Y: -stepY}
	case tcell.KeyRune:
	default:
		return nil, ActionNone, diagram.Point{}
	}

	switch ev.Rune() {
	case 'q':
		return nil, ActionQuit, diagram.Point{}
	case 'u':
		return nil, ActionUndo, diagram.Point{}
	case 'w':
		return nil, ActionSave, diagram.Point{}
	case 'g':
		return nil, ActionHome, diagram.Point{}
	case 'c':
		return nil, ActionLatch, diagram.Point{}
	case 'v':
		return []editor.Event{editor.SetTool{Tool: editor.ToolSelect}}, ActionNone, diagram.Point{}
	case 'x':
		return []editor.Event{editor.SetTool{Tool: editor.ToolErase}}, ActionNone, diagram.Point{}
	}
	return nil, ActionNone, diagram.Point{}
}

func (in *Input) editKey(ev *tcell.EventKey) []editor.Event {
	switch ev.Key() {
	case tcell.KeyEnter:
		return []editor.Event{editor.Confirm{Text: string(in.buffer)}}
	case tcell.KeyEscape:
		return []editor.Event{editor.Cancel{}}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(in.buffer) > 0 {
			in.buffer = in.buffer[:len(in.buffer)-1]
		}
	case tcell.KeyCtrlU:
		in.buffer = in.buffer[:0]
	case tcell.KeyRune:
		in.buffer = append(in.buffer, ev.Rune())
	}
	return nil
}
