package editor

import (
	"time"

	"mindmaps/diagram"
)

// Event is an input primitive. Front ends translate their raw pointer, touch
// and keyboard input into these; positions are in screen coordinates.
type Event interface {
	event()
}

// Press is a pointer or finger going down. Modifier is the connect
// modifier: a held key on the pointer surface, a latch on touch.
type Press struct {
	Pos      diagram.Point
	At       time.Time
	Modifier bool
}

// Move is pointer motion, with or without a button held.
type Move struct {
	Pos diagram.Point
	At  time.Time
}

// Release is the pointer or finger going up.
type Release struct {
	Pos diagram.Point
	At  time.Time
}

// DoubleTap is reported by front ends that detect double taps themselves.
// It is handled like a second press inside the double tap window.
type DoubleTap struct {
	Pos diagram.Point
	At  time.Time
}

// Tick advances event time so due timers fire.
type Tick struct {
	At time.Time
}

// Confirm commits the title being edited.
type Confirm struct {
	Text string
}

// Cancel abandons the current edit or connection.
type Cancel struct{}

// ForceExitEditing ends title editing from outside, e.g. when the parent
// view clears the editing node.
type ForceExitEditing struct{}

// SetTool switches the active tool.
type SetTool struct {
	Tool Tool
}

// DeleteSelection removes the selected node or connection.
type DeleteSelection struct{}

func (Press) event()            {}
func (Move) event()             {}
func (Release) event()          {}
func (DoubleTap) event()        {}
func (Tick) event()             {}
func (Confirm) event()          {}
func (Cancel) event()           {}
func (ForceExitEditing) event() {}
func (SetTool) event()          {}
func (DeleteSelection) event()  {}

// eventTime returns the time carried by timed events.
func eventTime(e Event) (time.Time, bool) {
	switch e := e.(type) {
	case Press:
		return e.At, true
	case Move:
		return e.At, true
	case Release:
		return e.At, true
	case DoubleTap:
		return e.At, true
	case Tick:
		return e.At, true
	}
	return time.Time{}, false
}
