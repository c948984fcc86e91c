package editor

import (
	"mindmaps/diagram"
)

// History keeps graph snapshots for undo/redo. States are stored as deep
// copies, never shared with the store.
type History struct {
	states  []diagram.Graph
	current int // Current position in history
	max     int // Maximum number of states to keep
}

// NewHistory creates a history holding at most max snapshots.
func NewHistory(max int) *History {
	if max <= 0 {
		max = 50
	}
	return &History{
		states:  make([]diagram.Graph, 0, max),
		current: -1,
		max:     max,
	}
}

// Save records a new state. Anything that was undone is dropped.
func (h *History) Save(g diagram.Graph) {
	clone := g.Clone()

	// If we're not at the end, truncate everything after current
	if h.current < len(h.states)-1 {
		h.states = h.states[:h.current+1]
	}

	h.states = append(h.states, clone)

	// If we exceed max, remove oldest
	if len(h.states) > h.max {
		h.states = h.states[1:]
	} else {
		h.current++
	}
}

// CanUndo returns true if we can undo
func (h *History) CanUndo() bool {
	return h.current > 0
}

// CanRedo returns true if we can redo
func (h *History) CanRedo() bool {
	return h.current < len(h.states)-1
}

// Undo steps back one state.
func (h *History) Undo() (diagram.Graph, bool) {
	if !h.CanUndo() {
		return diagram.Graph{}, false
	}
	h.current--
	return h.states[h.current].Clone(), true
}

// Redo steps forward one state.
func (h *History) Redo() (diagram.Graph, bool) {
	if !h.CanRedo() {
		return diagram.Graph{}, false
	}
	h.current++
	return h.states[h.current].Clone(), true
}

// Clear clears all history
func (h *History) Clear() {
	h.states = h.states[:0]
	h.current = -1
}

// Stats returns current position and total states
func (h *History) Stats() (current, total int) {
	return h.current + 1, len(h.states)
}
