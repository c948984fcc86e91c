package editor

import "mindmaps/diagram"

// Command is an outcome of handling an event, for the front end to paint or
// for the engine to persist.
type Command interface {
	command()
}

type NodeCreated struct {
	Node diagram.Node
}

// NodeMoved reports a drag step (Live) or the committed drop position.
type NodeMoved struct {
	ID       string
	Position diagram.Point
	Live     bool
}

// NodeDeleted lists the connections removed with the node.
type NodeDeleted struct {
	ID          string
	Connections []string
}

type TitleChanged struct {
	ID    string
	Title string
}

type ConnectionCreated struct {
	Connection diagram.Connection
}

type ConnectionDeleted struct {
	ID string
}

// ConnectionRejected is a self or duplicate connection attempt. It is not an
// error for the user; front ends may ignore it.
type ConnectionRejected struct {
	SourceID string
	TargetID string
	Reason   error
}

type Selected struct {
	Selection Selection
}

type EditStarted struct {
	NodeID string
	Title  string
}

// EditEnded always releases input focus from the title field.
type EditEnded struct {
	NodeID       string
	Committed    bool
	ReleaseFocus bool
}

type Panned struct {
	Offset diagram.Point
}

// ConnectionPreview draws the rubber band from Source to Pointer. Active is
// false once the preview should be cleared.
type ConnectionPreview struct {
	SourceID string
	Pointer  diagram.Point
	Active   bool
}

type StateChanged struct {
	From string
	To   string
}

type ToolChanged struct {
	Tool Tool
}

func (NodeCreated) command()        {}
func (NodeMoved) command()          {}
func (NodeDeleted) command()        {}
func (TitleChanged) command()       {}
func (ConnectionCreated) command()  {}
func (ConnectionDeleted) command()  {}
func (ConnectionRejected) command() {}
func (Selected) command()           {}
func (EditStarted) command()        {}
func (EditEnded) command()          {}
func (Panned) command()             {}
func (ConnectionPreview) command()  {}
func (StateChanged) command()       {}
func (ToolChanged) command()        {}

// Mutates reports whether any command changed the committed graph.
func Mutates(cmds []Command) bool {
	for _, c := range cmds {
		switch c := c.(type) {
		case NodeCreated, NodeDeleted, TitleChanged, ConnectionCreated, ConnectionDeleted:
			return true
		case NodeMoved:
			if !c.Live {
				return true
			}
		}
	}
	return false
}
