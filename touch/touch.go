// Package touch translates touch screen input into editor events.
//
// Touch screens have no keyboard modifier, so connecting is armed with a
// latch (a toolbar toggle in the app). Only the first finger down is
// followed; further fingers are ignored until it lifts.
package touch

import (
	"time"

	"go.uber.org/zap"

	"mindmaps/diagram"
	"mindmaps/editor"
)

// Phase is the stage of a touch.
type Phase int

const (
	Start Phase = iota
	Moved
	End
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Start:
		return "start"
	case Moved:
		return "move"
	case End:
		return "end"
	case Cancelled:
		return "cancel"
	default:
		return "unknown"
	}
}

// Touch is one finger.
type Touch struct {
	ID  int
	Pos diagram.Point // screen space
}

// Event is a raw touch event as delivered by the platform. Changed lists
// the fingers this event is about. TapCount is the platform's count of
// quick successive taps at the same spot.
type Event struct {
	Phase    Phase
	Changed  []Touch
	At       time.Time
	TapCount int
}

// Sink consumes editor events. *engine.Engine satisfies it.
type Sink interface {
	ApplyGesture(ev editor.Event) []editor.Command
}

// Translator turns touch events into editor events. It is not safe for
// concurrent use.
type Translator struct {
	latch  bool
	sticky bool

	tracking bool
	id       int
	last     diagram.Point

	logger *zap.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithStickyLatch keeps the connect latch armed after it is used.
func WithStickyLatch() Option {
	return func(t *Translator) { t.sticky = true }
}

func WithLogger(logger *zap.Logger) Option {
	return func(t *Translator) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a Translator.
func New(opts ...Option) *Translator {
	t := &Translator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetLatch arms or disarms connecting. While armed, the next finger down
// is a press with the connect modifier.
func (t *Translator) SetLatch(on bool) {
	t.latch = on
}

// Latched reports whether connecting is armed.
func (t *Translator) Latched() bool {
	return t.latch
}

// Active reports whether a finger is being followed.
func (t *Translator) Active() bool {
	return t.tracking
}

// Translate converts ev. Events for fingers other than the followed one
// produce nothing.
func (t *Translator) Translate(ev Event) []editor.Event {
	var out []editor.Event
	for _, touch := range ev.Changed {
		if e, ok := t.translate(ev, touch); ok {
			out = append(out, e)
		}
	}
	return out
}

func (t *Translator) translate(ev Event, touch Touch) (editor.Event, bool) {
	switch ev.Phase {
	case Start:
		if t.tracking {
			if touch.ID != t.id {
				t.logger.Debug("ignoring extra finger", zap.Int("touch_id", touch.ID))
				return nil, false
			}
			// A start for the finger we already follow means its end was
			// lost; the editor recovers the release itself.
		}
		t.tracking = true
		t.id = touch.ID
		t.last = touch.Pos

		if ev.TapCount >= 2 {
			return editor.DoubleTap{Pos: touch.Pos, At: ev.At}, true
		}
		press := editor.Press{Pos: touch.Pos, At: ev.At, Modifier: t.latch}
		if t.latch && !t.sticky {
			t.latch = false
		}
		return press, true

	case Moved:
		if !t.follows(touch) {
			return nil, false
		}
		t.last = touch.Pos
		return editor.Move{Pos: touch.Pos, At: ev.At}, true

	case End:
		if !t.follows(touch) {
			return nil, false
		}
		t.tracking = false
		return editor.Release{Pos: touch.Pos, At: ev.At}, true

	case Cancelled:
		if !t.follows(touch) {
			return nil, false
		}
		// The platform took the touch over; lift the finger where it was
		// last seen.
		t.tracking = false
		t.logger.Debug("touch cancelled", zap.Int("touch_id", touch.ID))
		return editor.Release{Pos: t.last, At: ev.At}, true
	}
	return nil, false
}

func (t *Translator) follows(touch Touch) bool {
	return t.tracking && touch.ID == t.id
}

// Dispatch translates ev and feeds the result to sink, returning every
// command produced.
func (t *Translator) Dispatch(sink Sink, ev Event) []editor.Command {
	var cmds []editor.Command
	for _, e := range t.Translate(ev) {
		cmds = append(cmds, sink.ApplyGesture(e)...)
	}
	return cmds
}
