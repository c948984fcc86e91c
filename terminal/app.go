package terminal

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"mindmaps/diagram"
	"mindmaps/editor"
	"mindmaps/engine"
)

// App runs the terminal editor for one engine.
type App struct {
	screen  tcell.Screen
	engine  *engine.Engine
	grid    Grid
	input   *Input
	painter *Painter
	logger  *zap.Logger
	save    func(context.Context) error

	message string
}

// Option configures an App.
type Option func(*App)

func WithGrid(g Grid) Option {
	return func(a *App) { a.grid = g }
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSave sets what the save key does. Without it the key flushes the
// engine's background saver.
func WithSave(fn func(context.Context) error) Option {
	return func(a *App) { a.save = fn }
}

// NewApp creates an App drawing on screen. The screen must be initialised
// before Run or Handle is called.
func NewApp(screen tcell.Screen, e *engine.Engine, opts ...Option) *App {
	a := &App{
		screen: screen,
		engine: e,
		grid:   DefaultGrid(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.save == nil {
		a.save = func(ctx context.Context) error {
			e.Flush(ctx)
			return nil
		}
	}
	a.input = NewInput(a.grid)
	a.painter = NewPainter(screen, a.grid)
	return a
}

// Run processes input until the user quits or ctx is done. Gesture timers
// are ticked at their deadlines even when no input arrives.
func (a *App) Run(ctx context.Context) error {
	a.screen.EnableMouse()
	a.Resize()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go a.screen.ChannelEvents(events, quit)
	defer close(quit)

	for {
		a.Draw()

		var timer <-chan time.Time
		if at, ok := a.engine.NextDeadline(); ok {
			timer = time.After(time.Until(at))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-timer:
			a.apply(a.engine.Tick(now))
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if a.Handle(ev) {
				return nil
			}
		}
	}
}

// Handle processes one tcell event and reports whether the app should quit.
func (a *App) Handle(ev tcell.Event) bool {
	var (
		events []editor.Event
		action Action
		delta  diagram.Point
	)
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
		a.Resize()
		return false
	case *tcell.EventMouse:
		events, action, delta = a.input.Mouse(ev)
	case *tcell.EventKey:
		events, action, delta = a.input.Key(ev)
	case *tcell.EventInterrupt:
		if cmds, ok := ev.Data().([]editor.Command); ok {
			a.apply(cmds)
			a.message = "Reloaded from disk"
		}
		return false
	default:
		return false
	}

	for _, e := range events {
		a.apply(a.engine.ApplyGesture(e))
	}
	return a.do(action, delta)
}

func (a *App) do(action Action, delta diagram.Point) bool {
	switch action {
	case ActionQuit:
		return true
	case ActionUndo:
		if cmds, ok := a.engine.Undo(); ok {
			a.apply(cmds)
			a.message = "Undone"
		} else {
			a.message = "Nothing to undo"
		}
	case ActionRedo:
		if cmds, ok := a.engine.Redo(); ok {
			a.apply(cmds)
			a.message = "Redone"
		} else {
			a.message = "Nothing to redo"
		}
	case ActionSave:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.save(ctx); err != nil {
			a.logger.Error("save failed", zap.Error(err))
			a.message = fmt.Sprintf("Save failed: %v", err)
		} else {
			a.message = "Saved"
		}
	case ActionHome:
		a.engine.Home()
	case ActionPan:
		a.engine.Pan(delta)
	case ActionLatch:
		a.input.ToggleLatch()
	}
	return false
}

// apply updates the app from the engine's commands.
func (a *App) apply(cmds []editor.Command) {
	for _, c := range cmds {
		switch c := c.(type) {
		case editor.EditStarted:
			a.input.BeginEdit(c.Title)
		case editor.EditEnded:
			a.input.EndEdit()
		case editor.ConnectionRejected:
			a.message = fmt.Sprintf("Cannot connect: %v", c.Reason)
		case editor.NodeCreated:
			a.message = ""
		case editor.NodeDeleted:
			a.message = fmt.Sprintf("Deleted node and %d connections", len(c.Connections))
		case editor.ToolChanged:
			a.message = ""
		}
	}
}

// Reloaded hands the app commands produced outside its event loop, such as
// the reconcile after an external edit. Safe to call from any goroutine.
func (a *App) Reloaded(cmds []editor.Command) {
	if err := a.screen.PostEvent(tcell.NewEventInterrupt(cmds)); err != nil {
		a.logger.Debug("reload event dropped", zap.Error(err))
	}
}

// Resize matches the engine viewport to the screen, minus the status line.
func (a *App) Resize() {
	cols, rows := a.screen.Size()
	if rows > 1 {
		rows--
	}
	w, h := a.grid.Size(cols, rows)
	a.engine.Resize(w, h)
}

// Draw paints the current frame.
func (a *App) Draw() {
	editing, _ := a.input.Editing()
	a.painter.Paint(a.engine.Frame(), Overlay{
		Title:   a.engine.MindMap().Title,
		Editing: editing,
		Message: a.message,
		Latched: a.input.Latched(),
	})
	a.screen.Show()
}
