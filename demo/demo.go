// Package demo plays scripted gestures into the terminal editor, for
// recordings and smoke tests of the interaction core.
package demo

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Step is a single scripted action. Coordinates are terminal cells; move
// holds the step's button down.
type Step struct {
	Action   string   `yaml:"action" validate:"required,oneof=press move release click drag key type pause"`
	X        int      `yaml:"x" validate:"gte=0"`
	Y        int      `yaml:"y" validate:"gte=0"`
	ToX      int      `yaml:"to_x,omitempty" validate:"gte=0"`
	ToY      int      `yaml:"to_y,omitempty" validate:"gte=0"`
	Button   string   `yaml:"button,omitempty" validate:"omitempty,oneof=primary secondary"`
	Mods     []string `yaml:"mods,omitempty" validate:"dive,oneof=shift ctrl alt meta"`
	Key      string   `yaml:"key,omitempty" validate:"required_if=Action key"`
	Text     string   `yaml:"text,omitempty" validate:"required_if=Action type"`
	Delay    int      `yaml:"delay,omitempty" validate:"gte=0"` // ms after the step
	Variance int      `yaml:"variance,omitempty" validate:"gte=0"`
}

// Script is a named list of steps.
type Script struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description,omitempty"`
	BaseDelay    int    `yaml:"base_delay,omitempty" validate:"gte=0"`
	BaseVariance int    `yaml:"base_variance,omitempty" validate:"gte=0"`
	Steps        []Step `yaml:"steps" validate:"required,min=1,dive"`
}

// Parse decodes and validates a YAML script, filling default delays.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing demo script: %w", err)
	}
	if err := validator.New().Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid demo script: %w", err)
	}
	for _, st := range s.Steps {
		if st.Action == "key" {
			if _, _, ok := namedKey(st.Key); !ok {
				return nil, fmt.Errorf("invalid demo script: unknown key %q", st.Key)
			}
		}
	}
	if s.BaseDelay == 0 {
		s.BaseDelay = 300
	}
	if s.BaseVariance == 0 {
		s.BaseVariance = 100
	}
	return &s, nil
}

// Load reads a script from path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading demo script: %w", err)
	}
	return Parse(data)
}

// Poster receives synthesized events. tcell.Screen satisfies it.
type Poster interface {
	PostEvent(ev tcell.Event) error
}

// Player posts a script's events with human-like timing.
type Player struct {
	script *Script
	target Poster
	rnd    *rand.Rand
	sleep  func(context.Context, time.Duration) error
}

// NewPlayer returns a player for script posting into target.
func NewPlayer(script *Script, target Poster) *Player {
	return &Player{
		script: script,
		target: target,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Play runs the script to the end or until ctx is done.
func (p *Player) Play(ctx context.Context) error {
	for i, st := range p.script.Steps {
		if err := p.step(ctx, st); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Action, err)
		}
		if err := p.sleep(ctx, p.delay(st)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) delay(st Step) time.Duration {
	d, v := st.Delay, st.Variance
	if d == 0 {
		d = p.script.BaseDelay
	}
	if v == 0 {
		v = p.script.BaseVariance
	}
	if v > 0 {
		d += p.rnd.Intn(v*2) - v
	}
	if d < 50 {
		d = 50
	}
	return time.Duration(d) * time.Millisecond
}

func (p *Player) step(ctx context.Context, st Step) error {
	btn, mod := buttonMask(st.Button), modMask(st.Mods)
	switch st.Action {
	case "press":
		return p.post(tcell.NewEventMouse(st.X, st.Y, btn, mod))
	case "move":
		return p.post(tcell.NewEventMouse(st.X, st.Y, btn, mod))
	case "release":
		return p.post(tcell.NewEventMouse(st.X, st.Y, tcell.ButtonNone, mod))
	case "click":
		if err := p.post(tcell.NewEventMouse(st.X, st.Y, btn, mod)); err != nil {
			return err
		}
		return p.post(tcell.NewEventMouse(st.X, st.Y, tcell.ButtonNone, mod))
	case "drag":
		return p.drag(ctx, st, btn, mod)
	case "key":
		k, r, _ := namedKey(st.Key)
		return p.post(tcell.NewEventKey(k, r, mod))
	case "type":
		for _, r := range st.Text {
			if err := p.post(tcell.NewEventKey(tcell.KeyRune, r, mod)); err != nil {
				return err
			}
			if err := p.sleep(ctx, time.Duration(30+p.rnd.Intn(40))*time.Millisecond); err != nil {
				return err
			}
		}
	}
	return nil
}

// dragSteps is the number of intermediate moves in a drag.
const dragSteps = 6

func (p *Player) drag(ctx context.Context, st Step, btn tcell.ButtonMask, mod tcell.ModMask) error {
	if err := p.post(tcell.NewEventMouse(st.X, st.Y, btn, mod)); err != nil {
		return err
	}
	for i := 1; i <= dragSteps; i++ {
		x := st.X + (st.ToX-st.X)*i/dragSteps
		y := st.Y + (st.ToY-st.Y)*i/dragSteps
		if err := p.post(tcell.NewEventMouse(x, y, btn, mod)); err != nil {
			return err
		}
		if err := p.sleep(ctx, 16*time.Millisecond); err != nil {
			return err
		}
	}
	return p.post(tcell.NewEventMouse(st.ToX, st.ToY, tcell.ButtonNone, mod))
}

func (p *Player) post(ev tcell.Event) error {
	return p.target.PostEvent(ev)
}

func buttonMask(name string) tcell.ButtonMask {
	if name == "secondary" {
		return tcell.Button2
	}
	return tcell.Button1
}

func modMask(mods []string) tcell.ModMask {
	var m tcell.ModMask
	for _, name := range mods {
		switch name {
		case "shift":
			m |= tcell.ModShift
		case "ctrl":
			m |= tcell.ModCtrl
		case "alt":
			m |= tcell.ModAlt
		case "meta":
			m |= tcell.ModMeta
		}
	}
	return m
}

func namedKey(name string) (tcell.Key, rune, bool) {
	switch strings.ToLower(name) {
	case "enter":
		return tcell.KeyEnter, '\r', true
	case "esc", "escape":
		return tcell.KeyEscape, 0, true
	case "backspace":
		return tcell.KeyBackspace2, 0, true
	case "delete":
		return tcell.KeyDelete, 0, true
	case "left":
		return tcell.KeyLeft, 0, true
	case "right":
		return tcell.KeyRight, 0, true
	case "up":
		return tcell.KeyUp, 0, true
	case "down":
		return tcell.KeyDown, 0, true
	case "ctrl-z":
		return tcell.KeyCtrlZ, 0, true
	case "ctrl-r":
		return tcell.KeyCtrlR, 0, true
	case "ctrl-s":
		return tcell.KeyCtrlS, 0, true
	}
	if r := []rune(name); len(r) == 1 {
		return tcell.KeyRune, r[0], true
	}
	return 0, 0, false
}

// Example is a script that creates two nodes, names them and connects them.
const Example = `name: Dos ideas
description: Create two nodes and connect them
base_delay: 400
base_variance: 150
steps:
  - {action: click, x: 20, y: 10, delay: 60, variance: 1}
  - {action: click, x: 20, y: 10, delay: 800}
  - {action: type, text: Agua}
  - {action: key, key: enter, delay: 600}
  - {action: click, x: 60, y: 10, delay: 60, variance: 1}
  - {action: click, x: 60, y: 10, delay: 800}
  - {action: type, text: Vapor}
  - {action: key, key: enter, delay: 600}
  - {action: drag, x: 21, y: 10, to_x: 60, to_y: 10, button: secondary, delay: 800}
  - {action: pause, delay: 2000}
`
