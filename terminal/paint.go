package terminal

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"mindmaps/diagram"
	"mindmaps/engine"
	"mindmaps/geometry"
	"mindmaps/sizing"
)

// Line glyphs by direction sector, starting east and turning clockwise.
var (
	lineGlyphs  = [8]rune{'─', '╲', '│', '╱', '─', '╲', '│', '╱'}
	arrowGlyphs = [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}
)

type border struct {
	h, v, tl, tr, bl, br rune
}

var (
	plainBorder    = border{'─', '│', '┌', '┐', '└', '┘'}
	selectedBorder = border{'═', '║', '╔', '╗', '╚', '╝'}
)

// Painter draws frames onto a screen. The bottom row is the status line.
type Painter struct {
	screen tcell.Screen
	grid   Grid
}

// NewPainter creates a painter for screen.
func NewPainter(screen tcell.Screen, grid Grid) *Painter {
	return &Painter{screen: screen, grid: grid}
}

// Overlay is what the painter shows besides the frame.
type Overlay struct {
	Title   string
	Editing []rune // title being typed, when editing
	Message string
	Latched bool
}

// Paint clears the screen and draws f. Connections go below nodes.
func (p *Painter) Paint(f engine.Frame, o Overlay) {
	p.screen.Clear()

	for _, r := range f.Routes {
		p.route(r, r.Connection.ID == f.SelectedConnection)
	}
	if f.Preview != nil {
		p.line(f.Preview.From, f.Preview.To, tcell.StyleDefault.Foreground(tcell.ColorYellow), '·')
	}
	for _, n := range f.Nodes {
		p.node(n, o.Editing)
	}
	p.status(f, o)
}

func (p *Painter) route(r geometry.Routed, selected bool) {
	style := tcell.StyleDefault.Foreground(color(r.Connection.Color, tcell.ColorGray))
	if selected {
		style = style.Bold(true).Reverse(true)
	}

	pts := r.Path.Sample(p.samples(r.Path.Length()))
	for i := 0; i+1 < len(pts); i++ {
		d := pts[i+1].Sub(pts[i])
		if d.X == 0 && d.Y == 0 {
			continue
		}
		glyph := lineGlyphs[geometry.SectorOf(geometry.Angle(d.X, d.Y))]
		p.set(pts[i], glyph, style)
	}
	for _, a := range r.Arrows {
		p.set(a.Tip, arrowGlyphs[geometry.SectorOf(a.Angle)], style.Bold(true))
	}
}

// line draws a straight dotted line.
func (p *Painter) line(from, to diagram.Point, style tcell.Style, glyph rune) {
	n := p.samples(from.Dist(to))
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		p.set(diagram.Point{X: from.X + (to.X-from.X)*t, Y: from.Y + (to.Y-from.Y)*t}, glyph, style)
	}
}

// samples picks enough points to touch every cell along a path.
func (p *Painter) samples(length float64) int {
	step := math.Min(p.grid.CellWidth, p.grid.CellHeight) / 2
	n := int(math.Ceil(length / step))
	if n < 1 {
		n = 1
	}
	return n
}

func (p *Painter) set(pt diagram.Point, r rune, style tcell.Style) {
	col, row := p.grid.Cell(pt)
	w, h := p.screen.Size()
	if col < 0 || row < 0 || col >= w || row >= h-1 {
		return
	}
	p.screen.SetContent(col, row, r, nil, style)
}

func (p *Painter) node(n engine.NodeView, editing []rune) {
	c0, r0, c1, r1 := p.grid.Span(n.Rect)
	if c1-c0 < 2 {
		c1 = c0 + 2
	}
	if r1-r0 < 2 {
		r1 = r0 + 2
	}

	style := tcell.StyleDefault.
		Foreground(color(n.Node.BorderColor, tcell.ColorWhite)).
		Background(color(n.Node.Color, tcell.ColorDefault))
	b := plainBorder
	switch {
	case n.Editing:
		b = selectedBorder
		style = style.Foreground(tcell.ColorYellow)
	case n.Selected:
		b = selectedBorder
	case n.Source:
		style = style.Foreground(tcell.ColorGreen).Bold(true)
	}

	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			r := ' '
			switch {
			case row == r0 && col == c0:
				r = b.tl
			case row == r0 && col == c1:
				r = b.tr
			case row == r1 && col == c0:
				r = b.bl
			case row == r1 && col == c1:
				r = b.br
			case row == r0 || row == r1:
				r = b.h
			case col == c0 || col == c1:
				r = b.v
			}
			p.cell(col, row, r, style)
		}
	}

	inner := c1 - c0 - 1
	rows := r1 - r0 - 1
	var lines []string
	if n.Editing {
		lines = []string{sizing.Fit(string(editing)+"▏", inner, "…")}
	} else {
		lines = sizing.Lines(n.Node.Title, inner, rows)
	}
	top := r0 + 1 + (rows-len(lines))/2
	for i, line := range lines {
		left := c0 + 1 + (inner-runewidth.StringWidth(line))/2
		p.text(left, top+i, line, style)
	}
}

// text writes s from col, advancing by each rune's display width.
func (p *Painter) text(col, row int, s string, style tcell.Style) int {
	for _, r := range s {
		p.cell(col, row, r, style)
		col += runewidth.RuneWidth(r)
	}
	return col
}

func (p *Painter) cell(col, row int, r rune, style tcell.Style) {
	w, h := p.screen.Size()
	if col < 0 || row < 0 || col >= w || row >= h-1 {
		return
	}
	p.screen.SetContent(col, row, r, nil, style)
}

func (p *Painter) status(f engine.Frame, o Overlay) {
	w, h := p.screen.Size()
	if h == 0 {
		return
	}
	style := tcell.StyleDefault.Reverse(true)
	title := o.Title
	if title == "" {
		title = "untitled"
	}
	line := fmt.Sprintf("[ %s ] Nodes: %d | Connections: %d | Tool: %s | %s",
		title, len(f.Nodes), len(f.Routes), f.Tool, f.State)
	if o.Latched {
		line += " | CONNECT"
	}
	if o.Message != "" {
		line += " | " + o.Message
	}
	line = sizing.Fit(line, w, "…")

	col := 0
	for _, r := range line {
		p.screen.SetContent(col, h-1, r, nil, style)
		col += runewidth.RuneWidth(r)
	}
	for ; col < w; col++ {
		p.screen.SetContent(col, h-1, ' ', nil, style)
	}
}

// color parses a #rrggbb colour, falling back to def.
func color(s string, def tcell.Color) tcell.Color {
	if s == "" {
		return def
	}
	if c := tcell.GetColor(s); c != tcell.ColorDefault {
		return c
	}
	return def
}
