// Package terminal is the pointer surface: a full screen editor drawn with
// tcell. Mouse and keyboard input become editor events for the engine and
// each frame is painted into character cells.
package terminal

import (
	"math"

	"mindmaps/diagram"
)

// Grid maps character cells to canvas pixels. Cells are taller than wide,
// so the map keeps the proportions of the canvas.
type Grid struct {
	CellWidth  float64 `yaml:"cell_width" toml:"cell_width" json:"cellWidth" validate:"gt=0"`
	CellHeight float64 `yaml:"cell_height" toml:"cell_height" json:"cellHeight" validate:"gt=0"`
}

// DefaultGrid returns an 8x16 pixel cell.
func DefaultGrid() Grid {
	return Grid{CellWidth: 8, CellHeight: 16}
}

// Point returns the pixel at the centre of a cell.
func (g Grid) Point(col, row int) diagram.Point {
	return diagram.Point{
		X: (float64(col) + 0.5) * g.CellWidth,
		Y: (float64(row) + 0.5) * g.CellHeight,
	}
}

// Cell returns the cell containing pixel p.
func (g Grid) Cell(p diagram.Point) (col, row int) {
	return int(math.Floor(p.X / g.CellWidth)), int(math.Floor(p.Y / g.CellHeight))
}

// Span returns the cells covered by r: the first column and row and the
// last ones, inclusive.
func (g Grid) Span(r diagram.Rect) (c0, r0, c1, r1 int) {
	c0, r0 = g.Cell(diagram.Point{X: r.X, Y: r.Y})
	c1 = int(math.Ceil((r.X+r.Width)/g.CellWidth)) - 1
	r1 = int(math.Ceil((r.Y+r.Height)/g.CellHeight)) - 1
	if c1 < c0 {
		c1 = c0
	}
	if r1 < r0 {
		r1 = r0
	}
	return c0, r0, c1, r1
}

// Size returns the pixel size of cols x rows cells.
func (g Grid) Size(cols, rows int) (width, height float64) {
	return float64(cols) * g.CellWidth, float64(rows) * g.CellHeight
}
