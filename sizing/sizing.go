// Package sizing derives a node's box from its title. Size is a pure function
// of the trimmed text: identical text always yields identical dimensions.
package sizing

import (
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"mindmaps/diagram"
)

// Box limits and band thresholds.
const (
	MinWidth  = 100.0
	MinHeight = 44.0
	MaxWidth  = 220.0
	MaxHeight = 130.0

	ShortBand  = 18
	MediumBand = 28
	LongBand   = 40

	CharsPerLine = 22
	MaxLines     = 5

	LineHeight      = 18.0
	VerticalPadding = 10.0
)

// Size returns the box for a node titled text. Bands count runes, not
// terminal cells, so a title sizes the same on every client.
func Size(text string) diagram.Size {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)

	switch {
	case n == 0:
		return diagram.Size{Width: MinWidth, Height: MinHeight}
	case n <= ShortBand:
		return diagram.Size{Width: clamp(7*float64(n)+48, MinWidth, 180), Height: 50}
	case n <= MediumBand:
		return diagram.Size{Width: 190, Height: 70}
	case n <= LongBand:
		return diagram.Size{Width: 210, Height: 90}
	}

	lines := EstimateLines(text)
	if lines > MaxLines {
		lines = MaxLines
	}
	width := math.Max(210, 9*float64(longestWord(text))+32)
	return diagram.Size{
		Width:  clamp(width, 210, MaxWidth),
		Height: clamp(40+20*float64(lines), 90, MaxHeight),
	}
}

// EstimateLines is the number of lines the trimmed text wraps to at
// CharsPerLine characters per line.
func EstimateLines(text string) int {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n == 0 {
		return 0
	}
	return (n + CharsPerLine - 1) / CharsPerLine
}

// OptimalLineCount is how many text lines fit vertically inside a box.
func OptimalLineCount(size diagram.Size) int {
	lines := int(math.Floor((size.Height - 2*VerticalPadding) / LineHeight))
	if lines < 1 {
		return 1
	}
	return lines
}

// ShouldEllipsize reports whether text needs more lines than are available.
func ShouldEllipsize(text string, lines int) bool {
	return EstimateLines(text) > lines
}

func longestWord(text string) int {
	longest := 0
	for _, w := range strings.Fields(text) {
		if n := utf8.RuneCountInString(w); n > longest {
			longest = n
		}
	}
	return longest
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Engine memoizes Size. It is safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	cache   map[string]diagram.Size
	maxSize int
}

// NewEngine creates a memoizing sizer holding at most maxEntries titles.
func NewEngine(maxEntries int) *Engine {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &Engine{cache: make(map[string]diagram.Size), maxSize: maxEntries}
}

// Size returns the memoized box for text.
func (e *Engine) Size(text string) diagram.Size {
	key := strings.TrimSpace(text)

	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.cache[key]; ok {
		return s
	}
	s := Size(key)
	if len(e.cache) >= e.maxSize {
		// Reset once full.
		e.cache = make(map[string]diagram.Size)
	}
	e.cache[key] = s
	return s
}
