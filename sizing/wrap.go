package sizing

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// WrapMode defines how text wrapping should handle long words.
type WrapMode int

const (
	// WrapModeWord wraps at word boundaries (default). Words longer than
	// the line overflow on a line of their own.
	WrapModeWord WrapMode = iota
	// WrapModeChar breaks long words at character boundaries.
	WrapModeChar
)

// Wrap wraps text to fit within maxWidth display cells using word boundaries.
func Wrap(text string, maxWidth int) []string {
	return WrapWith(text, maxWidth, WrapModeWord)
}

// WrapWith wraps text to fit within maxWidth using the specified mode.
func WrapWith(text string, maxWidth int, mode WrapMode) []string {
	if maxWidth <= 0 {
		return nil
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	var lines []string
	var current strings.Builder
	currentWidth := 0

	flush := func() {
		if current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
			currentWidth = 0
		}
	}

	for _, word := range words {
		wordWidth := runewidth.StringWidth(word)

		fits := currentWidth == 0 && wordWidth <= maxWidth
		if fits || (currentWidth > 0 && currentWidth+1+wordWidth <= maxWidth) {
			if currentWidth > 0 {
				current.WriteRune(' ')
				currentWidth++
			}
			current.WriteString(word)
			currentWidth += wordWidth
			continue
		}

		flush()

		if wordWidth <= maxWidth {
			current.WriteString(word)
			currentWidth = wordWidth
			continue
		}

		if mode == WrapModeWord {
			lines = append(lines, word)
			continue
		}

		remaining := word
		for runewidth.StringWidth(remaining) > maxWidth {
			head := runewidth.Truncate(remaining, maxWidth, "")
			if head == "" {
				// Can't even fit one character, force it
				head = string([]rune(remaining)[:1])
			}
			lines = append(lines, head)
			remaining = remaining[len(head):]
		}
		current.WriteString(remaining)
		currentWidth = runewidth.StringWidth(remaining)
	}

	flush()
	return lines
}

// Fit truncates text to fit within maxWidth cells, adding ellipsis if needed.
func Fit(text string, maxWidth int, ellipsis string) string {
	if runewidth.StringWidth(text) <= maxWidth {
		return text
	}
	if maxWidth <= runewidth.StringWidth(ellipsis) {
		return runewidth.Truncate(text, maxWidth, "")
	}
	return runewidth.Truncate(text, maxWidth, ellipsis)
}

// Lines wraps text into at most maxLines lines of maxWidth cells, marking
// the last visible line with an ellipsis when text is cut.
func Lines(text string, maxWidth, maxLines int) []string {
	lines := WrapWith(strings.TrimSpace(text), maxWidth, WrapModeChar)
	if maxLines <= 0 || len(lines) <= maxLines {
		return lines
	}
	lines = lines[:maxLines]
	last := lines[maxLines-1]
	if runewidth.StringWidth(last)+1 <= maxWidth {
		lines[maxLines-1] = last + "…"
	} else {
		lines[maxLines-1] = Fit(last, maxWidth, "…")
	}
	return lines
}
