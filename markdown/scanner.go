// Package markdown finds mind map blocks in markdown documents, so a map can
// be imported from a fenced block in a note and exported back into it.
package markdown

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrChanged is returned when a block no longer matches what was scanned.
var ErrChanged = errors.New("block changed since it was scanned")

// Block is a fenced code block holding a map.
type Block struct {
	Lang    string // fence language: mermaid, dot, graphviz or mindmap
	Content string // block body without the fence indentation
	Start   int    // line of the opening fence, 0-based
	End     int    // line of the closing fence
	Indent  string
	Hash    string // sha256 of Content at scan time
}

// Format returns the import format for the block's language.
func (b Block) Format() string {
	switch b.Lang {
	case "dot", "graphviz":
		return "graphviz"
	case "mindmap", "json":
		return "json"
	default:
		return b.Lang
	}
}

// Describe returns a one-line summary for pickers.
func (b Block) Describe(index int) string {
	preview := ""
	for _, line := range strings.Split(b.Content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			preview = line
			break
		}
	}
	if r := []rune(preview); len(r) > 50 {
		preview = string(r[:47]) + "..."
	}
	return fmt.Sprintf("%d. %s (line %d): %s", index+1, b.Lang, b.Start+1, preview)
}

// Fence returns the fence language used when exporting in format.
func Fence(format string) string {
	switch format {
	case "graphviz", "dot":
		return "dot"
	case "json":
		return "mindmap"
	default:
		return format
	}
}

func isMapLang(lang string) bool {
	switch lang {
	case "mermaid", "dot", "graphviz", "mindmap":
		return true
	}
	return false
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Blocks returns every map block in doc, in document order. An unclosed
// fence at the end of the document is ignored.
func Blocks(doc string) []Block {
	var (
		blocks []Block
		cur    *Block
		body   []string
	)
	for i, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if cur == nil {
			if !strings.HasPrefix(trimmed, "```") {
				continue
			}
			lang := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "```")))
			if isMapLang(lang) {
				cur = &Block{Lang: lang, Start: i, Indent: line[:len(line)-len(trimmed)]}
				body = body[:0]
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") {
			cur.End = i
			cur.Content = strings.Join(body, "\n")
			cur.Hash = hash(cur.Content)
			blocks = append(blocks, *cur)
			cur = nil
			continue
		}
		body = append(body, strings.TrimPrefix(line, cur.Indent))
	}
	return blocks
}

// Replace returns doc with the body of b replaced by content. It fails with
// ErrChanged if the fences moved or the body was edited since b was scanned.
func Replace(doc string, b Block, content string) (string, error) {
	lines := strings.Split(doc, "\n")
	if b.Start < 0 || b.End >= len(lines) || b.Start >= b.End {
		return "", fmt.Errorf("%w: fences out of range", ErrChanged)
	}
	open := strings.TrimLeft(lines[b.Start], " \t")
	if !strings.HasPrefix(strings.ToLower(open), "```"+b.Lang) {
		return "", fmt.Errorf("%w: opening fence at line %d", ErrChanged, b.Start+1)
	}
	if !strings.HasPrefix(strings.TrimLeft(lines[b.End], " \t"), "```") {
		return "", fmt.Errorf("%w: closing fence at line %d", ErrChanged, b.End+1)
	}

	body := make([]string, 0, b.End-b.Start-1)
	for _, line := range lines[b.Start+1 : b.End] {
		body = append(body, strings.TrimPrefix(line, b.Indent))
	}
	if hash(strings.Join(body, "\n")) != b.Hash {
		return "", fmt.Errorf("%w: content edited", ErrChanged)
	}

	var out []string
	out = append(out, lines[:b.Start+1]...)
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		out = append(out, b.Indent+line)
	}
	out = append(out, lines[b.End:]...)
	return strings.Join(out, "\n"), nil
}

// Append returns doc with a new block in the given fence language added at
// the end.
func Append(doc, lang, content string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(doc, "\n"))
	if sb.Len() > 0 {
		sb.WriteString("\n\n")
	}
	sb.WriteString("```" + lang + "\n")
	sb.WriteString(strings.TrimRight(content, "\n"))
	sb.WriteString("\n```\n")
	return sb.String()
}
