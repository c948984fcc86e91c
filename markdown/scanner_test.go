package markdown

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const note = "# Energía\n" +
	"\n" +
	"```go\n" +
	"fmt.Println()\n" +
	"```\n" +
	"\n" +
	"  ```mermaid\n" +
	"  graph TD\n" +
	"    A[Sol] --> B[Luz]\n" +
	"  ```\n" +
	"\n" +
	"```dot\n" +
	"digraph { a -> b }\n" +
	"```\n"

func TestBlocks(t *testing.T) {
	blocks := Blocks(note)
	require.Len(t, blocks, 2)

	assert.Equal(t, "mermaid", blocks[0].Lang)
	assert.Equal(t, "mermaid", blocks[0].Format())
	assert.Equal(t, "  ", blocks[0].Indent)
	assert.Equal(t, "graph TD\n  A[Sol] --> B[Luz]", blocks[0].Content)
	assert.Equal(t, 6, blocks[0].Start)
	assert.Equal(t, 9, blocks[0].End)

	assert.Equal(t, "graphviz", blocks[1].Format())
	assert.Equal(t, "2. dot (line 12): digraph { a -> b }", blocks[1].Describe(1))
}

func TestBlocksIgnoresUnclosedFence(t *testing.T) {
	assert.Empty(t, Blocks("```mermaid\ngraph TD\n"))
}

func TestReplaceKeepsIndentation(t *testing.T) {
	b := Blocks(note)[0]
	out, err := Replace(note, b, "graph LR\n  X --> Y\n")
	require.NoError(t, err)

	assert.Contains(t, out, "  ```mermaid\n  graph LR\n    X --> Y\n  ```")
	assert.Contains(t, out, "digraph { a -> b }", "other blocks are untouched")

	again := Blocks(out)
	require.Len(t, again, 2)
	assert.Equal(t, "graph LR\n  X --> Y", again[0].Content)
}

func TestReplaceDetectsEdits(t *testing.T) {
	b := Blocks(note)[0]

	edited := strings.Replace(note, "B[Luz]", "B[Calor]", 1)
	_, err := Replace(edited, b, "graph LR")
	assert.True(t, errors.Is(err, ErrChanged))

	moved := "intro\n" + note
	_, err = Replace(moved, b, "graph LR")
	assert.True(t, errors.Is(err, ErrChanged))
}

func TestAppendAndFence(t *testing.T) {
	out := Append("# Notas\n", Fence("json"), `{"mindMap":{}}`)
	assert.Equal(t, "# Notas\n\n```mindmap\n{\"mindMap\":{}}\n```\n", out)

	blocks := Blocks(out)
	require.Len(t, blocks, 1)
	assert.Equal(t, "json", blocks[0].Format())
	assert.Equal(t, "dot", Fence("graphviz"))
}
