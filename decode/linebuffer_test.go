package decode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineBuffer_CompleteLines(t *testing.T) {
	var b LineBuffer

	lines := b.Write("first\nsecond\n")
	assert.Equal(t, []string{"first", "second"}, lines)

	_, ok := b.Flush()
	assert.False(t, ok, "no partial line should remain")
}

func TestLineBuffer_HoldsBackPartialLine(t *testing.T) {
	var b LineBuffer

	assert.Empty(t, b.Write("data: \"He"))
	assert.Equal(t, []string{`data: "Hello"`}, b.Write("llo\"\ndata: "))

	line, ok := b.Flush()
	require.True(t, ok)
	assert.Equal(t, "data: ", line)
}

func TestLineBuffer_CRLF(t *testing.T) {
	var b LineBuffer

	lines := b.Write("one\r\ntwo\r\n")
	assert.Equal(t, []string{"one", "two"}, lines)
}

// Reassembly property: for any chunk boundaries, including mid-line splits,
// the produced lines equal splitting the concatenated text by newline.
func TestLineBuffer_ArbitrarySplits(t *testing.T) {
	const text = "data: \"Hel\"\nevent: snippets\ndata: [{\"title\":\"A\"}]\ndata: [DONE]\ntrailing"
	want := strings.Split(text, "\n")

	for split := 1; split < len(text); split++ {
		var b LineBuffer
		var got []string
		got = append(got, b.Write(text[:split])...)
		got = append(got, b.Write(text[split:])...)
		if line, ok := b.Flush(); ok {
			got = append(got, line)
		}
		require.Equal(t, want, got, "split at %d", split)
	}
}

func TestLineBuffer_FlushWithoutTrailingNewline(t *testing.T) {
	var b LineBuffer

	assert.Empty(t, b.Write("no newline here"))
	line, ok := b.Flush()
	require.True(t, ok)
	assert.Equal(t, "no newline here", line)

	_, ok = b.Flush()
	assert.False(t, ok, "flush must be idempotent")
}
