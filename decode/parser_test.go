package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenericParser(t *testing.T) {
	p := NewGenericParser(nil)

	tests := []struct {
		name    string
		payload string
		want    string
		done    bool
	}{
		{name: "json string", payload: `"Hello"`, want: "Hello"},
		{name: "json string with escapes", payload: `"line\nbreak"`, want: "line\nbreak"},
		{name: "done sentinel", payload: "[DONE]", done: true},
		{name: "done sentinel padded", payload: "  [DONE] ", done: true},
		{name: "malformed json falls back to raw", payload: `{"broken`, want: `{"broken`},
		{name: "non-string json falls back to raw", payload: `{"a":1}`, want: `{"a":1}`},
		{name: "number falls back to raw", payload: `42`, want: `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, done := p.Parse(tt.payload)
			assert.Equal(t, tt.done, done)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestIndexedParser(t *testing.T) {
	p := NewIndexedParser(nil)

	tests := []struct {
		name    string
		payload string
		want    string
		done    bool
	}{
		{
			name:    "content field",
			payload: `0:"{\"content\":\"Hello \"}"`,
			want:    "Hello ",
		},
		{
			name:    "multi digit index",
			payload: `12:"{\"content\":\"x\"}"`,
			want:    "x",
		},
		{
			name:    "object without content falls back to decoded text",
			payload: `0:"{\"role\":\"assistant\"}"`,
			want:    `{"role":"assistant"}`,
		},
		{
			name:    "decoded non-object falls back to decoded text",
			payload: `0:"plain words"`,
			want:    "plain words",
		},
		{
			name:    "unescapable payload falls back to raw",
			payload: `0:{not-a-string}`,
			want:    `{not-a-string}`,
		},
		{
			name:    "non matching shape passes through",
			payload: "just some text",
			want:    "just some text",
		},
		{
			name:    "negative index is not a chunk line",
			payload: `-1:"x"`,
			want:    `-1:"x"`,
		},
		{
			name:    "done sentinel",
			payload: "[DONE]",
			done:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, done := p.Parse(tt.payload)
			assert.Equal(t, tt.done, done)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestSplitIndexedChunk(t *testing.T) {
	idx, rest, ok := splitIndexedChunk(`3:"abc"`)
	assert.True(t, ok)
	assert.Equal(t, "3", idx)
	assert.Equal(t, `"abc"`, rest)

	_, _, ok = splitIndexedChunk(":no index")
	assert.False(t, ok)

	_, _, ok = splitIndexedChunk("a1:payload")
	assert.False(t, ok)

	_, _, ok = splitIndexedChunk("no separator")
	assert.False(t, ok)
}
