// Package decode turns an unreliable, partially-delivered byte stream into
// an ordered sequence of semantic events: answer text, reasoning steps,
// citation snippets, and the completion sentinel.
//
// The package is deliberately tolerant: network chunk boundaries may split
// lines, markers, and JSON payloads arbitrarily, and malformed payloads
// always degrade to raw text rather than failing the stream.
package decode

import "strings"

// LineBuffer accumulates decoded text across network reads and yields only
// complete newline-terminated lines, holding back the trailing partial line
// until more data arrives or the stream ends.
//
// The buffer never drops data and never reorders lines.
type LineBuffer struct {
	partial strings.Builder
}

// Write appends a chunk of decoded text and returns all lines completed by
// it, in arrival order. Trailing carriage returns are stripped so CRLF
// streams behave like LF streams.
func (b *LineBuffer) Write(chunk string) []string {
	if chunk == "" {
		return nil
	}
	data := b.partial.String() + chunk
	b.partial.Reset()

	lines := strings.Split(data, "\n")
	b.partial.WriteString(lines[len(lines)-1])
	lines = lines[:len(lines)-1]

	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Flush returns the held-back partial line at stream end, if any. The
// second return is false when nothing was pending.
func (b *LineBuffer) Flush() (string, bool) {
	if b.partial.Len() == 0 {
		return "", false
	}
	line := strings.TrimSuffix(b.partial.String(), "\r")
	b.partial.Reset()
	return line, true
}
