// Package lorem is a fake streaming backend for development and tests. It
// speaks the assistant's wire format (data lines, the snippets side
// channel, inline reasoning blocks, and the [DONE] sentinel) with lorem
// ipsum content, so the full decode path can be exercised without real API
// access.
package lorem

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	lexstream "github.com/casevault/lexstream"
)

// Options shapes the stream the handler emits.
type Options struct {
	// Sentences is how many sentences of answer text to stream
	// (default 3).
	Sentences int

	// ChunkDelay is an optional pause between data lines, simulating
	// token-by-token arrival.
	ChunkDelay time.Duration

	// Indexed switches payloads to the "<digits>:<escaped>" chunk shape.
	Indexed bool

	// Reasoning prefixes the answer with an inline <think> block.
	Reasoning bool

	// Snippets emits a citation side-channel event before the answer.
	Snippets bool

	// OmitSentinel ends the stream without the [DONE] sentinel, as some
	// backends do; the decoder must complete on EOF.
	OmitSentinel bool
}

// Handler streams a synthetic response for every request.
type Handler struct {
	opts      Options
	generator *loremgen.Lorem
}

// NewHandler builds a fake backend handler.
func NewHandler(opts Options) *Handler {
	if opts.Sentences == 0 {
		opts.Sentences = 3
	}
	return &Handler{opts: opts, generator: loremgen.New()}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	write := func(line string) {
		fmt.Fprint(w, line)
		if flusher != nil {
			flusher.Flush()
		}
		if h.opts.ChunkDelay > 0 {
			time.Sleep(h.opts.ChunkDelay)
		}
	}

	if h.opts.Snippets {
		sources := []lexstream.SourceInfo{
			{Title: h.generator.Sentence(3, 6), URL: "https://example.com/authorities/1", Date: "2026-01-12"},
			{Title: h.generator.Sentence(3, 6), URL: "https://example.com/authorities/2", Snippet: h.generator.Sentence(8, 14)},
		}
		payload, _ := json.Marshal(sources)
		write("event: snippets\n")
		write("data: " + string(payload) + "\n")
	}

	if h.opts.Reasoning {
		block := "<think>" + h.generator.Sentence(4, 8) + "\n" + h.generator.Sentence(4, 8) + "</think>"
		h.writeText(write, block)
	}

	for i := 0; i < h.opts.Sentences; i++ {
		h.writeText(write, h.generator.Sentence(5, 12)+" ")
	}

	if !h.opts.OmitSentinel {
		write("data: [DONE]\n")
	}
}

// writeText streams text word by word in the configured payload shape.
func (h *Handler) writeText(write func(string), text string) {
	for _, word := range splitKeepingNewlines(text) {
		if h.opts.Indexed {
			inner, _ := json.Marshal(map[string]string{"content": word})
			escaped, _ := json.Marshal(string(inner))
			write("data: 0:" + string(escaped) + "\n")
			continue
		}
		encoded, _ := json.Marshal(word)
		write("data: " + string(encoded) + "\n")
	}
}

// splitKeepingNewlines chunks text into word-sized pieces without losing
// the newlines reasoning blocks rely on.
func splitKeepingNewlines(text string) []string {
	var chunks []string
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			chunks = append(chunks, "\n")
		}
		for _, word := range strings.SplitAfter(line, " ") {
			if word != "" {
				chunks = append(chunks, word)
			}
		}
	}
	return chunks
}
