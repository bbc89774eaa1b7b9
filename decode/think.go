package decode

import (
	"strings"

	"github.com/charmbracelet/log"
)

// Reasoning block markers. These are literal substrings that may appear
// anywhere inside answer-channel text and may straddle fragment boundaries.
const (
	ThinkOpen  = "<think>"
	ThinkClose = "</think>"
)

// ThinkExtractor recognizes inline reasoning blocks delimited by
// <think>…</think> in the answer channel. It is a two-state machine
// (outside / inside a block) that tolerates markers split across fragments
// by holding back any text that could be the start of a marker.
//
// Data preservation over strictness: a block still open at stream end is
// flushed as ordinary answer text, never dropped.
type ThinkExtractor struct {
	logger *log.Logger

	inside bool
	carry  string          // unprocessed tail (possible partial marker)
	block  strings.Builder // accumulated reasoning text while inside
}

// NewThinkExtractor returns an extractor in the outside state. A nil logger
// falls back to the package default.
func NewThinkExtractor(logger *log.Logger) *ThinkExtractor {
	if logger == nil {
		logger = log.Default()
	}
	return &ThinkExtractor{logger: logger}
}

// Feed processes one piece of answer-channel text. It returns the answer
// text safe to emit now and any reasoning steps completed by this piece.
// Text inside an unfinished block is retained until the block closes or the
// stream ends.
func (x *ThinkExtractor) Feed(text string) (answer string, thoughts []string) {
	if text == "" && x.carry == "" {
		return "", nil
	}
	buf := x.carry + text
	x.carry = ""

	var out strings.Builder
	for {
		if !x.inside {
			if i := strings.Index(buf, ThinkOpen); i >= 0 {
				out.WriteString(buf[:i])
				buf = buf[i+len(ThinkOpen):]
				x.inside = true
				continue
			}
			keep := markerSuffixLen(buf, ThinkOpen)
			out.WriteString(buf[:len(buf)-keep])
			x.carry = buf[len(buf)-keep:]
			break
		}

		if i := strings.Index(buf, ThinkClose); i >= 0 {
			x.block.WriteString(buf[:i])
			thoughts = append(thoughts, splitThoughts(x.block.String())...)
			x.block.Reset()
			buf = buf[i+len(ThinkClose):]
			x.inside = false
			continue
		}
		keep := markerSuffixLen(buf, ThinkClose)
		x.block.WriteString(buf[:len(buf)-keep])
		x.carry = buf[len(buf)-keep:]
		break
	}
	return out.String(), thoughts
}

// Flush ends the stream. Any held-back text is returned as answer content.
// An unterminated block is flushed as answer text rather than as thoughts,
// since its labeling can no longer be trusted.
func (x *ThinkExtractor) Flush() (answer string) {
	rest := x.carry
	x.carry = ""
	if x.inside {
		x.logger.Warn("reasoning block never closed, flushing as answer text")
		rest = x.block.String() + rest
		x.block.Reset()
		x.inside = false
	}
	return rest
}

// markerSuffixLen returns the length of the longest proper prefix of marker
// that is a suffix of s. That tail must be held back: the rest of the
// marker may arrive in the next fragment.
func markerSuffixLen(s, marker string) int {
	max := len(marker) - 1
	if max > len(s) {
		max = len(s)
	}
	for k := max; k > 0; k-- {
		if strings.HasSuffix(s, marker[:k]) {
			return k
		}
	}
	return 0
}

// splitThoughts breaks one closed reasoning block into individual steps:
// split on line breaks, empty lines discarded.
func splitThoughts(block string) []string {
	var thoughts []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			thoughts = append(thoughts, line)
		}
	}
	return thoughts
}
