package decode

import (
	"encoding/json"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
)

// DoneSentinel is the reserved data payload that signals stream completion
// rather than content.
const DoneSentinel = "[DONE]"

// ChunkParser converts the payload of one data line into fragment text.
//
// Parsers are total functions: no payload may cause an error out of the
// parse path. The worst case is "treat as raw text".
type ChunkParser interface {
	// Name returns the parser's identifier for logs.
	Name() string

	// Parse returns the fragment text for one payload. done is true when
	// the payload is a completion sentinel; text is empty in that case.
	Parse(payload string) (text string, done bool)
}

// GenericParser handles the plain data-line format: the payload is
// attempted as JSON, and a JSON string becomes the fragment text. Anything
// else (malformed JSON, numbers, objects) degrades to the raw payload.
type GenericParser struct {
	logger *log.Logger
}

// NewGenericParser returns a generic data-line parser. A nil logger falls
// back to the package default.
func NewGenericParser(logger *log.Logger) *GenericParser {
	if logger == nil {
		logger = log.Default()
	}
	return &GenericParser{logger: logger}
}

// Name implements ChunkParser.
func (p *GenericParser) Name() string { return "generic" }

// Parse implements ChunkParser.
func (p *GenericParser) Parse(payload string) (string, bool) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == DoneSentinel {
		return "", true
	}
	var s string
	if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
		return s, false
	}
	// Not a JSON string: surface the raw payload instead of dropping it.
	p.logger.Warn("data payload is not a JSON string, using raw text", "payload", truncateForLog(trimmed))
	return payload, false
}

// IndexedParser handles the indexed-chunk format: lines shaped
// "<digits>:<JSON-escaped-string>". The escaped payload is unescaped and
// JSON-decoded; an object with a string "content" field yields that string,
// anything else falls back to the decoded text. Lines that do not match the
// shape pass through verbatim.
type IndexedParser struct {
	logger *log.Logger
}

// NewIndexedParser returns an indexed-chunk parser. A nil logger falls back
// to the package default.
func NewIndexedParser(logger *log.Logger) *IndexedParser {
	if logger == nil {
		logger = log.Default()
	}
	return &IndexedParser{logger: logger}
}

// Name implements ChunkParser.
func (p *IndexedParser) Name() string { return "indexed" }

// Parse implements ChunkParser.
func (p *IndexedParser) Parse(payload string) (string, bool) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == DoneSentinel {
		return "", true
	}

	idx, escaped, ok := splitIndexedChunk(trimmed)
	if !ok {
		p.logger.Warn("chunk line does not match <index>:<payload> shape, passing through", "payload", truncateForLog(trimmed))
		return payload, false
	}

	var unescaped string
	if err := json.Unmarshal([]byte(escaped), &unescaped); err != nil {
		p.logger.Warn("chunk payload is not a JSON-escaped string, using raw text", "index", idx, "payload", truncateForLog(escaped))
		return escaped, false
	}

	if result := gjson.Parse(unescaped); result.IsObject() {
		if content := result.Get("content"); content.Type == gjson.String {
			return content.String(), false
		}
	}
	// No content field (or not an object at all): the decoded text itself
	// is the best-effort fragment.
	return unescaped, false
}

// splitIndexedChunk splits "<digits>:<rest>" and reports whether the line
// matches that shape.
func splitIndexedChunk(line string) (index string, rest string, ok bool) {
	sep := strings.IndexByte(line, ':')
	if sep <= 0 {
		return "", "", false
	}
	index = line[:sep]
	for _, r := range index {
		if r < '0' || r > '9' {
			return "", "", false
		}
	}
	return index, line[sep+1:], true
}

// truncateForLog keeps warning lines readable when payloads are large.
func truncateForLog(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
