package decode

import (
	"encoding/json"
	"strings"

	"github.com/charmbracelet/log"

	lexstream "github.com/casevault/lexstream"
)

// EventKind discriminates the outcomes of classifying one wire line.
type EventKind int

const (
	// EventText carries content text for the answer channel.
	EventText EventKind = iota

	// EventSources carries a citation snippet list from the side channel.
	EventSources

	// EventThought carries one discrete reasoning step from the side
	// channel. Backends that instead emit inline <think> markup go through
	// EventText and the ThinkExtractor; both normalize to the same
	// fragment type downstream.
	EventThought

	// EventDone marks the completion sentinel. It carries no content.
	EventDone
)

// Event is one classified outcome. A single line can produce zero, one, or
// two events (a failed side-channel payload falls through as two content
// events).
type Event struct {
	Kind    EventKind
	Text    string
	Sources []lexstream.SourceInfo
}

const (
	dataPrefix    = "data:"
	eventPrefix   = "event:"
	snippetsEvent = "snippets"
	thoughtEvent  = "thought"
)

// Classifier routes complete wire lines to the active chunk parser, the
// side-channel handler, or the completion sentinel. It keeps one piece of
// state: a side-channel header waiting for its payload line.
//
// Classification is deliberately lossy-averse: any line that matches no
// known shape is emitted as plain content rather than dropped.
type Classifier struct {
	parser ChunkParser
	logger *log.Logger

	// pendingHeader holds a side-channel header line until the next line
	// resolves it (payload, fallthrough, or ignore). pendingEvent is the
	// parsed event name of that header.
	pendingHeader string
	pendingEvent  string
}

// NewClassifier returns a classifier dispatching content lines to parser.
// A nil logger falls back to the package default.
func NewClassifier(parser ChunkParser, logger *log.Logger) *Classifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Classifier{parser: parser, logger: logger}
}

// Classify processes one complete line and returns the resulting events in
// order.
func (c *Classifier) Classify(line string) []Event {
	trimmed := strings.TrimSpace(line)

	if c.pendingHeader != "" {
		header, event := c.pendingHeader, c.pendingEvent
		c.pendingHeader, c.pendingEvent = "", ""
		if payload, ok := strings.CutPrefix(trimmed, dataPrefix); ok {
			payload = strings.TrimSpace(payload)
			if event == thoughtEvent {
				return c.classifyThought(header, payload)
			}
			return c.classifySnippets(header, payload)
		}
		// Bare side-channel header with no payload: drop the header and
		// classify the current line normally.
	}

	switch {
	case trimmed == "":
		return nil

	case strings.HasPrefix(trimmed, eventPrefix):
		name := strings.TrimSpace(strings.TrimPrefix(trimmed, eventPrefix))
		if name == snippetsEvent || name == thoughtEvent {
			c.pendingHeader = trimmed
			c.pendingEvent = name
		}
		// Marker-only lines produce nothing by themselves.
		return nil

	case strings.HasPrefix(trimmed, dataPrefix):
		return c.classifyData(stripDataPrefix(line))

	default:
		// Defensive fallback: prefer emitting possibly-malformed text over
		// dropping it.
		return []Event{{Kind: EventText, Text: line}}
	}
}

// Flush resolves any pending side-channel header at stream end.
func (c *Classifier) Flush() []Event {
	c.pendingHeader, c.pendingEvent = "", ""
	return nil
}

// classifyData handles the payload of a data-prefixed line.
func (c *Classifier) classifyData(payload string) []Event {
	if strings.TrimSpace(payload) == DoneSentinel {
		return []Event{{Kind: EventDone}}
	}
	text, done := c.parser.Parse(payload)
	if done {
		return []Event{{Kind: EventDone}}
	}
	return []Event{{Kind: EventText, Text: text}}
}

// classifySnippets parses a side-channel payload as a source list. On JSON
// failure both the header and the payload fall through to ordinary content
// parsing instead of being silently lost.
func (c *Classifier) classifySnippets(header, payload string) []Event {
	var sources []lexstream.SourceInfo
	if err := json.Unmarshal([]byte(payload), &sources); err == nil {
		return []Event{{Kind: EventSources, Sources: sources}}
	}
	c.logger.Warn("snippets payload is not valid JSON, falling back to content", "payload", truncateForLog(payload))
	events := []Event{{Kind: EventText, Text: header}}
	return append(events, c.classifyData(payload)...)
}

// classifyThought parses a discrete reasoning payload. The payload is a
// JSON string on the wire; a payload that is not one falls through to
// ordinary content parsing together with its header.
func (c *Classifier) classifyThought(header, payload string) []Event {
	var step string
	if err := json.Unmarshal([]byte(payload), &step); err == nil {
		return []Event{{Kind: EventThought, Text: step}}
	}
	c.logger.Warn("thought payload is not a JSON string, falling back to content", "payload", truncateForLog(payload))
	events := []Event{{Kind: EventText, Text: header}}
	return append(events, c.classifyData(payload)...)
}

// stripDataPrefix removes the data marker and at most one following space,
// preserving the payload exactly otherwise.
func stripDataPrefix(line string) string {
	payload := strings.TrimPrefix(strings.TrimLeft(line, " \t"), dataPrefix)
	return strings.TrimPrefix(payload, " ")
}
