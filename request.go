package lexstream

import "encoding/json"

// ParserKind selects the chunk-format parser used for one request.
// Using a typed constant prevents typos and provides compile-time safety.
type ParserKind string

const (
	// ParserGeneric handles data lines whose payload is a JSON string.
	ParserGeneric ParserKind = "generic"

	// ParserIndexed handles "<digits>:<JSON-escaped-string>" chunk lines.
	ParserIndexed ParserKind = "indexed"
)

// IsValid returns true if the parser kind is a known strategy.
func (p ParserKind) IsValid() bool {
	switch p {
	case ParserGeneric, ParserIndexed:
		return true
	default:
		return false
	}
}

// StreamRequest describes one streaming call. It is created by the caller,
// consumed once when the session starts, and never mutated afterwards.
type StreamRequest struct {
	// Backend is the backend profile identifier (see profiles.go). The
	// profile supplies the endpoint path, default parser selection, and
	// reasoning-block mode.
	Backend string

	// Payload is the JSON-serializable request body.
	Payload any

	// Parser overrides the profile's parser selection when non-empty.
	Parser ParserKind

	// EmitReasoning overrides the profile's reasoning-block mode when set.
	// When enabled, inline <think>…</think> markup in the answer channel is
	// extracted into Thought fragments.
	EmitReasoning *bool

	// Headers contains extra HTTP headers for this request (optional).
	Headers map[string]string
}

// Resolve returns the effective parser kind and reasoning-block mode for
// this request given its backend profile. Request-level overrides win.
func (r *StreamRequest) Resolve(profile BackendProfile) (ParserKind, bool) {
	parser := profile.Parser
	if r.Parser != "" {
		parser = r.Parser
	}
	reasoning := profile.ReasoningBlocks
	if r.EmitReasoning != nil {
		reasoning = *r.EmitReasoning
	}
	return parser, reasoning
}

// MarshalPayload serializes the request payload. A nil payload becomes an
// empty JSON object so backends always receive a body.
func (r *StreamRequest) MarshalPayload() ([]byte, error) {
	if r.Payload == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Payload)
}
