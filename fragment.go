package lexstream

// Fragment represents a single unit of decoded content from a streaming
// response. Each fragment carries exactly one of the variant fields; the
// others are nil (or false for Complete).
//
// Fragments are delivered to the caller in strict arrival order.
// Concatenating all AnswerText values in delivery order reproduces the full
// answer text.
type Fragment struct {
	// AnswerText contains an incremental piece of the answer (nil if another
	// variant is set). Pieces must be concatenated in arrival order.
	AnswerText *string

	// Thought contains one reasoning step, either from a discrete thought
	// event or extracted from an inline reasoning block (nil if unset).
	Thought *string

	// Sources contains citation snippets delivered on the side channel
	// (nil if unset). A session usually receives at most one source list;
	// if more arrive, the last one wins.
	Sources []SourceInfo

	// Metadata contains response-level information, sent at most once per
	// session when it becomes known (nil if unset).
	Metadata *Metadata

	// Complete is true for the terminal fragment emitted when the stream
	// finishes normally. No fragments follow it.
	Complete bool

	// Err contains a terminal error (transport or access-denied). No
	// fragments follow it. Malformed payloads never surface here; they
	// degrade to AnswerText.
	Err error
}

// SourceInfo is one citation snippet from the side channel.
type SourceInfo struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Date    string `json:"date,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Metadata contains response-level information about one streaming session.
type Metadata struct {
	// Model is the model identifier reported by the backend, if any.
	Model string

	// Kind describes the response kind (e.g. "answer", "research").
	Kind string
}

// Callback receives fragments as they are decoded. It is invoked
// synchronously on the session's read loop, so implementations must not
// block for long.
type Callback func(Fragment)

// AnswerFragment builds an AnswerText fragment.
func AnswerFragment(text string) Fragment {
	return Fragment{AnswerText: &text}
}

// ThoughtFragment builds a Thought fragment.
func ThoughtFragment(text string) Fragment {
	return Fragment{Thought: &text}
}
