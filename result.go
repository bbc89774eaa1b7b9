package lexstream

// State is the lifecycle state of a streaming session.
type State string

const (
	// StatePending means the session is still streaming.
	StatePending State = "pending"

	// StateCompleted means the stream finished normally.
	StateCompleted State = "completed"

	// StateErrored means the session terminated on a transport or
	// access-denied error. Partial output is still available.
	StateErrored State = "errored"

	// StateCancelled means the caller stopped the session. Not a failure;
	// partial output is still available for persistence.
	StateCancelled State = "cancelled"
)

// Terminal returns true once the session can no longer change state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateErrored || s == StateCancelled
}

// Result is the final artifact of one streaming session. It is returned for
// every terminal state, including errors and cancellation, so callers can
// persist best-effort partial output.
type Result struct {
	// SessionID uniquely identifies the session that produced this result.
	SessionID string

	// State is the terminal state the session reached.
	State State

	// Success is true only when the stream completed normally.
	Success bool

	// Cancelled is true when the caller stopped the session.
	Cancelled bool

	// FullAnswer is the accumulated answer text, possibly partial when the
	// session errored or was cancelled.
	FullAnswer string

	// Thoughts is the ordered list of reasoning steps.
	Thoughts []string

	// Sources is the most recent source list received, or nil.
	Sources []SourceInfo

	// Metadata is the response metadata, or nil if none arrived.
	Metadata *Metadata

	// ErrorMessage is a human-readable failure description, empty unless
	// State == StateErrored.
	ErrorMessage string
}
