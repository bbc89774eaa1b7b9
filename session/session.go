// Package session owns the lifecycle of one streaming request: it invokes
// the transport, drives the decoder over the byte stream, dispatches
// fragments to the caller's callback, and produces the final persisted
// result.
//
// A session is single-owner state: all mutation happens on the read loop,
// so no locking is needed. Multiple sessions may run concurrently, each
// fully independent.
package session

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	lexstream "github.com/casevault/lexstream"
	"github.com/casevault/lexstream/decode"
	"github.com/casevault/lexstream/transport"
)

const readBufferSize = 4096

// Runner executes streaming sessions against a transport client.
type Runner struct {
	transport *transport.Client
	registry  *lexstream.ProfileRegistry
	logger    *log.Logger
}

// Options configures a Runner.
type Options struct {
	// Transport opens classified byte streams. Required.
	Transport *transport.Client

	// Registry resolves backend profiles (nil means the global registry).
	Registry *lexstream.ProfileRegistry

	// Logger receives session lifecycle and decoder warnings.
	Logger *log.Logger
}

// NewRunner builds a session runner.
func NewRunner(opts Options) *Runner {
	if opts.Registry == nil {
		opts.Registry = lexstream.GetProfileRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Runner{transport: opts.Transport, registry: opts.Registry, logger: opts.Logger}
}

// session is the mutable state of one run, owned exclusively by the read
// loop for its lifetime.
type session struct {
	id       string
	state    lexstream.State
	answer   strings.Builder
	thoughts []string
	sources  []lexstream.SourceInfo
	metadata *lexstream.Metadata
	callback lexstream.Callback
	logger   *log.Logger
}

// Run executes one streaming request to a terminal state. The callback
// receives fragments synchronously in arrival order; after Run returns, no
// further callbacks occur.
//
// The result is non-nil for every terminal state, including cancellation
// and errors, so callers can persist partial output. The returned error is
// non-nil only for the Errored state; caller-initiated cancellation yields
// a Cancelled result and a nil error.
func (r *Runner) Run(ctx context.Context, req *lexstream.StreamRequest, callback lexstream.Callback) (*lexstream.Result, error) {
	s := &session{
		id:       uuid.NewString(),
		state:    lexstream.StatePending,
		callback: callback,
	}
	s.logger = r.logger.With("session", s.id, "backend", req.Backend)

	if err := lexstream.GetValidationEngine().Validate(r.registry, req); err != nil {
		return s.fail(err)
	}
	profile, err := r.registry.GetBackendProfile(req.Backend)
	if err != nil {
		return s.fail(err)
	}
	parserKind, reasoning := req.Resolve(profile)

	payload, err := req.MarshalPayload()
	if err != nil {
		return s.fail(&lexstream.ValidationError{Field: "Payload", Value: req.Payload, Reason: err.Error()})
	}

	stream, err := r.transport.Open(ctx, profile.Endpoint, payload, req.Headers)
	if err != nil {
		if lexstream.IsCancelled(err) {
			return s.cancelled()
		}
		return s.fail(err)
	}
	defer stream.Body.Close()

	if !stream.Streaming {
		s.logger.Debug("non-streaming response, parsing body as a single chunk")
	}

	s.emitMetadata(payload, profile)

	classifier := decode.NewClassifier(newParser(parserKind, s.logger), s.logger)
	lines := &decode.LineBuffer{}
	var extractor *decode.ThinkExtractor
	if reasoning {
		extractor = decode.NewThinkExtractor(s.logger)
	}

	buf := make([]byte, readBufferSize)
	done := false
	for !done {
		n, readErr := stream.Body.Read(buf)
		if n > 0 {
			for _, line := range lines.Write(string(buf[:n])) {
				if s.dispatch(classifier.Classify(line), extractor) {
					done = true
					break
				}
			}
		}
		if done || readErr == nil {
			continue
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if ctx.Err() != nil {
			// Caller stopped the stream. Bytes already received were
			// parsed above, so no delivered line is lost.
			return s.cancelled()
		}
		return s.fail(&lexstream.TransportError{Message: "stream interrupted: " + readErr.Error(), Err: readErr})
	}

	if !done {
		// Stream ended without a sentinel: flush held-back data so the
		// trailing partial line is not dropped.
		if line, ok := lines.Flush(); ok {
			s.dispatch(classifier.Classify(line), extractor)
		}
	}
	if extractor != nil {
		if rest := extractor.Flush(); rest != "" {
			s.emitAnswer(rest)
		}
	}
	return s.complete()
}

// dispatch applies classified events to the session. It returns true when
// the completion sentinel was consumed.
func (s *session) dispatch(events []decode.Event, extractor *decode.ThinkExtractor) bool {
	for _, ev := range events {
		switch ev.Kind {
		case decode.EventText:
			if extractor == nil {
				s.emitAnswer(ev.Text)
				continue
			}
			answer, thoughts := extractor.Feed(ev.Text)
			for _, thought := range thoughts {
				s.emitThought(thought)
			}
			s.emitAnswer(answer)

		case decode.EventThought:
			s.emitThought(ev.Text)

		case decode.EventSources:
			// Last-write-wins: sessions normally receive at most one
			// source list, but later ones overwrite earlier ones.
			s.sources = ev.Sources
			s.emit(lexstream.Fragment{Sources: ev.Sources})

		case decode.EventDone:
			return true
		}
	}
	return false
}

func (s *session) emitMetadata(payload []byte, profile lexstream.BackendProfile) {
	meta := &lexstream.Metadata{
		Model: gjson.GetBytes(payload, "model").String(),
		Kind:  profile.Kind,
	}
	s.metadata = meta
	s.emit(lexstream.Fragment{Metadata: meta})
}

func (s *session) emitAnswer(text string) {
	if text == "" {
		return
	}
	s.answer.WriteString(text)
	s.emit(lexstream.AnswerFragment(text))
}

func (s *session) emitThought(text string) {
	s.thoughts = append(s.thoughts, text)
	s.emit(lexstream.ThoughtFragment(text))
}

// emit invokes the caller's callback unless the session is already
// terminal. Once terminal, no further callbacks occur.
func (s *session) emit(f lexstream.Fragment) {
	if s.state.Terminal() || s.callback == nil {
		return
	}
	s.callback(f)
}

// complete finalizes a normally-finished stream.
func (s *session) complete() (*lexstream.Result, error) {
	if s.state.Terminal() {
		return s.result(), nil
	}
	s.emit(lexstream.Fragment{Complete: true})
	s.state = lexstream.StateCompleted
	s.logger.Debug("session completed", "answer_len", s.answer.Len(), "thoughts", len(s.thoughts))
	return s.result(), nil
}

// fail finalizes an errored stream, surfacing the error exactly once via
// the callback and preserving partial output in the result.
func (s *session) fail(err error) (*lexstream.Result, error) {
	if s.state.Terminal() {
		return s.result(), err
	}
	s.emit(lexstream.Fragment{Err: err})
	s.state = lexstream.StateErrored
	s.logger.Error("session failed", "err", err)
	res := s.result()
	res.ErrorMessage = lexstream.UserMessage(err)
	return res, err
}

// cancelled finalizes a caller-stopped stream. Not a failure: partial
// output is preserved so the caller can persist a best-effort message.
func (s *session) cancelled() (*lexstream.Result, error) {
	if s.state.Terminal() {
		return s.result(), nil
	}
	s.state = lexstream.StateCancelled
	s.logger.Debug("session cancelled", "answer_len", s.answer.Len())
	return s.result(), nil
}

func (s *session) result() *lexstream.Result {
	return &lexstream.Result{
		SessionID:  s.id,
		State:      s.state,
		Success:    s.state == lexstream.StateCompleted,
		Cancelled:  s.state == lexstream.StateCancelled,
		FullAnswer: s.answer.String(),
		Thoughts:   s.thoughts,
		Sources:    s.sources,
		Metadata:   s.metadata,
	}
}

// newParser maps a parser kind to its strategy, defaulting to generic.
func newParser(kind lexstream.ParserKind, logger *log.Logger) decode.ChunkParser {
	switch kind {
	case lexstream.ParserIndexed:
		return decode.NewIndexedParser(logger)
	default:
		return decode.NewGenericParser(logger)
	}
}
