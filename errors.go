package lexstream

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrAccessDenied indicates the backend refused the call for
	// subscription or trial-limit reasons.
	ErrAccessDenied = errors.New("lexstream: access denied")

	// ErrTransport indicates a network or HTTP-level failure that is not
	// otherwise classified.
	ErrTransport = errors.New("lexstream: transport failure")

	// ErrCancelled indicates the caller stopped the session. It is a
	// terminal state, not a failure.
	ErrCancelled = errors.New("lexstream: cancelled")

	// ErrInvalidRequest indicates the stream request failed validation
	// before any network activity.
	ErrInvalidRequest = errors.New("lexstream: invalid request")

	// ErrUnknownBackend indicates the requested backend profile is not
	// registered.
	ErrUnknownBackend = errors.New("lexstream: unknown backend")
)

// AccessCategory identifies the reason a backend denied access, so callers
// can render an actionable message instead of a generic failure.
type AccessCategory string

const (
	// AccessTrialExpired means the user's trial period has ended.
	AccessTrialExpired AccessCategory = "trial_expired"

	// AccessTrialCallLimit means the trial's AI call quota is exhausted.
	AccessTrialCallLimit AccessCategory = "trial_call_limit"

	// AccessSubscriptionRequired means the account has no active
	// subscription.
	AccessSubscriptionRequired AccessCategory = "subscription_required"
)

// AccessDeniedError represents a 403-class response re-classified from its
// body into a user-facing category.
type AccessDeniedError struct {
	Category AccessCategory // Which limit was hit
	Message  string         // Raw message from the backend
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied (%s): %s", e.Category, e.Message)
}

func (e *AccessDeniedError) Unwrap() error {
	return ErrAccessDenied
}

// TransportError represents an HTTP or network failure from the backend.
type TransportError struct {
	StatusCode int    // HTTP status code, 0 for connect-level failures
	Message    string // Best-effort message extracted from the body
	Err        error  // Wrapped cause, if any
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transport error: %s", e.Message)
}

func (e *TransportError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrTransport
}

// ValidationError represents a request that failed pre-flight validation.
type ValidationError struct {
	Field  string // The request field that failed
	Value  any    // The invalid value
	Reason string // Human-readable explanation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for '%s' (value: %v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// IsAccessDenied checks if an error is a subscription/trial-limit refusal.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsCancelled checks if an error represents caller-initiated cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// AccessCategoryOf returns the access-denied category carried by err, or an
// empty category when err is not an access-denied error.
func AccessCategoryOf(err error) AccessCategory {
	var denied *AccessDeniedError
	if errors.As(err, &denied) {
		return denied.Category
	}
	return ""
}

// UserMessage renders a human-readable message for a terminal error.
// Access-denied errors get an actionable message per category; everything
// else gets a generic retry suggestion.
func UserMessage(err error) string {
	switch AccessCategoryOf(err) {
	case AccessTrialExpired:
		return "Your trial has expired. Upgrade your plan to keep using the assistant."
	case AccessTrialCallLimit:
		return "You have reached the trial AI call limit. Upgrade your plan to continue."
	case AccessSubscriptionRequired:
		return "An active subscription is required to use the assistant."
	}
	if IsCancelled(err) {
		return "Generation stopped."
	}
	return "Something went wrong while generating the response. Please try again."
}
