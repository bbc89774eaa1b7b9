package lexstream

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessDeniedError(t *testing.T) {
	err := &AccessDeniedError{Category: AccessTrialExpired, Message: "Your trial has expired"}

	assert.True(t, IsAccessDenied(err))
	assert.Equal(t, AccessTrialExpired, AccessCategoryOf(err))
	assert.Contains(t, err.Error(), "trial_expired")

	wrapped := fmt.Errorf("opening stream: %w", err)
	assert.True(t, IsAccessDenied(wrapped))
	assert.Equal(t, AccessTrialExpired, AccessCategoryOf(wrapped))
}

func TestTransportError(t *testing.T) {
	err := &TransportError{StatusCode: 502, Message: "bad gateway"}

	assert.True(t, errors.Is(err, ErrTransport))
	assert.False(t, IsAccessDenied(err))
	assert.Contains(t, err.Error(), "502")

	cause := errors.New("connection reset")
	err = &TransportError{Message: "stream interrupted", Err: cause}
	assert.True(t, errors.Is(err, cause))
}

func TestIsCancelled(t *testing.T) {
	err := fmt.Errorf("%w: context canceled", ErrCancelled)
	assert.True(t, IsCancelled(err))
	assert.False(t, IsCancelled(errors.New("other")))
	assert.False(t, IsCancelled(nil))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "trial expired",
			err:  &AccessDeniedError{Category: AccessTrialExpired},
			want: "trial has expired",
		},
		{
			name: "call limit",
			err:  &AccessDeniedError{Category: AccessTrialCallLimit},
			want: "trial AI call limit",
		},
		{
			name: "subscription",
			err:  &AccessDeniedError{Category: AccessSubscriptionRequired},
			want: "active subscription",
		},
		{
			name: "cancelled",
			err:  fmt.Errorf("%w: user stop", ErrCancelled),
			want: "stopped",
		},
		{
			name: "generic",
			err:  &TransportError{StatusCode: 500, Message: "boom"},
			want: "try again",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, UserMessage(tt.err), tt.want)
		})
	}
}

func TestStateTerminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateErrored.Terminal())
	assert.True(t, StateCancelled.Terminal())
}
