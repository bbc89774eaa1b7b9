package lexstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     StreamRequest
		wantErr bool
		field   string
	}{
		{
			name: "valid request",
			req:  StreamRequest{Backend: "counsel-chat", Payload: map[string]any{"q": "hi"}},
		},
		{
			name:    "missing backend",
			req:     StreamRequest{},
			wantErr: true,
			field:   "Backend",
		},
		{
			name:    "unknown backend",
			req:     StreamRequest{Backend: "nope"},
			wantErr: true,
			field:   "Backend",
		},
		{
			name:    "unknown parser override",
			req:     StreamRequest{Backend: "counsel-chat", Parser: ParserKind("weird")},
			wantErr: true,
			field:   "Parser",
		},
		{
			name:    "unserializable payload",
			req:     StreamRequest{Backend: "counsel-chat", Payload: make(chan int)},
			wantErr: true,
			field:   "Payload",
		},
		{
			name: "nil payload is fine",
			req:  StreamRequest{Backend: "deep-research"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(&tt.req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRequest)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParserKind_IsValid(t *testing.T) {
	assert.True(t, ParserGeneric.IsValid())
	assert.True(t, ParserIndexed.IsValid())
	assert.False(t, ParserKind("").IsValid())
	assert.False(t, ParserKind("xml").IsValid())
}
