package lexstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRegistry_EmbeddedDefaults(t *testing.T) {
	registry := GetProfileRegistry()

	profile, err := registry.GetBackendProfile("counsel-chat")
	require.NoError(t, err)
	assert.Equal(t, "/api/ai/chat", profile.Endpoint)
	assert.Equal(t, ParserGeneric, profile.Parser)
	assert.False(t, profile.ReasoningBlocks)

	research, err := registry.GetBackendProfile("deep-research")
	require.NoError(t, err)
	assert.Equal(t, ParserIndexed, research.Parser)
	assert.True(t, research.ReasoningBlocks)
}

func TestProfileRegistry_UnknownBackend(t *testing.T) {
	registry := GetProfileRegistry()

	_, err := registry.GetBackendProfile("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownBackend)
	assert.False(t, registry.SupportsBackend("missing"))
}

func TestProfileRegistry_Register(t *testing.T) {
	registry := GetProfileRegistry()
	registry.RegisterBackendProfile("custom", BackendProfile{
		Endpoint: "/api/ai/custom",
		Parser:   ParserIndexed,
	})

	profile, err := registry.GetBackendProfile("custom")
	require.NoError(t, err)
	assert.Equal(t, "/api/ai/custom", profile.Endpoint)
}

func TestProfileRegistry_TransportDefaults(t *testing.T) {
	defaults := GetProfileRegistry().TransportDefaults()

	assert.Equal(t, 2, defaults.MaxRetries)
	assert.Equal(t, 1500, defaults.RetryDelayMS)
	assert.Equal(t, 30, defaults.RequestsPerMinute)
	assert.Equal(t, "1.5s", defaults.RetryDelay().String())
}

func TestRequest_Resolve(t *testing.T) {
	profile := BackendProfile{Parser: ParserGeneric, ReasoningBlocks: false}

	req := &StreamRequest{Backend: "counsel-chat"}
	parser, reasoning := req.Resolve(profile)
	assert.Equal(t, ParserGeneric, parser)
	assert.False(t, reasoning)

	enable := true
	req = &StreamRequest{Backend: "counsel-chat", Parser: ParserIndexed, EmitReasoning: &enable}
	parser, reasoning = req.Resolve(profile)
	assert.Equal(t, ParserIndexed, parser)
	assert.True(t, reasoning)
}

func TestRequest_MarshalPayload(t *testing.T) {
	req := &StreamRequest{Payload: map[string]any{"q": "hi"}}
	payload, err := req.MarshalPayload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"q":"hi"}`, string(payload))

	empty := &StreamRequest{}
	payload, err = empty.MarshalPayload()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(payload))
}
