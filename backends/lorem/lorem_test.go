package lorem_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lexstream "github.com/casevault/lexstream"
	"github.com/casevault/lexstream/backends/lorem"
	"github.com/casevault/lexstream/session"
	"github.com/casevault/lexstream/transport"
)

func run(t *testing.T, opts lorem.Options, req *lexstream.StreamRequest) *lexstream.Result {
	t.Helper()
	srv := httptest.NewServer(lorem.NewHandler(opts))
	t.Cleanup(srv.Close)

	client := transport.NewClient(transport.Options{BaseURL: srv.URL, RequestsPerMinute: -1})
	runner := session.NewRunner(session.Options{Transport: client})

	result, err := runner.Run(context.Background(), req, nil)
	require.NoError(t, err)
	return result
}

func TestHandler_GenericStream(t *testing.T) {
	result := run(t, lorem.Options{Sentences: 2}, &lexstream.StreamRequest{
		Backend: "counsel-chat",
		Payload: map[string]any{"q": "hi"},
	})

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.FullAnswer)
	assert.Empty(t, result.Thoughts)
}

func TestHandler_SnippetsAndReasoning(t *testing.T) {
	result := run(t, lorem.Options{Snippets: true, Reasoning: true, Indexed: true, Sentences: 2}, &lexstream.StreamRequest{
		Backend: "deep-research",
		Payload: map[string]any{"topic": "x"},
	})

	assert.True(t, result.Success)
	assert.Len(t, result.Sources, 2)
	assert.NotEmpty(t, result.Thoughts)
	assert.NotEmpty(t, result.FullAnswer)
	assert.NotContains(t, result.FullAnswer, "<think>", "reasoning markup must not leak into the answer")
}

func TestHandler_CompletesWithoutSentinel(t *testing.T) {
	result := run(t, lorem.Options{OmitSentinel: true, Sentences: 1}, &lexstream.StreamRequest{
		Backend: "counsel-chat",
	})

	assert.True(t, result.Success)
	assert.NotEmpty(t, strings.TrimSpace(result.FullAnswer))
}
