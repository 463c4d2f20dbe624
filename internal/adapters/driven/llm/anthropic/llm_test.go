package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sred-drafter/internal/logger"
)

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sys", req.System)
		assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
		assert.Equal(t, []messagesMessage{{Role: "user", Content: "usr"}}, req.Messages)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"part one "},
			{"type":"tool_use"},{"type":"text","text":"part two"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	got, err := svc.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "part one part two", got)
}

func TestComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), "s", "u")
	assert.ErrorContains(t, err, "slow down")
	assert.Error(t, svc.Ping(context.Background()))
}

func TestComplete_WarnsOnTruncation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"The team could not"}],
			"stop_reason":"max_tokens","usage":{"input_tokens":900,"output_tokens":16}}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)
	defer func() {
		logger.SetVerbose(false)
		logger.SetOutput(os.Stderr)
	}()

	svc, err := NewLLMService(Config{APIKey: "key", BaseURL: srv.URL, MaxTokens: 16})
	require.NoError(t, err)

	got, err := svc.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "The team could not", got)
	assert.Contains(t, buf.String(), "[WARN] anthropic")
	assert.Contains(t, buf.String(), "cut at 16 tokens")
}
