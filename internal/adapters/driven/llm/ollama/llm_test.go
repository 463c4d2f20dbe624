package ollama

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

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			var req chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.False(t, req.Stream)
			assert.Equal(t, []chatMessage{
				{Role: "system", Content: "sys"},
				{Role: "user", Content: "usr"},
			}, req.Messages)
			_ = json.NewEncoder(w).Encode(chatResponse{
				Message: chatMessage{Role: "assistant", Content: "text"},
				Done:    true,
			})
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	svc := NewLLMService(LLMConfig{BaseURL: srv.URL})

	got, err := svc.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "text", got)
	assert.NoError(t, svc.Ping(context.Background()))
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
}

func TestComplete_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Fail") != "" || r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(chatResponse{Error: "model not found"})
	}))
	defer srv.Close()

	svc := NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "missing"})

	_, err := svc.Complete(context.Background(), "s", "u")
	assert.ErrorContains(t, err, "model not found")
	assert.Error(t, svc.Ping(context.Background()))
}

func TestComplete_WarnsOnLengthStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Partial"},
			"done":true,"done_reason":"length","eval_count":128}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetVerbose(true)
	defer func() {
		logger.SetVerbose(false)
		logger.SetOutput(os.Stderr)
	}()

	got, err := NewLLMService(LLMConfig{BaseURL: srv.URL}).Complete(context.Background(), "s", "u")

	require.NoError(t, err)
	assert.Equal(t, "Partial", got)
	assert.Contains(t, buf.String(), "[WARN] ollama llama3.2")
}
