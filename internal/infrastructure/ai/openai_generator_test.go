package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatResponse(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "llama-3.3-70b-versatile",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
}

func TestOpenAIGenerator_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse("# Proposal"))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator(Options{BaseURL: srv.URL, APIKey: "test-key", Temperature: 0.5})
	text, err := g.Complete(context.Background(), repository.CompletionRequest{
		System: "You are a helpful research grant assistant.",
		Prompt: "Project Title: Solar Grid",
	})

	require.NoError(t, err)
	assert.Equal(t, "# Proposal", text)
	assert.Equal(t, "llama-3.3-70b-versatile", got.Model)
	assert.Equal(t, 4096, got.MaxTokens)
	assert.InDelta(t, 0.5, got.Temperature, 0.001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Project Title: Solar Grid", got.Messages[1].Content)
}

func TestOpenAIGenerator_RetriesTransientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(chatResponse("ok"))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator(Options{BaseURL: srv.URL, MaxAttempts: 2, Backoff: time.Millisecond})
	text, err := g.Complete(context.Background(), repository.CompletionRequest{Prompt: "x"})

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOpenAIGenerator_FatalErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator(Options{BaseURL: srv.URL, MaxAttempts: 3, Backoff: time.Millisecond})
	_, err := g.Complete(context.Background(), repository.CompletionRequest{Prompt: "x", Operation: "generate"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOpenAIGenerator_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator(Options{BaseURL: srv.URL})
	text, err := g.Complete(context.Background(), repository.CompletionRequest{Prompt: "x"})

	require.NoError(t, err)
	assert.Empty(t, text)
}
