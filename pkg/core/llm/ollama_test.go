package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllama_SingleResponse(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"llama3.2","response":"hello world","done":true}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL + "/")
	text, err := p.GenerateResponse(context.Background(), Request{
		Model:   "llama3.2",
		Prompt:  "hi",
		Options: Options{Temperature: 0.7, TopP: 0.9, MaxTokens: 2000},
	})

	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, "llama3.2", got["model"])
	opts := got["options"].(map[string]any)
	assert.Equal(t, 0.7, opts["temperature"])
	assert.Equal(t, 0.9, opts["top_p"])
	assert.Equal(t, 2000.0, opts["num_predict"])
}

func TestOllama_ConcatenatesChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{\"response\":\"RISK \",\"done\":false}\n{\"response\":\"LEVEL: \",\"done\":false}\n{\"response\":\"High\",\"done\":true}\n"))
	}))
	defer srv.Close()

	text, err := NewOllamaProvider(srv.URL).GenerateResponse(context.Background(), Request{Prompt: "x"})

	require.NoError(t, err)
	assert.Equal(t, "RISK LEVEL: High", text)
}

func TestOllama_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusServiceUnavailable, ErrUnavailable},
		{http.StatusTooManyRequests, ErrUnavailable},
		{http.StatusNotFound, ErrBadRequest},
		{http.StatusBadRequest, ErrBadRequest},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"nope"}`, tt.status)
		}))
		_, err := NewOllamaProvider(srv.URL).GenerateResponse(context.Background(), Request{Prompt: "x"})
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		srv.Close()
	}
}

func TestOllama_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"  ","done":true}`))
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL).GenerateResponse(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOllama_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewOllamaProvider(url).GenerateResponse(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOllama_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewOllamaProvider(srv.URL).GenerateResponse(ctx, Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestOllama_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	assert.NoError(t, NewOllamaProvider(srv.URL).Ping(context.Background()))
}
