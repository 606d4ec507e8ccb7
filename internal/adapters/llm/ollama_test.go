package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
)

func testConfig(endpoint string) Config {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.RetryBackoff = time.Millisecond
	return cfg
}

// recordingObserver keeps every event it receives.
type recordingObserver struct {
	events []CallEvent
}

func (o *recordingObserver) OnCallComplete(e CallEvent) { o.events = append(o.events, e) }

func TestOllamaGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 3)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)
		assert.Equal(t, DefaultSystemPrompt, req.Messages[0].Content)
		assert.Equal(t, "I am very stressed", req.Messages[1].Content)
		assert.Equal(t, RoleAssistant, req.Messages[2].Role)
		assert.Contains(t, req.Messages[2].Content, "Take a deep breath.")

		json.NewEncoder(w).Encode(map[string]interface{}{
			"model":   "llama3.2",
			"message": map[string]string{"role": "assistant", "content": " Hello there! "},
			"done":    true,
		})
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	gen := NewOllamaGenerator(testConfig(srv.URL), obs)
	hint := &entities.Example{Input: "I am stressed", Response: "Take a deep breath."}

	resp, err := gen.Generate(context.Background(), "I am very stressed", hint)
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", resp)

	require.Len(t, obs.events, 1)
	assert.True(t, obs.events[0].Success)
	assert.Equal(t, BackendOllama, obs.events[0].Backend)
	assert.Equal(t, 1, obs.events[0].Attempts)
}

func TestOllamaGenerator_NoHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Messages, 2)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "ok"},
		})
	}))
	defer srv.Close()

	_, err := NewOllamaGenerator(testConfig(srv.URL), nil).Generate(context.Background(), "hi", nil)
	require.NoError(t, err)
}

func TestOllamaGenerator_ServerErrorRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 2
	obs := &recordingObserver{}

	_, err := NewOllamaGenerator(cfg, obs).Generate(context.Background(), "test", nil)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, obs.events, 1)
	assert.False(t, obs.events[0].Success)
	assert.Equal(t, "RETRY_EXHAUSTED", obs.events[0].ErrorCode)
}

func TestOllamaGenerator_NotFoundDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	_, err := NewOllamaGenerator(testConfig(srv.URL), nil).Generate(context.Background(), "test", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOllamaGenerator_RecoversAfterRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "second time"},
		})
	}))
	defer srv.Close()

	resp, err := NewOllamaGenerator(testConfig(srv.URL), nil).Generate(context.Background(), "test", nil)
	require.NoError(t, err)
	assert.Equal(t, "second time", resp)
}

func TestOllamaGenerator_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond

	_, err := NewOllamaGenerator(cfg, nil).Generate(context.Background(), "test", nil)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestOllamaGenerator_Unavailable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1") // nothing listening
	cfg.MaxRetries = 0

	_, err := NewOllamaGenerator(cfg, nil).Generate(context.Background(), "test", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOllamaGenerator_EmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "   "},
		})
	}))
	defer srv.Close()

	_, err := NewOllamaGenerator(testConfig(srv.URL), nil).Generate(context.Background(), "test", nil)
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestOllamaGenerator_DefaultValues(t *testing.T) {
	gen := NewOllamaGenerator(Config{}, nil)
	assert.Equal(t, "http://localhost:11434", gen.baseURL)
	assert.Equal(t, "llama3.2", gen.model)
	assert.Equal(t, DefaultSystemPrompt, gen.systemPrompt)
	assert.Equal(t, BackendOllama, gen.Name())
}

func TestOllamaGenerator_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.True(t, NewOllamaGenerator(testConfig(srv.URL), nil).Available(context.Background()))
	assert.False(t, NewOllamaGenerator(testConfig("http://127.0.0.1:1"), nil).Available(context.Background()))
}
