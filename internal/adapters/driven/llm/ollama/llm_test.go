package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
)

func TestNewLLMService_Defaults(t *testing.T) {
	s := NewLLMService(LLMConfig{})

	assert.Equal(t, DefaultLLMModel, s.ModelName())
	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, DefaultLLMTimeout, s.client.Timeout)
}

func TestGenerate(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "Vier Semester [Quelle 1].", Done: true})
	}))
	defer server.Close()

	s := NewLLMService(LLMConfig{BaseURL: server.URL, Model: "llama3.1:8b"})

	answer, err := s.Generate(context.Background(), "Frage", driven.GenerateOptions{MaxTokens: 2048, Temperature: 0})
	require.NoError(t, err)

	assert.Equal(t, "Vier Semester [Quelle 1].", answer)
	assert.Equal(t, "llama3.1:8b", got.Model)
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options)
	assert.Equal(t, 2048, got.Options.NumPredict)
	require.NotNil(t, got.Options.Temperature, "zero temperature is sent explicitly")
	assert.Equal(t, 0.0, *got.Options.Temperature)
}

func TestGenerate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model 'x' not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	s := NewLLMService(LLMConfig{BaseURL: server.URL})

	_, err := s.Generate(context.Background(), "Frage", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.Contains(t, err.Error(), "not found")
}

func TestGenerate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	s := NewLLMService(LLMConfig{BaseURL: server.URL, Timeout: 20 * time.Millisecond})

	_, err := s.Generate(context.Background(), "Frage", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGeneration)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/version" {
			_, _ = w.Write([]byte(`{"version":"0.5.7"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	s := NewLLMService(LLMConfig{BaseURL: server.URL})
	require.NoError(t, s.Ping(context.Background()))

	version, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.5.7", version)

	down := NewLLMService(LLMConfig{BaseURL: "http://127.0.0.1:1"})
	assert.ErrorIs(t, down.Ping(context.Background()), domain.ErrLLMUnavailable)
}
