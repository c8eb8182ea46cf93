package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.True(t, p.IsValid(), p.String())
	}
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
}

func TestAIProvider_SupportsEmbeddings(t *testing.T) {
	for _, p := range AllEmbeddingProviders() {
		assert.True(t, p.SupportsEmbeddings(), p.String())
	}
	assert.False(t, AIProviderAnthropic.SupportsEmbeddings())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"anthropic has no embeddings", EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}, false},
		{"empty provider", EmbeddingSettings{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestChunkingSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ChunkingSettings
		wantErr bool
	}{
		{"default sizes", ChunkingSettings{Size: 500, Overlap: 50}, false},
		{"zero overlap", ChunkingSettings{Size: 10, Overlap: 0}, false},
		{"explicit unit", ChunkingSettings{Size: 10, Overlap: 2, Unit: ChunkUnitCharacters}, false},
		{"overlap equals size", ChunkingSettings{Size: 50, Overlap: 50}, true},
		{"overlap exceeds size", ChunkingSettings{Size: 50, Overlap: 80}, true},
		{"zero size", ChunkingSettings{Size: 0}, true},
		{"negative overlap", ChunkingSettings{Size: 10, Overlap: -1}, true},
		{"token unit", ChunkingSettings{Size: 10, Overlap: 2, Unit: "tokens"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfiguration))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NoError(t, cfg.Chunking.Validate())
	assert.Equal(t, 500, cfg.Chunking.Size)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, DefaultCollection, cfg.Index.Collection)
	assert.Equal(t, "llama3.1:8b", cfg.LLM.Model)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Equal(t, int64(50*1024*1024), cfg.Ingest.MaxFileSize())
	assert.True(t, cfg.Embedding.IsConfigured())
	assert.True(t, cfg.LLM.IsConfigured())
	assert.Equal(t, 768, EmbeddingDimensions()[cfg.Embedding.Model])
}
