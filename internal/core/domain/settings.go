package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API. It offers no embeddings.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// SupportsEmbeddings returns true if the provider can embed text.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// IndexBackend selects the vector index implementation.
type IndexBackend string

// Available index backends.
const (
	IndexBackendSQLite IndexBackend = "sqlite"
	IndexBackendBadger IndexBackend = "badger"
	IndexBackendMemory IndexBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendSQLite, IndexBackendBadger, IndexBackendMemory:
		return true
	default:
		return false
	}
}

// ChunkUnit is the unit chunk size and overlap are measured in.
type ChunkUnit string

// ChunkUnitCharacters counts Unicode code points.
const ChunkUnitCharacters ChunkUnit = "characters"

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider   AIProvider `toml:"provider" yaml:"provider" validate:"required"`
	Model      string     `toml:"model" yaml:"model" validate:"required"`
	BaseURL    string     `toml:"base_url" yaml:"base_url"`
	APIKey     string     `toml:"api_key" yaml:"api_key"`
	Dimensions int        `toml:"dimensions" yaml:"dimensions" validate:"gte=0"`

	// TimeoutSeconds bounds a single embedding request.
	TimeoutSeconds int `toml:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`

	// BatchSize is the maximum number of texts per provider request.
	BatchSize int `toml:"batch_size" yaml:"batch_size" validate:"gte=1"`

	// MaxAttempts bounds retries of transient failures.
	MaxAttempts int `toml:"max_attempts" yaml:"max_attempts" validate:"gte=1,lte=10"`

	// RequestsPerSecond limits the request rate; 0 disables limiting.
	RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// Timeout returns the request timeout.
func (e EmbeddingSettings) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	Provider       AIProvider `toml:"provider" yaml:"provider" validate:"required"`
	Model          string     `toml:"model" yaml:"model" validate:"required"`
	BaseURL        string     `toml:"base_url" yaml:"base_url"`
	APIKey         string     `toml:"api_key" yaml:"api_key"`
	Temperature    float64    `toml:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens      int        `toml:"max_tokens" yaml:"max_tokens" validate:"gte=1"`
	TimeoutSeconds int        `toml:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// Timeout returns the generation timeout.
func (l LLMSettings) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// ChunkingSettings controls how documents are split.
type ChunkingSettings struct {
	// Size is the window length in Unit.
	Size int `toml:"chunk_size" yaml:"chunk_size" validate:"gt=0"`

	// Overlap is shared by consecutive chunks and must be smaller than Size.
	Overlap int `toml:"chunk_overlap" yaml:"chunk_overlap" validate:"gte=0,ltfield=Size"`

	// Unit is the measuring unit; only characters are supported.
	Unit ChunkUnit `toml:"unit" yaml:"unit"`

	// PreferBreaks moves cuts back to paragraph, sentence or word boundaries.
	PreferBreaks bool `toml:"prefer_breaks" yaml:"prefer_breaks"`
}

// Validate returns ErrConfiguration when the window cannot advance.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrConfiguration, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must not be negative, got %d", ErrConfiguration, c.Overlap)
	}
	if c.Size <= c.Overlap {
		return fmt.Errorf("%w: chunk_size (%d) must exceed chunk_overlap (%d)", ErrConfiguration, c.Size, c.Overlap)
	}
	if c.Unit != "" && c.Unit != ChunkUnitCharacters {
		return fmt.Errorf("%w: unsupported chunk unit %q", ErrConfiguration, c.Unit)
	}
	return nil
}

// IndexSettings configures the vector index.
type IndexSettings struct {
	Backend    IndexBackend `toml:"backend" yaml:"backend" validate:"required"`
	Collection string       `toml:"collection" yaml:"collection" validate:"required"`
}

// RetrievalSettings configures the retriever.
type RetrievalSettings struct {
	TopK     int     `toml:"top_k" yaml:"top_k" validate:"gte=1,lte=50"`
	MinScore float64 `toml:"min_score" yaml:"min_score" validate:"gte=-1,lte=1"`
}

// SynthesisSettings configures prompt assembly.
type SynthesisSettings struct {
	// MaxContextChars bounds the prompt length in runes.
	MaxContextChars int `toml:"max_context_chars" yaml:"max_context_chars" validate:"gte=500"`

	// TimeoutSeconds bounds a whole ask call.
	TimeoutSeconds int `toml:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
}

// IngestSettings configures document ingestion.
type IngestSettings struct {
	// DocumentsDir is the corpus root.
	DocumentsDir string `toml:"documents_dir" yaml:"documents_dir"`

	// Workers bounds concurrently ingested documents.
	Workers int `toml:"workers" yaml:"workers" validate:"gte=1,lte=64"`

	// MaxFileSizeMB rejects larger files with ErrExtraction.
	MaxFileSizeMB int `toml:"max_file_size_mb" yaml:"max_file_size_mb" validate:"gte=1"`

	// Extensions limits which files the directory walk picks up.
	Extensions []string `toml:"extensions" yaml:"extensions"`

	// TimeoutSeconds bounds a whole ingestion run; 0 means no limit.
	TimeoutSeconds int `toml:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
}

// MaxFileSize returns the size limit in bytes.
func (s IngestSettings) MaxFileSize() int64 {
	return int64(s.MaxFileSizeMB) * 1024 * 1024
}

// LoggingSettings configures the logger.
type LoggingSettings struct {
	Level string `toml:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	File  string `toml:"file" yaml:"file"`
}

// Config holds all application settings.
type Config struct {
	DataDir   string            `toml:"data_dir" yaml:"data_dir" validate:"required"`
	Embedding EmbeddingSettings `toml:"embedding" yaml:"embedding"`
	LLM       LLMSettings       `toml:"llm" yaml:"llm"`
	Chunking  ChunkingSettings  `toml:"chunking" yaml:"chunking"`
	Index     IndexSettings     `toml:"index" yaml:"index"`
	Retrieval RetrievalSettings `toml:"retrieval" yaml:"retrieval"`
	Synthesis SynthesisSettings `toml:"synthesis" yaml:"synthesis"`
	Ingest    IngestSettings    `toml:"ingest" yaml:"ingest"`
	Logging   LoggingSettings   `toml:"logging" yaml:"logging"`
}

// DefaultOllamaURL is the default Ollama endpoint.
const DefaultOllamaURL = "http://localhost:11434"

// DefaultCollection is the default vector index namespace.
const DefaultCollection = "university_regulations"

// DefaultConfig returns settings that work against a local Ollama.
func DefaultConfig() Config {
	return Config{
		DataDir: "./data",
		Embedding: EmbeddingSettings{
			Provider:          AIProviderOllama,
			Model:             "nomic-embed-text",
			BaseURL:           DefaultOllamaURL,
			Dimensions:        768,
			TimeoutSeconds:    30,
			BatchSize:         32,
			MaxAttempts:       4,
			RequestsPerSecond: 0,
		},
		LLM: LLMSettings{
			Provider:       AIProviderOllama,
			Model:          "llama3.1:8b",
			BaseURL:        DefaultOllamaURL,
			Temperature:    0.1,
			MaxTokens:      2048,
			TimeoutSeconds: 120,
		},
		Chunking: ChunkingSettings{
			Size:         500,
			Overlap:      50,
			Unit:         ChunkUnitCharacters,
			PreferBreaks: true,
		},
		Index: IndexSettings{
			Backend:    IndexBackendSQLite,
			Collection: DefaultCollection,
		},
		Retrieval: RetrievalSettings{
			TopK:     5,
			MinScore: 0,
		},
		Synthesis: SynthesisSettings{
			MaxContextChars: 12000,
			TimeoutSeconds:  180,
		},
		Ingest: IngestSettings{
			DocumentsDir:  "./documents",
			Workers:       4,
			MaxFileSizeMB: 50,
			Extensions:    []string{".pdf", ".html", ".htm", ".md", ".markdown", ".txt", ".docx"},
		},
		Logging: LoggingSettings{
			Level: "info",
			File:  "./logs/regelrag.log",
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.1:8b",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":        768,
		"mxbai-embed-large":       1024,
		"all-minilm":              384,
		"jina/jina-embeddings-v2": 768,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
	}
}
