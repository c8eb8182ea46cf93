package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/logger"
)

// DefaultPaths are searched in order when no config file is given.
var DefaultPaths = []string{"regelrag.toml", "regelrag.yaml", "regelrag.yml", "config.yaml"}

// DefaultEnvFile is read for environment overrides when present.
const DefaultEnvFile = ".env"

// Environment variables that override file settings.
const (
	EnvDataDir           = "REGELRAG_DATA_DIR"
	EnvDocumentsDir      = "REGELRAG_DOCUMENTS_DIR"
	EnvEmbeddingProvider = "REGELRAG_EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "REGELRAG_EMBEDDING_MODEL"
	EnvLLMProvider       = "REGELRAG_LLM_PROVIDER"
	EnvLLMModel          = "REGELRAG_LLM_MODEL"
	EnvOllamaHost        = "OLLAMA_HOST"
	EnvOllamaPort        = "OLLAMA_PORT"
	EnvOpenAIKey         = "OPENAI_API_KEY"
	EnvAnthropicKey      = "ANTHROPIC_API_KEY"
	EnvGeminiKey         = "GEMINI_API_KEY"
	EnvGoogleKey         = "GOOGLE_API_KEY"
	EnvLogLevel          = "LOG_LEVEL"
)

const defaultOllamaPort = "11434"

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// Path is an explicit config file. Empty searches DefaultPaths.
	Path string

	// EnvFile is a dotenv file. Empty uses DefaultEnvFile; a missing file is ignored.
	EnvFile string

	// LookupEnv reads the process environment. Nil uses os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds the configuration from defaults, the config file, the dotenv
// file and the environment, in increasing precedence, and validates it.
// It returns the config file used, or "" when none was found.
// Every failure wraps domain.ErrConfiguration.
func Load(opts LoadOptions) (domain.Config, string, error) {
	cfg := baseConfig()

	path, err := resolvePath(opts.Path)
	if err != nil {
		return domain.Config{}, "", err
	}
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return domain.Config{}, path, err
		}
	}

	lookup, err := envLookup(opts)
	if err != nil {
		return domain.Config{}, path, err
	}
	applyEnv(&cfg, lookup)
	applyDefaults(&cfg)

	if err := Validate(cfg); err != nil {
		return domain.Config{}, path, err
	}
	return cfg, path, nil
}

// baseConfig is DefaultConfig with the provider-dependent fields cleared,
// so a file that switches provider does not inherit Ollama models or URLs.
func baseConfig() domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Embedding.Model = ""
	cfg.Embedding.BaseURL = ""
	cfg.Embedding.Dimensions = 0
	cfg.LLM.Model = ""
	cfg.LLM.BaseURL = ""
	return cfg
}

func resolvePath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: config file: %w", domain.ErrConfiguration, err)
		}
		return path, nil
	}
	for _, candidate := range DefaultPaths {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// decodeFile overlays the file onto cfg. Unknown keys are rejected.
func decodeFile(path string, cfg *domain.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", domain.ErrConfiguration, path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: parsing %s: %w", domain.ErrConfiguration, path, err)
		}
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("%w: parsing %s: %w", domain.ErrConfiguration, path, err)
		}
	}
	return nil
}

// envLookup layers the dotenv file under the process environment.
func envLookup(opts LoadOptions) (func(string) (string, bool), error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: reading %s: %w", domain.ErrConfiguration, envFile, err)
		}
		dotenv = nil
	} else {
		logger.Debug("Loaded environment overrides from %s", envFile)
	}

	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}, nil
}

func applyEnv(cfg *domain.Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDataDir); ok {
		cfg.DataDir = v
	}
	if v, ok := lookup(EnvDocumentsDir); ok {
		cfg.Ingest.DocumentsDir = v
	}
	if v, ok := lookup(EnvEmbeddingProvider); ok {
		cfg.Embedding.Provider = domain.AIProvider(strings.ToLower(v))
	}
	if v, ok := lookup(EnvEmbeddingModel); ok {
		cfg.Embedding.Model = v
		cfg.Embedding.Dimensions = 0
	}
	if v, ok := lookup(EnvLLMProvider); ok {
		cfg.LLM.Provider = domain.AIProvider(strings.ToLower(v))
	}
	if v, ok := lookup(EnvLLMModel); ok {
		cfg.LLM.Model = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if url, ok := ollamaURL(lookup); ok {
		if cfg.Embedding.Provider == domain.AIProviderOllama {
			cfg.Embedding.BaseURL = url
		}
		if cfg.LLM.Provider == domain.AIProviderOllama {
			cfg.LLM.BaseURL = url
		}
	}

	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = apiKey(cfg.Embedding.Provider, lookup)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = apiKey(cfg.LLM.Provider, lookup)
	}
}

// ollamaURL builds the endpoint from OLLAMA_HOST and OLLAMA_PORT.
// OLLAMA_HOST may be a bare host or a full URL.
func ollamaURL(lookup func(string) (string, bool)) (string, bool) {
	host, hostSet := lookup(EnvOllamaHost)
	port, portSet := lookup(EnvOllamaPort)
	if !hostSet && !portSet {
		return "", false
	}
	if hostSet && strings.Contains(host, "://") {
		return strings.TrimRight(host, "/"), true
	}
	if !hostSet {
		host = "localhost"
	}
	if !portSet {
		port = defaultOllamaPort
	}
	if _, err := strconv.Atoi(port); err != nil {
		logger.Warn("Ignoring invalid %s=%q", EnvOllamaPort, port)
		port = defaultOllamaPort
	}
	return "http://" + host + ":" + port, true
}

func apiKey(provider domain.AIProvider, lookup func(string) (string, bool)) string {
	var keys []string
	switch provider {
	case domain.AIProviderOpenAI:
		keys = []string{EnvOpenAIKey}
	case domain.AIProviderAnthropic:
		keys = []string{EnvAnthropicKey}
	case domain.AIProviderGemini:
		keys = []string{EnvGeminiKey, EnvGoogleKey}
	}
	for _, k := range keys {
		if v, ok := lookup(k); ok {
			return v
		}
	}
	return ""
}

// applyDefaults fills provider-dependent fields left empty.
func applyDefaults(cfg *domain.Config) {
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = domain.DefaultEmbeddingModels()[cfg.Embedding.Provider]
	}
	if cfg.Embedding.BaseURL == "" && cfg.Embedding.Provider == domain.AIProviderOllama {
		cfg.Embedding.BaseURL = domain.DefaultOllamaURL
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = domain.EmbeddingDimensions()[cfg.Embedding.Model]
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = domain.DefaultLLMModels()[cfg.LLM.Provider]
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == domain.AIProviderOllama {
		cfg.LLM.BaseURL = domain.DefaultOllamaURL
	}
	if cfg.Chunking.Unit == "" {
		cfg.Chunking.Unit = domain.ChunkUnitCharacters
	}
}

var validate = validator.New()

// Validate checks struct constraints and cross-field rules.
// Every failure wraps domain.ErrConfiguration.
func Validate(cfg domain.Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", domain.ErrConfiguration, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	if err := cfg.Chunking.Validate(); err != nil {
		return err
	}
	if !cfg.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: embedding provider %q does not support embeddings (use ollama, openai or gemini)",
			domain.ErrConfiguration, cfg.Embedding.Provider)
	}
	if cfg.Embedding.Provider.RequiresAPIKey() && cfg.Embedding.APIKey == "" {
		return fmt.Errorf("%w: embedding provider %s requires an API key", domain.ErrConfiguration, cfg.Embedding.Provider)
	}
	if !cfg.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown LLM provider %q", domain.ErrConfiguration, cfg.LLM.Provider)
	}
	if cfg.LLM.Provider.RequiresAPIKey() && cfg.LLM.APIKey == "" {
		logger.Warn("LLM provider %s has no API key; ask will be unavailable", cfg.LLM.Provider)
	}
	if !cfg.Index.Backend.IsValid() {
		return fmt.Errorf("%w: unknown index backend %q", domain.ErrConfiguration, cfg.Index.Backend)
	}
	return nil
}
