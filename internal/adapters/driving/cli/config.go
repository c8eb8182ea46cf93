package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/regelrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/regelrag/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit configuration",
	Long: `Show the effective configuration or edit the config file.

Keys are dotted paths into the file, for example:
  chunking.chunk_size      characters per chunk
  chunking.chunk_overlap   characters shared by neighbouring chunks
  retrieval.top_k          passages per question
  llm.provider             ollama, openai, anthropic or gemini
  index.backend            sqlite, badger or memory`,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show the effective configuration",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoServices: "true"},
	RunE:        runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:         "get [key]",
	Short:       "Print a value from the config file",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNoConfig: "true"},
	RunE:        runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:         "set [key] [value]",
	Short:       "Write a value to the config file",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationNoConfig: "true"},
	RunE:        runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:         "unset [key]",
	Short:       "Remove a value from the config file",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNoConfig: "true"},
	RunE:        runConfigUnset,
}

var configSetKeyCmd = &cobra.Command{
	Use:         "set-key [embedding|llm]",
	Short:       "Store an API key without echoing it",
	Args:        cobra.ExactArgs(1),
	ValidArgs:   []string{"embedding", "llm"},
	Annotations: map[string]string{annotationNoConfig: "true"},
	RunE:        runConfigSetKey,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configSetKeyCmd)
	rootCmd.AddCommand(configCmd)
}

func openConfigStore() (*file.ConfigStore, error) {
	return file.NewConfigStore(configFlag)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg := appConfig

	cmd.Println("Current Configuration")
	cmd.Println("=====================")
	if configPath != "" {
		cmd.Printf("File: %s\n", configPath)
	} else {
		cmd.Println("File: (none, using defaults and environment)")
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.APIKey)
	cmd.Printf("  Dimensions: %d\n", cfg.Embedding.Dimensions)
	cmd.Printf("  Status: %s\n", configuredLabel(cfg.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.BaseURL, cfg.LLM.APIKey)
	cmd.Printf("  Temperature: %.2f\n", cfg.LLM.Temperature)
	cmd.Printf("  Status: %s\n", configuredLabel(cfg.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d %s\n", cfg.Chunking.Size, cfg.Chunking.Unit)
	cmd.Printf("  Overlap: %d\n", cfg.Chunking.Overlap)
	cmd.Printf("  Natural breaks: %t\n", cfg.Chunking.PreferBreaks)
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Backend: %s\n", cfg.Index.Backend)
	cmd.Printf("  Collection: %s\n", cfg.Index.Collection)
	cmd.Printf("  Data directory: %s\n", cfg.DataDir)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", cfg.Retrieval.TopK)
	cmd.Printf("  Min score: %.2f\n", cfg.Retrieval.MinScore)
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Documents: %s\n", cfg.Ingest.DocumentsDir)
	cmd.Printf("  Extensions: %s\n", strings.Join(cfg.Ingest.Extensions, " "))
	cmd.Printf("  Workers: %d\n", cfg.Ingest.Workers)
	cmd.Println()

	if err := file.Validate(cfg); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if provider.IsLocal() || baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
}

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}

	value, ok := store.Get(args[0])
	if !ok {
		return fmt.Errorf("%s is not set in %s", args[0], store.Path())
	}
	if strings.HasSuffix(args[0], "api_key") {
		if s, isString := value.(string); isString {
			value = maskAPIKey(s)
		}
	}
	cmd.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}

	if err := store.Set(args[0], parseValue(args[1])); err != nil {
		return fmt.Errorf("failed to save %s: %w", args[0], err)
	}
	cmd.Printf("%s updated in %s\n", args[0], store.Path())
	warnIfInvalid(cmd, store.Path())
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}

	if err := store.Unset(args[0]); err != nil {
		return fmt.Errorf("failed to save %s: %w", args[0], err)
	}
	cmd.Printf("%s removed from %s\n", args[0], store.Path())
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	section := args[0]
	if section != "embedding" && section != "llm" {
		return fmt.Errorf("%w: expected embedding or llm, got %q", domain.ErrInvalidInput, section)
	}

	store, err := openConfigStore()
	if err != nil {
		return err
	}

	cmd.Printf("API key for %s: ", section)
	key := readPassword()
	cmd.Println()
	if key == "" {
		return fmt.Errorf("%w: empty API key", domain.ErrInvalidInput)
	}

	if err := store.Set(section+".api_key", key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	cmd.Printf("API key saved to %s (%s)\n", store.Path(), maskAPIKey(key))
	return nil
}

// warnIfInvalid loads the edited file and prints why it would be rejected.
func warnIfInvalid(cmd *cobra.Command, path string) {
	if _, _, err := file.Load(file.LoadOptions{Path: path, EnvFile: envFileFlag}); err != nil {
		cmd.Printf("Warning: %v\n", err)
	}
}

// parseValue converts a command line value to the type the config file expects.
// Comma separated values become lists.
func parseValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return s
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
