// Package cli provides the regelrag command line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regelrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/regelrag/internal/app"
	"github.com/custodia-labs/regelrag/internal/connectors/filesystem"
	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driving"
	"github.com/custodia-labs/regelrag/internal/core/services"
	"github.com/custodia-labs/regelrag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Annotations controlling what a command needs before it runs.
const (
	annotationNoConfig   = "no-config"
	annotationNoServices = "no-services"
)

// corpusService ingests and watches one document directory.
type corpusService interface {
	Root() string
	Sync(ctx context.Context) (*domain.BatchResult, error)
	Watch(ctx context.Context, onResult func(domain.RawDocumentChange, *domain.BatchResult, error)) error
}

var (
	ragService      driving.RAGService
	searchService   driving.SearchService
	documentService driving.DocumentService
	corpus          corpusService

	// newCorpus builds a corpus service for a directory other than the configured one.
	newCorpus func(root string) corpusService

	appConfig     = domain.DefaultConfig()
	configPath    string
	closeServices func() error
)

var (
	configFlag  string
	envFileFlag string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "regelrag",
	Short: "Ask questions about university study and examination regulations",
	Long: `regelrag answers questions about study and examination regulations from
your own document collection. Documents are split into overlapping chunks,
embedded and indexed; questions are answered by a language model from the
most similar chunks, with the sources it used cited.

Get started:
  regelrag ingest            # index the documents directory
  regelrag ask "Wie lange dauert das Masterstudium?"
  regelrag status            # check models and index`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "config file (default: regelrag.toml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", "", "dotenv file with overrides (default: .env)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print debug logs to stderr")
}

// Execute runs the root command.
func Execute(ctx context.Context, buildVersion string) error {
	if buildVersion != "" {
		version = buildVersion
	}
	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		_ = closeServices()
		closeServices = nil
	}
	return err
}

// setup loads configuration and wires services for commands that need them.
// Services injected beforehand are kept.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)

	if cmd.Annotations[annotationNoConfig] == "true" || ragService != nil {
		return nil
	}

	cfg, path, err := file.Load(file.LoadOptions{Path: configFlag, EnvFile: envFileFlag})
	if err != nil {
		return err
	}
	appConfig = cfg
	configPath = path

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	if path != "" {
		logger.Debug("Loaded configuration from %s", path)
	}

	if cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	ragService = a.RAG
	searchService = a.Search
	documentService = a.Documents
	corpus = a.Corpus
	newCorpus = func(root string) corpusService {
		source := filesystem.New(root, filesystem.WithExtensions(cfg.Ingest.Extensions))
		return services.NewCorpusSync(source, a.RAG, a.Documents)
	}
	closeServices = a.Close
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	var err error
	if closeServices != nil {
		err = closeServices()
		closeServices = nil
	}
	_ = logger.Close()
	return err
}
