// Package app assembles the adapters and core services from configuration.
// Both driving adapters (CLI and MCP) build their object graph through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/regelrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/regelrag/internal/adapters/driven/config/file"
	memorystore "github.com/custodia-labs/regelrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/regelrag/internal/adapters/driven/storage/sqlite"
	badgerindex "github.com/custodia-labs/regelrag/internal/adapters/driven/vectorindex/badger"
	memoryindex "github.com/custodia-labs/regelrag/internal/adapters/driven/vectorindex/memory"
	"github.com/custodia-labs/regelrag/internal/connectors/filesystem"
	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/core/services"
	"github.com/custodia-labs/regelrag/internal/logger"
	"github.com/custodia-labs/regelrag/internal/normalisers"
	"github.com/custodia-labs/regelrag/internal/postprocessors"
)

// BadgerDir is the badger index directory inside the data directory.
const BadgerDir = "badger"

// PromptsDir is the prompt override directory inside the data directory.
const PromptsDir = "prompts"

// App holds the wired services.
type App struct {
	Config domain.Config

	RAG       *services.RAGService
	Search    *services.Retriever
	Documents *services.DocumentService
	Corpus    *services.CorpusSync
	Source    *filesystem.Connector

	ai      *ai.Services
	closers []func() error
}

// New builds every adapter and service. Providers are not contacted;
// unreachable models show up in Status, not here.
func New(ctx context.Context, cfg domain.Config) (*App, error) {
	a := &App{Config: cfg}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	index, registry, err := a.openStorage()
	if err != nil {
		return err
	}

	aiServices, err := ai.NewServices(ctx, cfg)
	if err != nil {
		return err
	}
	a.ai = aiServices
	if aiServices.LLM == nil {
		logger.Warn("No LLM configured for provider %s; questions will fail until one is set", cfg.LLM.Provider)
	}

	var prompts driven.PromptStore
	store, err := file.NewPromptStore(filepath.Join(cfg.DataDir, PromptsDir))
	if err != nil {
		logger.Warn("Using built-in prompts: %v", err)
	} else {
		prompts = store
	}

	pipeline, err := postprocessors.NewDefaultPipeline(cfg.Chunking)
	if err != nil {
		return err
	}
	norms := normalisers.NewDefaultRegistry(normalisers.WithMaxFileSize(cfg.Ingest.MaxFileSize()))

	ingest, err := services.NewIngestService(norms, pipeline, aiServices.Embedding, index, registry, cfg)
	if err != nil {
		return err
	}

	a.Search = services.NewRetriever(aiServices.Embedding, index, cfg.Retrieval)
	synthesizer := services.NewSynthesizer(aiServices.LLM, prompts, cfg.LLM, cfg.Synthesis)
	status := services.NewStatusChecker(aiServices.Embedding, index, aiServices.LLM, registry, cfg)

	a.RAG = services.NewRAGService(a.Search, synthesizer, ingest, status, cfg.Synthesis)
	a.Documents = services.NewDocumentService(index, registry)
	a.Source = filesystem.FromSettings(cfg.Ingest)
	a.Corpus = services.NewCorpusSync(a.Source, a.RAG, a.Documents)
	a.closers = append(a.closers, a.Source.Close)

	logger.L().Debug().
		Str("backend", string(cfg.Index.Backend)).
		Str("collection", cfg.Index.Collection).
		Str("embedding", cfg.Embedding.Model).
		Str("llm", cfg.LLM.Model).
		Msg("services wired")
	return nil
}

// openStorage opens the vector index and the ingestion registry.
// The registry lives in SQLite unless everything is in memory.
func (a *App) openStorage() (driven.VectorIndex, driven.IngestRegistry, error) {
	cfg := a.Config

	switch cfg.Index.Backend {
	case domain.IndexBackendMemory:
		return memoryindex.NewIndex(cfg.Index.Collection), memorystore.NewIngestRegistry(), nil

	case domain.IndexBackendSQLite, domain.IndexBackendBadger:
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", domain.ErrIndex, err)
		}
		a.closers = append(a.closers, store.Close)

		if cfg.Index.Backend == domain.IndexBackendSQLite {
			return store.VectorIndex(cfg.Index.Collection), store.IngestRegistry(), nil
		}

		index, err := badgerindex.Open(filepath.Join(cfg.DataDir, BadgerDir), cfg.Index.Collection)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, index.Close)
		return index, store.IngestRegistry(), nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrConfiguration, cfg.Index.Backend)
	}
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close() error {
	if a.ai != nil {
		a.ai.Close()
		a.ai = nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
