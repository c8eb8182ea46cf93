package mcp

import (
	"context"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driving"
)

// CorpusSyncer re-ingests the configured document directory.
type CorpusSyncer interface {
	Sync(ctx context.Context) (*domain.BatchResult, error)
}

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// RAG answers questions and reports status.
	RAG driving.RAGService

	// Search exposes retrieval without synthesis.
	Search driving.SearchService

	// Document lists and removes ingested documents.
	Document driving.DocumentService

	// Corpus re-ingests the document directory. Optional.
	Corpus CorpusSyncer
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
