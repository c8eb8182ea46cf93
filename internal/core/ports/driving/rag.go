package driving

import (
	"context"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

// RAGService answers questions over the indexed regulation corpus.
type RAGService interface {
	// Ask retrieves context for the question and synthesises a cited answer.
	// An empty retrieval yields domain.NoContextAnswer without an LLM call.
	Ask(ctx context.Context, question string, opts domain.SearchOptions) (*domain.Answer, error)

	// Ingest runs the ingestion pipeline over the documents.
	// Per-document failures are reported in the result, not as an error.
	Ingest(ctx context.Context, docs []domain.RawDocument) (*domain.BatchResult, error)

	// Status checks every dependency without side effects.
	Status(ctx context.Context) domain.HealthReport
}
