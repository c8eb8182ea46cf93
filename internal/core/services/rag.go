package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driving"
	"github.com/custodia-labs/regelrag/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.RAGService = (*RAGService)(nil)

// RAGService is the public entry point: ask, ingest and status.
// Ask is stateless and safe for concurrent use.
type RAGService struct {
	retriever   *Retriever
	synthesizer *Synthesizer
	ingest      *IngestService
	status      *StatusChecker
	timeout     time.Duration
}

// NewRAGService wires the pipeline stages together.
func NewRAGService(
	retriever *Retriever,
	synthesizer *Synthesizer,
	ingest *IngestService,
	status *StatusChecker,
	synthesis domain.SynthesisSettings,
) *RAGService {
	return &RAGService{
		retriever:   retriever,
		synthesizer: synthesizer,
		ingest:      ingest,
		status:      status,
		timeout:     time.Duration(synthesis.TimeoutSeconds) * time.Second,
	}
}

// Ask retrieves context for the question and synthesises a cited answer.
func (s *RAGService) Ask(ctx context.Context, question string, opts domain.SearchOptions) (*domain.Answer, error) {
	logger.Section("Ask")
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	result, err := s.retriever.Search(ctx, question, opts)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	answer, err := s.synthesizer.Synthesize(ctx, question, result)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	logger.L().Info().
		Int("retrieved", len(result.Hits)).
		Int("citations", len(answer.Citations)).
		Bool("no_context", answer.NoContext).
		Dur("duration", time.Since(started)).
		Msg("question answered")
	return answer, nil
}

// Ingest runs the ingestion pipeline over the documents.
func (s *RAGService) Ingest(ctx context.Context, docs []domain.RawDocument) (*domain.BatchResult, error) {
	logger.Section("Ingest")
	if s.ingest == nil {
		return nil, fmt.Errorf("%w: ingestion is not configured", domain.ErrConfiguration)
	}
	return s.ingest.Ingest(ctx, docs)
}

// Status checks every dependency without side effects.
func (s *RAGService) Status(ctx context.Context) domain.HealthReport {
	return s.status.Status(ctx)
}
