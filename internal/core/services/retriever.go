package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/core/ports/driving"
	"github.com/custodia-labs/regelrag/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.SearchService = (*Retriever)(nil)

// Retriever embeds a question and looks up the nearest chunks.
type Retriever struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	topK     int
	minScore float64
}

// NewRetriever creates a retriever.
// A nil embedder or index makes every search fail with the matching domain error.
func NewRetriever(embedder driven.EmbeddingService, index driven.VectorIndex, settings domain.RetrievalSettings) *Retriever {
	topK := settings.TopK
	if topK <= 0 {
		topK = domain.DefaultConfig().Retrieval.TopK
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
		minScore: settings.MinScore,
	}
}

// Search returns at most k chunks ordered by descending score.
// Hits below the minimum score are dropped, so the result may be empty.
func (r *Retriever) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if r.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}
	if r.index == nil {
		return nil, fmt.Errorf("%w: no vector index configured", domain.ErrIndex)
	}

	k := opts.Limit
	if k <= 0 {
		k = r.topK
	}
	minScore := r.minScore
	if opts.MinScore != nil {
		minScore = *opts.MinScore
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, vector, k, opts.Filter())
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	kept := hits[:0]
	for _, h := range hits {
		if h.Score >= minScore {
			kept = append(kept, h)
		}
	}
	if len(kept) > k {
		kept = kept[:k]
	}

	logger.Debug("Retrieved %d of %d hits (k=%d, min_score=%.2f)", len(kept), len(hits), k, minScore)
	return &domain.RetrievalResult{Query: query, Hits: kept}, nil
}
