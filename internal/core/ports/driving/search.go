package driving

import (
	"context"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

// SearchService exposes retrieval without answer synthesis.
type SearchService interface {
	// Search embeds the query and returns ranked chunks.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.RetrievalResult, error)
}
