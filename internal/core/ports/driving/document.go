package driving

import (
	"context"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

// DocumentService manages ingested documents.
type DocumentService interface {
	// List returns the ingestion record of every known document.
	List(ctx context.Context) ([]domain.IngestRecord, error)

	// Remove deletes a document's chunks from the index and forgets its record.
	Remove(ctx context.Context, documentID string) error
}
