package driven

import (
	"context"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

// IngestRegistry persists the ingestion state of each document.
// It is the source of truth for idempotent re-ingestion.
type IngestRegistry interface {
	// Get returns the record for a document, or domain.ErrNotFound.
	Get(ctx context.Context, documentID string) (*domain.IngestRecord, error)

	// Save inserts or replaces the record for a document.
	Save(ctx context.Context, record domain.IngestRecord) error

	// Delete removes the record for a document. Missing records are not an error.
	Delete(ctx context.Context, documentID string) error

	// List returns all records ordered by path.
	List(ctx context.Context) ([]domain.IngestRecord, error)

	// Ping validates the registry is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
