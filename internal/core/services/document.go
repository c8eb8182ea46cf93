package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/core/ports/driving"
	"github.com/custodia-labs/regelrag/internal/ids"
	"github.com/custodia-labs/regelrag/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService lists and removes ingested documents.
type DocumentService struct {
	index    driven.VectorIndex
	registry driven.IngestRegistry
}

// NewDocumentService creates a new document service.
func NewDocumentService(index driven.VectorIndex, registry driven.IngestRegistry) *DocumentService {
	return &DocumentService{
		index:    index,
		registry: registry,
	}
}

// List returns the ingestion record of every known document, ordered by path.
func (s *DocumentService) List(ctx context.Context) ([]domain.IngestRecord, error) {
	records, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return records, nil
}

// Remove deletes a document's chunks and then its record, so a failure
// in between leaves a record that the next ingestion repairs.
func (s *DocumentService) Remove(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}

	removed, err := s.index.DeleteByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("remove chunks: %w", err)
	}
	if err := s.registry.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("remove record: %w", err)
	}

	logger.Debug("Removed document %s (%d chunks)", documentID, removed)
	return nil
}

// RemovePath removes the document stored under a corpus-relative path.
func (s *DocumentService) RemovePath(ctx context.Context, path string) error {
	return s.Remove(ctx, ids.DocumentID(path))
}
