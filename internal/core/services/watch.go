package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/logger"
)

// CorpusSync feeds a document source into the ingestion pipeline.
type CorpusSync struct {
	source driven.DocumentSource
	rag    *RAGService
	docs   *DocumentService
}

// NewCorpusSync creates a corpus synchroniser.
func NewCorpusSync(source driven.DocumentSource, rag *RAGService, docs *DocumentService) *CorpusSync {
	return &CorpusSync{source: source, rag: rag, docs: docs}
}

// Root returns the corpus root of the underlying source.
func (s *CorpusSync) Root() string {
	return s.source.Root()
}

// Sync walks the whole corpus and ingests it as one batch.
// Unreadable files are logged and left out of the batch.
func (s *CorpusSync) Sync(ctx context.Context) (*domain.BatchResult, error) {
	docsCh, errsCh := s.source.FullSync(ctx)

	var docs []domain.RawDocument
	for docsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			logger.Warn("Skipping: %v", err)
		case raw, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			docs = append(docs, raw)
		}
	}

	logger.Info("Found %d documents under %s", len(docs), s.source.Root())
	return s.rag.Ingest(ctx, docs)
}

// Watch re-ingests created and updated documents and removes deleted ones
// until ctx is cancelled. onResult, if set, is called after every change.
func (s *CorpusSync) Watch(ctx context.Context, onResult func(domain.RawDocumentChange, *domain.BatchResult, error)) error {
	changes, err := s.source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", s.source.Root(), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			result, err := s.apply(ctx, change)
			if err != nil {
				logger.Warn("Change %s %s failed: %v", change.Type, change.Document.Path, err)
			}
			if onResult != nil {
				onResult(change, result, err)
			}
		}
	}
}

func (s *CorpusSync) apply(ctx context.Context, change domain.RawDocumentChange) (*domain.BatchResult, error) {
	switch change.Type {
	case domain.ChangeCreated, domain.ChangeUpdated:
		return s.rag.Ingest(ctx, []domain.RawDocument{change.Document})
	case domain.ChangeDeleted:
		return nil, s.docs.RemovePath(ctx, rawPath(&change.Document))
	default:
		return nil, fmt.Errorf("%w: unknown change type %d", domain.ErrInvalidInput, change.Type)
	}
}
