package driven

import (
	"context"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

// DocumentSource yields raw regulation documents with their hierarchy labels.
type DocumentSource interface {
	// Root returns the corpus root the source walks.
	Root() string

	// FullSync walks the corpus. Both channels are closed when the walk ends.
	FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Watch streams changes until ctx is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Close releases resources.
	Close() error
}
