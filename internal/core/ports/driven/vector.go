package driven

import (
	"context"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

// VectorIndex persists chunk embeddings in a named collection and answers
// nearest-neighbour queries by cosine similarity.
//
// Implementations must be safe for concurrent Upsert and DeleteByDocument
// calls on distinct chunk and document IDs. Failures wrap domain.ErrIndex.
type VectorIndex interface {
	// Collection returns the name of the collection the index is scoped to.
	Collection() string

	// Upsert inserts or replaces records keyed by chunk ID.
	// Vector and payload of a re-upserted chunk are replaced together.
	Upsert(ctx context.Context, records ...domain.VectorRecord) error

	// Search returns at most k hits ordered by descending score,
	// ties broken by ascending chunk ID. An empty index yields no hits.
	Search(ctx context.Context, query []float32, k int, filter *domain.SearchFilter) ([]domain.Hit, error)

	// DeleteByDocument removes every chunk of a document and returns how many were removed.
	DeleteByDocument(ctx context.Context, documentID string) (int, error)

	// ChunkIDs returns the IDs stored for a document in ascending order.
	ChunkIDs(ctx context.Context, documentID string) ([]string, error)

	// EmbeddingModel returns the embedding fingerprint recorded for the
	// collection by the last Reset, or "" when none was recorded.
	EmbeddingModel(ctx context.Context) (string, error)

	// Reset removes every chunk of the collection, releases its dimension and
	// records model as its embedding fingerprint. It returns how many chunks
	// were removed.
	Reset(ctx context.Context, model string) (int, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Ping validates the index is reachable without modifying it.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
