// Package memory provides an in-memory vector index for tests and
// throwaway runs. Contents are lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/regelrag/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an in-memory implementation of driven.VectorIndex.
type Index struct {
	mu         sync.RWMutex
	collection string
	dims       int
	model      string
	records    map[string]domain.VectorRecord
	closed     bool
}

// NewIndex creates an empty index for the named collection.
func NewIndex(collection string) *Index {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &Index{
		collection: collection,
		records:    make(map[string]domain.VectorRecord),
	}
}

// Collection returns the collection name.
func (x *Index) Collection() string {
	return x.collection
}

// Upsert inserts or replaces records keyed by chunk ID.
func (x *Index) Upsert(ctx context.Context, records ...domain.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return fmt.Errorf("%w: index closed", domain.ErrIndex)
	}
	dims, err := vectorindex.CheckRecords(records, x.dims)
	if err != nil {
		return err
	}
	for _, rec := range records {
		x.records[rec.Chunk.ID] = copyRecord(rec)
	}
	if len(records) > 0 {
		x.dims = dims
	}
	return nil
}

// Search returns at most k hits by cosine similarity.
func (x *Index) Search(ctx context.Context, query []float32, k int, filter *domain.SearchFilter) ([]domain.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return nil, fmt.Errorf("%w: index closed", domain.ErrIndex)
	}
	if len(x.records) == 0 {
		return []domain.Hit{}, nil
	}
	if err := vectorindex.CheckQuery(query, x.dims); err != nil {
		return nil, err
	}

	ranker := vectorindex.NewRanker(k)
	for _, rec := range x.records {
		if !filter.Matches(&rec.Chunk) {
			continue
		}
		ranker.Add(domain.Hit{Chunk: rec.Chunk, Score: vectorindex.Cosine(query, rec.Vector)})
	}
	return ranker.Hits(), nil
}

// DeleteByDocument removes every chunk of a document.
func (x *Index) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	removed := 0
	for id, rec := range x.records {
		if rec.Chunk.DocumentID == documentID {
			delete(x.records, id)
			removed++
		}
	}
	if len(x.records) == 0 {
		x.dims = 0
	}
	return removed, nil
}

// ChunkIDs returns the chunk IDs stored for a document in ascending order.
func (x *Index) ChunkIDs(_ context.Context, documentID string) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []string
	for id, rec := range x.records {
		if rec.Chunk.DocumentID == documentID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

// EmbeddingModel returns the fingerprint recorded by Reset.
func (x *Index) EmbeddingModel(_ context.Context) (string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.model, nil
}

// Reset drops every record and remembers model.
func (x *Index) Reset(ctx context.Context, model string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return 0, fmt.Errorf("%w: index closed", domain.ErrIndex)
	}
	removed := len(x.records)
	x.records = make(map[string]domain.VectorRecord)
	x.dims = 0
	x.model = model
	return removed, nil
}

// Count returns the number of stored chunks.
func (x *Index) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records), nil
}

// Ping reports whether the index is open.
func (x *Index) Ping(_ context.Context) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return fmt.Errorf("%w: index closed", domain.ErrIndex)
	}
	return nil
}

// Close marks the index closed. Stored records are dropped.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	x.records = make(map[string]domain.VectorRecord)
	return nil
}

// copyRecord detaches the stored record from caller-owned slices.
func copyRecord(rec domain.VectorRecord) domain.VectorRecord {
	rec.Vector = append([]float32(nil), rec.Vector...)
	rec.Chunk.Labels = append([]string(nil), rec.Chunk.Labels...)
	if rec.Chunk.Metadata != nil {
		meta := make(map[string]any, len(rec.Chunk.Metadata))
		for k, v := range rec.Chunk.Metadata {
			meta[k] = v
		}
		rec.Chunk.Metadata = meta
	}
	return rec
}
