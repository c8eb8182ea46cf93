// Package memory provides in-memory implementations of storage ports for
// tests and the memory index backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
)

// Ensure IngestRegistry implements the interface.
var _ driven.IngestRegistry = (*IngestRegistry)(nil)

// IngestRegistry is an in-memory implementation of driven.IngestRegistry.
type IngestRegistry struct {
	mu      sync.RWMutex
	records map[string]domain.IngestRecord
}

// NewIngestRegistry creates a new in-memory registry.
func NewIngestRegistry() *IngestRegistry {
	return &IngestRegistry{
		records: make(map[string]domain.IngestRecord),
	}
}

// Get retrieves the record for a document.
func (r *IngestRegistry) Get(_ context.Context, documentID string) (*domain.IngestRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec.Labels = append([]string(nil), rec.Labels...)
	return &rec, nil
}

// Save inserts or replaces the record for a document.
func (r *IngestRegistry) Save(_ context.Context, rec domain.IngestRecord) error {
	if rec.DocumentID == "" {
		return fmt.Errorf("%w: record without document id", domain.ErrInvalidInput)
	}
	if !rec.State.IsValid() {
		return fmt.Errorf("%w: unknown ingest state %q", domain.ErrInvalidInput, rec.State)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	rec.Labels = append([]string(nil), rec.Labels...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.DocumentID] = rec
	return nil
}

// Delete removes the record for a document.
func (r *IngestRegistry) Delete(_ context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, documentID)
	return nil
}

// List returns all records ordered by path.
func (r *IngestRegistry) List(_ context.Context) ([]domain.IngestRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.IngestRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	return out, nil
}

// Ping always succeeds.
func (r *IngestRegistry) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (r *IngestRegistry) Close() error {
	return nil
}
