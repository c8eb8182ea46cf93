// Package indextest runs the behaviour every driven.VectorIndex backend
// must share against a concrete implementation.
package indextest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
)

// Factory returns a fresh, empty index. The index is closed by the suite.
type Factory func(t *testing.T) driven.VectorIndex

// Record builds a vector record for tests.
func Record(chunkID, documentID string, vector ...float32) domain.VectorRecord {
	return domain.VectorRecord{
		Chunk: domain.Chunk{
			ID:         chunkID,
			DocumentID: documentID,
			Text:       "text of " + chunkID,
			Path:       documentID + ".pdf",
			Filename:   documentID + ".pdf",
			Labels:     []string{"Fakultaet_III", "Master"},
			Metadata:   map[string]any{"format": "pdf"},
		},
		Vector: vector,
	}
}

// Run executes the shared contract against indexes built by newIndex.
func Run(t *testing.T, newIndex Factory) {
	open := func(t *testing.T) driven.VectorIndex {
		t.Helper()
		x := newIndex(t)
		t.Cleanup(func() { _ = x.Close() })
		return x
	}
	ctx := context.Background()

	t.Run("empty index returns no hits", func(t *testing.T) {
		x := open(t)
		hits, err := x.Search(ctx, []float32{1, 0, 0}, 5, nil)
		require.NoError(t, err)
		assert.Empty(t, hits)

		n, err := x.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.NoError(t, x.Ping(ctx))
	})

	t.Run("orders by descending score then ascending id", func(t *testing.T) {
		x := open(t)
		require.NoError(t, x.Upsert(ctx,
			Record("c", "d1", 1, 1, 0),
			Record("b", "d1", 1, 1, 0),
			Record("a", "d2", 1, 0, 0),
			Record("z", "d2", 0, 0, 1),
			Record("m", "d3", 1, 1, 0),
		))

		hits, err := x.Search(ctx, []float32{1, 1, 0}, 4, nil)
		require.NoError(t, err)
		require.Len(t, hits, 4)

		ids := make([]string, len(hits))
		for i, h := range hits {
			ids[i] = h.Chunk.ID
		}
		assert.Equal(t, []string{"b", "c", "m", "a"}, ids)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
		for i := 1; i < len(hits); i++ {
			assert.False(t, domain.HitLess(hits[i], hits[i-1]), "hit %d out of order", i)
		}
	})

	t.Run("returns at most k hits", func(t *testing.T) {
		x := open(t)
		for i := 0; i < 12; i++ {
			require.NoError(t, x.Upsert(ctx, Record(fmt.Sprintf("chunk-%02d", i), "doc", float32(i+1), 1)))
		}
		for _, k := range []int{1, 3, 12, 50} {
			hits, err := x.Search(ctx, []float32{1, 1}, k, nil)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(hits), k)
		}
	})

	t.Run("payload round trips", func(t *testing.T) {
		x := open(t)
		rec := Record("p1", "doc", 0.5, 0.5)
		rec.Chunk.Start, rec.Chunk.End, rec.Chunk.Page = 450, 950, 3
		rec.Chunk.Section = "§ 3 Regelstudienzeit"
		rec.Chunk.Title = "Studienordnung"
		rec.Chunk.PrevID = "p0"
		require.NoError(t, x.Upsert(ctx, rec))

		hits, err := x.Search(ctx, []float32{1, 1}, 1, nil)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		got := hits[0].Chunk
		assert.Equal(t, rec.Chunk.Text, got.Text)
		assert.Equal(t, 450, got.Start)
		assert.Equal(t, 950, got.End)
		assert.Equal(t, 3, got.Page)
		assert.Equal(t, "§ 3 Regelstudienzeit", got.Section)
		assert.Equal(t, "Studienordnung", got.Title)
		assert.Equal(t, "p0", got.PrevID)
		assert.Equal(t, rec.Chunk.Labels, got.Labels)
		assert.Equal(t, "pdf", got.Metadata["format"])
	})

	t.Run("upsert replaces vector and payload", func(t *testing.T) {
		x := open(t)
		require.NoError(t, x.Upsert(ctx, Record("a", "doc", 1, 0)))

		replaced := Record("a", "doc", 0, 1)
		replaced.Chunk.Text = "neu"
		require.NoError(t, x.Upsert(ctx, replaced))

		n, err := x.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		hits, err := x.Search(ctx, []float32{0, 1}, 1, nil)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "neu", hits[0].Chunk.Text)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	})

	t.Run("delete by document removes only that document", func(t *testing.T) {
		x := open(t)
		require.NoError(t, x.Upsert(ctx,
			Record("a1", "doc-a", 1, 0),
			Record("a2", "doc-a", 1, 1),
			Record("b1", "doc-b", 0, 1),
		))

		removed, err := x.DeleteByDocument(ctx, "doc-a")
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		ids, err := x.ChunkIDs(ctx, "doc-a")
		require.NoError(t, err)
		assert.Empty(t, ids)

		ids, err = x.ChunkIDs(ctx, "doc-b")
		require.NoError(t, err)
		assert.Equal(t, []string{"b1"}, ids)

		removed, err = x.DeleteByDocument(ctx, "missing")
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("filters by document and label", func(t *testing.T) {
		x := open(t)
		bachelor := Record("b1", "doc-b", 1, 0)
		bachelor.Chunk.Labels = []string{"Fakultaet_III", "Bachelor"}
		require.NoError(t, x.Upsert(ctx, Record("m1", "doc-m", 1, 0), bachelor))

		hits, err := x.Search(ctx, []float32{1, 0}, 5, &domain.SearchFilter{Labels: []string{"bachelor"}})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "b1", hits[0].Chunk.ID)

		hits, err = x.Search(ctx, []float32{1, 0}, 5, &domain.SearchFilter{DocumentIDs: []string{"doc-m"}})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "m1", hits[0].Chunk.ID)
	})

	t.Run("rejects mismatched dimensions", func(t *testing.T) {
		x := open(t)
		require.NoError(t, x.Upsert(ctx, Record("a", "doc", 1, 0)))

		err := x.Upsert(ctx, Record("b", "doc", 1, 0, 0))
		assert.ErrorIs(t, err, domain.ErrIndex)

		_, err = x.Search(ctx, []float32{1, 0, 0}, 3, nil)
		assert.ErrorIs(t, err, domain.ErrIndex)
	})

	t.Run("reingest with new chunking leaves only new chunks", func(t *testing.T) {
		x := open(t)
		require.NoError(t, x.Upsert(ctx,
			Record("old-0", "doc", 1, 0),
			Record("old-450", "doc", 1, 1),
			Record("old-900", "doc", 0, 1),
		))

		_, err := x.DeleteByDocument(ctx, "doc")
		require.NoError(t, err)
		require.NoError(t, x.Upsert(ctx,
			Record("new-0", "doc", 1, 0),
			Record("new-270", "doc", 1, 1),
		))

		ids, err := x.ChunkIDs(ctx, "doc")
		require.NoError(t, err)
		assert.Equal(t, []string{"new-0", "new-270"}, ids)
	})

	t.Run("reset empties the collection and records the model", func(t *testing.T) {
		x := open(t)
		model, err := x.EmbeddingModel(ctx)
		require.NoError(t, err)
		assert.Empty(t, model)

		require.NoError(t, x.Upsert(ctx,
			Record("a", "doc-a", 1, 0, 0, 0),
			Record("b", "doc-b", 0, 1, 0, 0),
		))

		removed, err := x.Reset(ctx, "ollama/nomic-embed-text/768")
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		n, err := x.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		model, err = x.EmbeddingModel(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ollama/nomic-embed-text/768", model)

		// The dimension is free again and the model survives the first upsert.
		require.NoError(t, x.Upsert(ctx, Record("c", "doc-c", 1, 0, 0, 0, 0, 0, 0, 0)))
		model, err = x.EmbeddingModel(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ollama/nomic-embed-text/768", model)
		assert.NotEmpty(t, x.Collection())
	})

	t.Run("concurrent upsert and delete on distinct documents", func(t *testing.T) {
		x := open(t)
		var wg sync.WaitGroup
		errs := make(chan error, 16)
		for d := 0; d < 8; d++ {
			wg.Add(1)
			go func(d int) {
				defer wg.Done()
				doc := fmt.Sprintf("doc-%d", d)
				for i := 0; i < 3; i++ {
					if _, err := x.DeleteByDocument(ctx, doc); err != nil {
						errs <- err
						return
					}
					recs := []domain.VectorRecord{
						Record(fmt.Sprintf("%s-a", doc), doc, 1, float32(d)),
						Record(fmt.Sprintf("%s-b", doc), doc, float32(d), 1),
					}
					if err := x.Upsert(ctx, recs...); err != nil {
						errs <- err
						return
					}
				}
			}(d)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		n, err := x.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 16, n)
	})
}
