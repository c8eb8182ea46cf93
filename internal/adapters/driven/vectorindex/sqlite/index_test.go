package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storage "github.com/custodia-labs/regelrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/regelrag/internal/adapters/driven/vectorindex/indextest"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
)

func openStore(t *testing.T, dir string) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestIndex_Contract(t *testing.T) {
	indextest.Run(t, func(t *testing.T) driven.VectorIndex {
		return openStore(t, t.TempDir()).VectorIndex("test")
	})
}

func TestIndex_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, t.TempDir())

	regs := store.VectorIndex("regulations")
	other := store.VectorIndex("other")
	require.NoError(t, regs.Upsert(ctx, indextest.Record("a", "doc", 1, 0)))
	require.NoError(t, other.Upsert(ctx, indextest.Record("a", "doc", 1, 0, 0)))

	hits, err := regs.Search(ctx, []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	n, err := other.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	removed, err := regs.DeleteByDocument(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err = other.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIndex_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := storage.NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.VectorIndex("test").Upsert(ctx,
		indextest.Record("a", "doc", 1, 0),
		indextest.Record("b", "doc", 0, 1),
	))
	require.NoError(t, first.Close())

	second := openStore(t, dir)
	hits, err := second.VectorIndex("test").Search(ctx, []float32{0, 1}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].Chunk.ID)
}

func TestIndex_EmptiedCollectionAcceptsNewDimension(t *testing.T) {
	ctx := context.Background()
	idx := openStore(t, t.TempDir()).VectorIndex("test")

	require.NoError(t, idx.Upsert(ctx, indextest.Record("a", "doc", 1, 0)))
	_, err := idx.DeleteByDocument(ctx, "doc")
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(ctx, indextest.Record("a", "doc", 1, 0, 0)))
	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}
