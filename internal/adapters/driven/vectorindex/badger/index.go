// Package badger provides a persistent vector index on BadgerDB through
// badgerhold. It is selected with index.backend = "badger" and keeps its
// files in <data_dir>/badger.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/custodia-labs/regelrag/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/logger"
)

// Verify interface compliance.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one stored chunk vector.
type entry struct {
	Key        string
	Collection string `badgerholdIndex:"Collection"`
	DocumentID string `badgerholdIndex:"DocumentID"`
	Chunk      domain.Chunk
	Vector     []float32
}

// collectionMeta fixes a collection's vector size and the embedding model
// its vectors came from.
type collectionMeta struct {
	Name       string
	Dimensions int
	Model      string
}

// Index is a BadgerDB implementation of driven.VectorIndex scoped to one collection.
type Index struct {
	store      *badgerhold.Store
	collection string

	// mu serialises the dimension check with the write that depends on it.
	mu sync.Mutex
}

// Open opens or creates the database in dir.
func Open(dir, collection string) (*Index, error) {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating index directory: %w", domain.ErrIndex, err)
	}

	logger.Debug("Opening badger index at %s", dir)

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil // badger's own logger is too chatty for a CLI
	options.Encoder = json.Marshal
	options.Decoder = json.Unmarshal

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("%w: opening badger database: %w", domain.ErrIndex, err)
	}

	return &Index{store: store, collection: collection}, nil
}

// Collection returns the collection name.
func (x *Index) Collection() string {
	return x.collection
}

func (x *Index) key(chunkID string) string {
	return x.collection + "/" + chunkID
}

func (x *Index) inCollection() *badgerhold.Query {
	return badgerhold.Where("Collection").Eq(x.collection).Index("Collection")
}

// Upsert inserts or replaces records in one badger transaction.
func (x *Index) Upsert(ctx context.Context, records ...domain.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	dims, err := x.dimensions()
	if err != nil {
		return err
	}
	newDims, err := vectorindex.CheckRecords(records, dims)
	if err != nil {
		return err
	}

	err = x.store.Badger().Update(func(tx *badger.Txn) error {
		if dims == 0 {
			meta, err := x.meta(tx)
			if err != nil {
				return err
			}
			meta.Dimensions = newDims
			if err := x.store.TxUpsert(tx, x.collection, &meta); err != nil {
				return err
			}
		}
		for _, rec := range records {
			e := entry{
				Key:        x.key(rec.Chunk.ID),
				Collection: x.collection,
				DocumentID: rec.Chunk.DocumentID,
				Chunk:      rec.Chunk,
				Vector:     rec.Vector,
			}
			if err := x.store.TxUpsert(tx, e.Key, &e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: upsert: %w", domain.ErrIndex, err)
	}
	return nil
}

// Search scans the collection and returns at most k hits by cosine similarity.
func (x *Index) Search(ctx context.Context, query []float32, k int, filter *domain.SearchFilter) ([]domain.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dims, err := x.dimensions()
	if err != nil {
		return nil, err
	}
	if dims == 0 {
		return []domain.Hit{}, nil
	}
	if err := vectorindex.CheckQuery(query, dims); err != nil {
		return nil, err
	}

	ranker := vectorindex.NewRanker(k)
	err = x.store.ForEach(x.inCollection(), func(e *entry) error {
		if !filter.Matches(&e.Chunk) {
			return nil
		}
		ranker.Add(domain.Hit{Chunk: e.Chunk, Score: vectorindex.Cosine(query, e.Vector)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrIndex, err)
	}
	return ranker.Hits(), nil
}

// DeleteByDocument removes every chunk of a document in one transaction.
func (x *Index) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	query := badgerhold.Where("DocumentID").Eq(documentID).Index("DocumentID").
		And("Collection").Eq(x.collection)

	var removed int
	err := x.store.Badger().Update(func(tx *badger.Txn) error {
		var entries []entry
		if err := x.store.TxFind(tx, &entries, query); err != nil {
			return err
		}
		removed = len(entries)
		if removed == 0 {
			return nil
		}
		return x.store.TxDeleteMatching(tx, &entry{}, query)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: deleting document %s: %w", domain.ErrIndex, documentID, err)
	}
	return removed, nil
}

// ChunkIDs returns the chunk IDs stored for a document in ascending order.
func (x *Index) ChunkIDs(ctx context.Context, documentID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []entry
	query := badgerhold.Where("DocumentID").Eq(documentID).Index("DocumentID").
		And("Collection").Eq(x.collection)
	if err := x.store.Find(&entries, query); err != nil {
		return nil, fmt.Errorf("%w: finding chunks of %s: %w", domain.ErrIndex, documentID, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Chunk.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// EmbeddingModel returns the fingerprint recorded by Reset.
func (x *Index) EmbeddingModel(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var meta collectionMeta
	if err := x.store.Get(x.collection, &meta); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: reading collection: %w", domain.ErrIndex, err)
	}
	return meta.Model, nil
}

// Reset deletes the collection's entries and records model in one transaction.
func (x *Index) Reset(ctx context.Context, model string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	var removed int
	err := x.store.Badger().Update(func(tx *badger.Txn) error {
		var entries []entry
		if err := x.store.TxFind(tx, &entries, x.inCollection()); err != nil {
			return err
		}
		removed = len(entries)
		if removed > 0 {
			if err := x.store.TxDeleteMatching(tx, &entry{}, x.inCollection()); err != nil {
				return err
			}
		}
		meta := collectionMeta{Name: x.collection, Model: model}
		return x.store.TxUpsert(tx, x.collection, &meta)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: reset: %w", domain.ErrIndex, err)
	}
	return removed, nil
}

// meta reads the collection record inside tx, empty when there is none.
func (x *Index) meta(tx *badger.Txn) (collectionMeta, error) {
	meta := collectionMeta{Name: x.collection}
	if err := x.store.TxGet(tx, x.collection, &meta); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return meta, err
	}
	return meta, nil
}

// Count returns the number of stored chunks in the collection.
func (x *Index) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := x.store.Count(&entry{}, x.inCollection())
	if err != nil {
		return 0, fmt.Errorf("%w: counting vectors: %w", domain.ErrIndex, err)
	}
	return int(n), nil
}

// Ping validates the database is open without modifying it.
func (x *Index) Ping(_ context.Context) error {
	if x.store.Badger().IsClosed() {
		return fmt.Errorf("%w: badger database closed", domain.ErrIndex)
	}
	return x.store.Badger().View(func(*badger.Txn) error { return nil })
}

// Close closes the database.
func (x *Index) Close() error {
	if x.store.Badger().IsClosed() {
		return nil
	}
	return x.store.Close()
}

// dimensions returns the collection's vector size, 0 when it holds nothing.
func (x *Index) dimensions() (int, error) {
	n, err := x.store.Count(&entry{}, x.inCollection())
	if err != nil {
		return 0, fmt.Errorf("%w: counting vectors: %w", domain.ErrIndex, err)
	}
	if n == 0 {
		return 0, nil
	}

	var meta collectionMeta
	if err := x.store.Get(x.collection, &meta); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: reading collection: %w", domain.ErrIndex, err)
	}
	return meta.Dimensions, nil
}
