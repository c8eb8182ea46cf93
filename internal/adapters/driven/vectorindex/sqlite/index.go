// Package sqlite provides the default persistent vector index on top of the
// regelrag SQLite database. Vectors are stored as little-endian float32
// blobs next to a JSON chunk payload; search is an exact cosine scan.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/regelrag/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a SQLite implementation of driven.VectorIndex scoped to one collection.
// The tables are created by the storage/sqlite migrations.
type Index struct {
	db         *sql.DB
	collection string
}

// NewIndex creates an index over db for the named collection.
func NewIndex(db *sql.DB, collection string) *Index {
	return &Index{db: db, collection: collection}
}

// Collection returns the collection name.
func (x *Index) Collection() string {
	return x.collection
}

// Upsert inserts or replaces records in one transaction.
func (x *Index) Upsert(ctx context.Context, records ...domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin upsert: %w", domain.ErrIndex, err)
	}
	defer func() { _ = tx.Rollback() }()

	dims, err := dimensions(ctx, tx, x.collection)
	if err != nil {
		return err
	}
	newDims, err := vectorindex.CheckRecords(records, dims)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if dims == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vector_collections (name, dimensions, created_at) VALUES (?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET dimensions = excluded.dimensions`,
			x.collection, newDims, now); err != nil {
			return fmt.Errorf("%w: create collection: %w", domain.ErrIndex, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (collection, chunk_id, document_id, payload, vector, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			payload = excluded.payload,
			vector = excluded.vector,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("%w: prepare upsert: %w", domain.ErrIndex, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		payload, err := json.Marshal(rec.Chunk)
		if err != nil {
			return fmt.Errorf("%w: marshalling chunk %s: %w", domain.ErrIndex, rec.Chunk.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, x.collection, rec.Chunk.ID, rec.Chunk.DocumentID,
			string(payload), vectorindex.EncodeVector(rec.Vector), now); err != nil {
			return fmt.Errorf("%w: upsert chunk %s: %w", domain.ErrIndex, rec.Chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit upsert: %w", domain.ErrIndex, err)
	}
	return nil
}

// Search scans the collection and returns at most k hits by cosine similarity.
func (x *Index) Search(ctx context.Context, query []float32, k int, filter *domain.SearchFilter) ([]domain.Hit, error) {
	dims, err := dimensions(ctx, x.db, x.collection)
	if err != nil {
		return nil, err
	}
	if dims == 0 {
		return []domain.Hit{}, nil
	}
	if err := vectorindex.CheckQuery(query, dims); err != nil {
		return nil, err
	}

	q := "SELECT payload, vector FROM vectors WHERE collection = ?"
	args := []any{x.collection}
	if filter != nil && len(filter.DocumentIDs) > 0 {
		q += " AND document_id IN (?" + strings.Repeat(",?", len(filter.DocumentIDs)-1) + ")"
		for _, id := range filter.DocumentIDs {
			args = append(args, id)
		}
	}

	rows, err := x.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying vectors: %w", domain.ErrIndex, err)
	}
	defer rows.Close()

	ranker := vectorindex.NewRanker(k)
	for rows.Next() {
		var payload string
		var blob []byte
		if err := rows.Scan(&payload, &blob); err != nil {
			return nil, fmt.Errorf("%w: scanning vector: %w", domain.ErrIndex, err)
		}

		var chunk domain.Chunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return nil, fmt.Errorf("%w: unmarshaling chunk: %w", domain.ErrIndex, err)
		}
		if !filter.Matches(&chunk) {
			continue
		}
		ranker.Add(domain.Hit{Chunk: chunk, Score: vectorindex.Cosine(query, vectorindex.DecodeVector(blob))})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating vectors: %w", domain.ErrIndex, err)
	}

	return ranker.Hits(), nil
}

// DeleteByDocument removes every chunk of a document.
func (x *Index) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	res, err := x.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE collection = ? AND document_id = ?", x.collection, documentID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting document %s: %w", domain.ErrIndex, documentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: deleting document %s: %w", domain.ErrIndex, documentID, err)
	}
	return int(n), nil
}

// ChunkIDs returns the chunk IDs stored for a document in ascending order.
func (x *Index) ChunkIDs(ctx context.Context, documentID string) ([]string, error) {
	rows, err := x.db.QueryContext(ctx,
		"SELECT chunk_id FROM vectors WHERE collection = ? AND document_id = ? ORDER BY chunk_id",
		x.collection, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunk ids: %w", domain.ErrIndex, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning chunk id: %w", domain.ErrIndex, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating chunk ids: %w", domain.ErrIndex, err)
	}
	return ids, nil
}

// EmbeddingModel returns the fingerprint recorded by Reset.
func (x *Index) EmbeddingModel(ctx context.Context) (string, error) {
	var model string
	err := x.db.QueryRowContext(ctx,
		"SELECT embedding_model FROM vector_collections WHERE name = ?", x.collection).Scan(&model)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: reading collection: %w", domain.ErrIndex, err)
	}
	return model, nil
}

// Reset deletes the collection's vectors and records model in one transaction.
func (x *Index) Reset(ctx context.Context, model string) (int, error) {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin reset: %w", domain.ErrIndex, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM vectors WHERE collection = ?", x.collection)
	if err != nil {
		return 0, fmt.Errorf("%w: reset: %w", domain.ErrIndex, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: reset: %w", domain.ErrIndex, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vector_collections (name, dimensions, embedding_model, created_at) VALUES (?, 0, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET dimensions = 0, embedding_model = excluded.embedding_model`,
		x.collection, model, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("%w: reset: %w", domain.ErrIndex, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit reset: %w", domain.ErrIndex, err)
	}
	return int(removed), nil
}

// Count returns the number of stored chunks in the collection.
func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := x.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vectors WHERE collection = ?", x.collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: counting vectors: %w", domain.ErrIndex, err)
	}
	return n, nil
}

// Ping validates the database is reachable without modifying it.
func (x *Index) Ping(ctx context.Context) error {
	if err := x.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", domain.ErrIndex, err)
	}
	return nil
}

// Close is a no-op; the owning store closes the database.
func (x *Index) Close() error {
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dimensions returns the collection's vector size, 0 when it holds nothing yet.
// A collection emptied by deletes may change dimension on the next upsert.
func dimensions(ctx context.Context, q querier, collection string) (int, error) {
	var dims int
	err := q.QueryRowContext(ctx, `
		SELECT c.dimensions FROM vector_collections c
		WHERE c.name = ? AND EXISTS (SELECT 1 FROM vectors v WHERE v.collection = c.name)
	`, collection).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading collection: %w", domain.ErrIndex, err)
	}
	return dims, nil
}
