package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
)

// ingestRegistry implements driven.IngestRegistry.
type ingestRegistry struct {
	store *Store
}

var _ driven.IngestRegistry = (*ingestRegistry)(nil)

// Get retrieves the record for a document.
func (r *ingestRegistry) Get(ctx context.Context, documentID string) (*domain.IngestRecord, error) {
	row := r.store.db.QueryRowContext(ctx, `
		SELECT document_id, path, title, labels, content_hash, config_hash,
		       state, reason, chunk_count, text_length, updated_at
		FROM ingest_records WHERE document_id = ?
	`, documentID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Save inserts or replaces the record for a document.
func (r *ingestRegistry) Save(ctx context.Context, rec domain.IngestRecord) error {
	if rec.DocumentID == "" {
		return fmt.Errorf("%w: record without document id", domain.ErrInvalidInput)
	}
	if !rec.State.IsValid() {
		return fmt.Errorf("%w: unknown ingest state %q", domain.ErrInvalidInput, rec.State)
	}

	labels := rec.Labels
	if labels == nil {
		labels = []string{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("marshalling labels: %w", err)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	_, err = r.store.db.ExecContext(ctx, `
		INSERT INTO ingest_records (document_id, path, title, labels, content_hash, config_hash,
			state, reason, chunk_count, text_length, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			labels = excluded.labels,
			content_hash = excluded.content_hash,
			config_hash = excluded.config_hash,
			state = excluded.state,
			reason = excluded.reason,
			chunk_count = excluded.chunk_count,
			text_length = excluded.text_length,
			updated_at = excluded.updated_at
	`, rec.DocumentID, rec.Path, rec.Title, string(labelsJSON), rec.ContentHash, rec.ConfigHash,
		string(rec.State), rec.Reason, rec.ChunkCount, rec.TextLength, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving ingest record: %w", err)
	}
	return nil
}

// Delete removes the record for a document.
func (r *ingestRegistry) Delete(ctx context.Context, documentID string) error {
	_, err := r.store.db.ExecContext(ctx, "DELETE FROM ingest_records WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting ingest record: %w", err)
	}
	return nil
}

// List returns all records ordered by path.
func (r *ingestRegistry) List(ctx context.Context) ([]domain.IngestRecord, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT document_id, path, title, labels, content_hash, config_hash,
		       state, reason, chunk_count, text_length, updated_at
		FROM ingest_records ORDER BY path, document_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying ingest records: %w", err)
	}
	defer rows.Close()

	var records []domain.IngestRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ingest records: %w", err)
	}
	return records, nil
}

// Ping validates the database is reachable.
func (r *ingestRegistry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Close is a no-op; the store owns the connection.
func (r *ingestRegistry) Close() error {
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord scans a single ingest record.
func scanRecord(row rowScanner) (*domain.IngestRecord, error) {
	var rec domain.IngestRecord
	var labelsJSON, state string

	if err := row.Scan(&rec.DocumentID, &rec.Path, &rec.Title, &labelsJSON,
		&rec.ContentHash, &rec.ConfigHash, &state, &rec.Reason,
		&rec.ChunkCount, &rec.TextLength, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning ingest record: %w", err)
	}
	rec.State = domain.IngestState(state)

	if labelsJSON != "" {
		if err := json.Unmarshal([]byte(labelsJSON), &rec.Labels); err != nil {
			return nil, fmt.Errorf("unmarshaling labels: %w", err)
		}
	}
	return &rec, nil
}
