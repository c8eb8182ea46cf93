// Package sqlite provides the SQLite database that backs the ingestion
// registry and the default vector index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database file holds:
//
//   - ingest_records: the IngestRegistry
//   - vector_collections, vectors: the sqlite VectorIndex (see vectorindex/sqlite)
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored at <data_dir>/regelrag.db, ./data/regelrag.db by default.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode; write transactions take the lock immediately.
package sqlite
