// Package driving defines interfaces that external actors (CLI, MCP server) use
// to interact with core services. These are the "driving" ports in hexagonal
// architecture terminology - they drive the application.
//
// RAGService is the whole public contract: ask, ingest and status.
// SearchService and DocumentService are read-only helpers for operators.
//
// Implementations of these interfaces live in internal/core/services.
package driving
