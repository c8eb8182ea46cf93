// Package domain defines the core business entities for regelrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Opaque bytes plus origin metadata from a document source
//   - Document: An extracted regulation document with provenance
//   - Chunk: A bounded span of a document, the unit of indexing and retrieval
//   - RetrievalResult: Ranked chunks for a question
//   - Answer: Generated text with the citations it actually uses
//   - BatchResult: Per-document outcome of an ingestion run
//   - HealthReport: Per-dependency status
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
