// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Normaliser / NormaliserRegistry: Turns raw bytes into text (PDF, HTML, Markdown, text)
//   - PostProcessorPipeline: Splits text into chunks with provenance
//   - EmbeddingService: Maps text to vectors
//   - VectorIndex: Persists vectors and answers nearest-neighbour queries
//   - IngestRegistry: Remembers what was ingested under which content and config hash
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Without it, ask returns retrieval results only and status reports not_configured.
//   - DocumentSource: Only needed by directory ingestion and watch mode.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
