// Package services implements the driving port interfaces.
//
// RAGService is the public entry point. It composes the Retriever and
// Synthesizer for questions, the IngestService for the per-document
// ingestion state machine and the StatusChecker for health reports.
// CorpusSync and Scheduler feed a DocumentSource into ingestion.
//
// Services depend only on ports; adapters are wired in by the CLI.
package services
