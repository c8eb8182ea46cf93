package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// Adapters wrap their causes with one of these so callers can use errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no extractor handles a MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrConfiguration indicates invalid settings, such as a chunk size
	// that does not exceed the overlap. It is fatal and raised before any work starts.
	ErrConfiguration = errors.New("configuration error")

	// ErrExtraction indicates a single document could not be turned into text.
	// Batch ingestion skips the document and continues.
	ErrExtraction = errors.New("extraction failure")

	// ErrEmbeddingUnavailable indicates the embedding service could not be
	// reached after exhausting retries, or is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndex indicates the vector index is unreachable or rejected an operation.
	ErrIndex = errors.New("vector index error")

	// ErrGeneration indicates the LLM call failed or timed out.
	// It is surfaced to the caller and never retried automatically.
	ErrGeneration = errors.New("generation error")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// StatusError is a non-success HTTP response from a model provider.
// Adapters wrap it together with their sentinel, so both errors.Is and
// errors.As work on the result.
type StatusError struct {
	Provider string
	Code     int
	Message  string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s error (status %d)", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.Code, e.Message)
}

// Temporary reports whether the same request may succeed later: request
// timeouts, rate limiting and server errors. Other client errors such as an
// unknown model never do.
func (e *StatusError) Temporary() bool {
	return e.Code == 408 || e.Code == 429 || e.Code >= 500
}
