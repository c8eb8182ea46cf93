package domain

import "time"

// RawDocument represents opaque bytes handed over by a document source.
// It is the source's output before text extraction.
type RawDocument struct {
	// URI is the original location (absolute file path or URL).
	URI string

	// Path is the location relative to the corpus root.
	// Document identity is derived from it.
	Path string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Labels is the flattened hierarchy the document was found under,
	// outermost first (e.g. faculty, degree, programme).
	Labels []string

	// ModTime is the last modification time reported by the source.
	ModTime time.Time

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]any
}

// ChangeType represents the type of document change.
type ChangeType int

const (
	// ChangeCreated indicates a new document.
	ChangeCreated ChangeType = iota

	// ChangeUpdated indicates a modified document.
	ChangeUpdated

	// ChangeDeleted indicates a removed document.
	ChangeDeleted
)

// String returns the string representation.
func (c ChangeType) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// RawDocumentChange represents a change event from a watching source.
type RawDocumentChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Document is the affected document.
	// Content is empty for ChangeDeleted.
	Document RawDocument
}
