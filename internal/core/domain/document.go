package domain

import "time"

// Document represents an extracted regulation document.
// It is immutable once stored; re-ingestion supersedes it under the same ID.
type Document struct {
	// ID is derived from the corpus-relative path, so it survives content changes.
	ID string

	// URI is the original location.
	URI string

	// Path is the location relative to the corpus root.
	Path string

	// Filename is the base name of Path.
	Filename string

	// Title is the human-readable title.
	Title string

	// Content is the full extracted text before chunking.
	Content string

	// Labels is the flattened folder hierarchy (faculty, degree, programme).
	Labels []string

	// MIMEType is the content type the text was extracted from.
	MIMEType string

	// ContentHash is the hex sha256 of the raw bytes.
	ContentHash string

	// Pages maps rune offsets of Content to source pages.
	// Empty for formats without pages.
	Pages []PageSpan

	// Metadata contains extractor-specific key-value pairs.
	Metadata map[string]any

	// IngestedAt is when the document was extracted.
	IngestedAt time.Time
}

// TextLength returns the length of Content in runes.
func (d *Document) TextLength() int {
	return len([]rune(d.Content))
}

// PageSpan is the half-open rune range [Start, End) a page occupies in Document.Content.
type PageSpan struct {
	Number int
	Start  int
	End    int
}

// PageAt returns the page number containing the rune offset, or 0 if unknown.
// Offsets between two pages belong to the following page.
func (d *Document) PageAt(offset int) int {
	for _, p := range d.Pages {
		if offset < p.End {
			return p.Number
		}
	}
	if n := len(d.Pages); n > 0 && offset >= d.Pages[n-1].End {
		return d.Pages[n-1].Number
	}
	return 0
}

// Chunk represents a bounded contiguous span of a document's text.
// Chunks are the atomic unit of indexing and retrieval.
type Chunk struct {
	// ID is a deterministic function of DocumentID and Start.
	ID string

	// DocumentID links to the parent document.
	DocumentID string

	// Index is the position of the chunk within the document.
	Index int

	// Text is the chunk content.
	Text string

	// Start is the first rune offset of the span within the document.
	Start int

	// End is the rune offset one past the span.
	End int

	// PrevID and NextID are the overlap-adjacent chunks. Empty at the edges.
	PrevID string
	NextID string

	// Page is the source page the span starts on, 0 if unknown.
	Page int

	// Section is the nearest preceding section heading, if any.
	Section string

	// Path, Filename, Title and Labels are copied from the document so
	// that retrieval never needs a second lookup.
	Path     string
	Filename string
	Title    string
	Labels   []string

	// Metadata contains additional key-value pairs.
	Metadata map[string]any
}

// Len returns the span length in runes.
func (c *Chunk) Len() int {
	return c.End - c.Start
}
