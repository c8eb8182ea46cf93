// Package chunker provides a sliding-window text chunking processor.
//
// Sizes are measured in characters (Unicode code points). Consecutive
// chunks share exactly the configured overlap and together cover every
// character of the document.
package chunker

import (
	"context"
	"fmt"
	"unicode"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/ids"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 50

// breakSearchDivisor limits the breakpoint search to the last fifth of a window.
const breakSearchDivisor = 5

// Span is a half-open rune range [Start, End).
type Span struct {
	Start int
	End   int
}

// Processor splits document content into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize    int
	overlap      int
	preferBreaks bool
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithNaturalBreaks moves cuts back to paragraph, sentence or word boundaries.
func WithNaturalBreaks(enabled bool) Option {
	return func(p *Processor) {
		p.preferBreaks = enabled
	}
}

// New creates a new chunker processor with the given options.
// It returns domain.ErrConfiguration unless chunk size exceeds overlap.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	settings := domain.ChunkingSettings{Size: p.chunkSize, Overlap: p.overlap}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// FromSettings creates a processor from configuration.
func FromSettings(s domain.ChunkingSettings) (*Processor, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return New(
		WithChunkSize(s.Size),
		WithOverlap(s.Overlap),
		WithNaturalBreaks(s.PreferBreaks),
	)
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Split computes chunk spans over text in rune offsets.
// Text shorter than the chunk size yields a single span; empty text yields none.
func (p *Processor) Split(text string) []Span {
	return p.split([]rune(text))
}

func (p *Processor) split(runes []rune) []Span {
	n := len(runes)
	if n == 0 {
		return nil
	}

	spans := make([]Span, 0, n/(p.chunkSize-p.overlap)+1)
	start := 0
	for {
		end := start + p.chunkSize
		if end >= n {
			spans = append(spans, Span{Start: start, End: n})
			return spans
		}

		if p.preferBreaks {
			if cut := p.findBreak(runes, start, end); cut > 0 {
				end = cut
			}
		}

		spans = append(spans, Span{Start: start, End: end})
		start = end - p.overlap
	}
}

// findBreak returns the best cut in (lo, end] or -1.
// The cut must stay past start+overlap so the window always advances.
func (p *Processor) findBreak(runes []rune, start, end int) int {
	lo := end - p.chunkSize/breakSearchDivisor
	if floor := start + p.overlap + 1; lo < floor {
		lo = floor
	}
	if lo > end {
		return -1
	}

	// Paragraph break: cut after a blank line.
	for i := end; i >= lo; i-- {
		if i-2 >= start && runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}
	// Sentence end: cut after terminal punctuation followed by whitespace.
	for i := end; i >= lo; i-- {
		if i-1 >= start && i < len(runes) && isSentenceEnd(runes[i-1]) && unicode.IsSpace(runes[i]) {
			return i
		}
	}
	// Word boundary.
	for i := end; i >= lo; i-- {
		if i-1 >= start && unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return -1
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == ';'
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runes := []rune(doc.Content)
	spans := p.split(runes)
	if len(spans) == 0 {
		// Empty content produces no chunks
		return nil, nil
	}

	chunks := make([]domain.Chunk, len(spans))
	for i, s := range spans {
		chunks[i] = domain.Chunk{
			ID:         ids.ChunkID(doc.ID, s.Start),
			DocumentID: doc.ID,
			Index:      i,
			Text:       string(runes[s.Start:s.End]),
			Start:      s.Start,
			End:        s.End,
			Path:       doc.Path,
			Filename:   doc.Filename,
			Title:      doc.Title,
			Labels:     doc.Labels,
			Metadata:   make(map[string]any),
		}
	}
	for i := range chunks {
		if i > 0 {
			chunks[i].PrevID = chunks[i-1].ID
		}
		if i < len(chunks)-1 {
			chunks[i].NextID = chunks[i+1].ID
		}
	}

	return chunks, nil
}
