// Package pdf provides the normaliser for PDF documents.
//
// pdfcpu inspects the file (page count, encryption, info dictionary) and a
// PageReader extracts the text of each page. Page boundaries are kept as
// rune spans on the document so chunks can cite page numbers.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/normalisers/extract"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// pageSeparator joins page texts in the document content.
const pageSeparator = "\n\n"

var (
	// ErrEncrypted is returned for password protected PDFs.
	ErrEncrypted = errors.New("pdf is encrypted")

	// ErrNoText is returned when no page yields text, typically for scans.
	ErrNoText = errors.New("pdf contains no extractable text")
)

// PageReader extracts the text of each page, in page order.
type PageReader interface {
	Pages(content []byte) ([]string, error)
}

// Info is what pdfcpu reports about a file.
type Info struct {
	PageCount int
	Encrypted bool
	Title     string
}

// Normaliser handles PDF documents.
type Normaliser struct {
	reader PageReader
}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return NewWithReader(plainTextReader{})
}

// NewWithReader creates a PDF normaliser with a custom page reader.
// This is primarily used for testing.
func NewWithReader(reader PageReader) *Normaliser {
	return &Normaliser{reader: reader}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser
}

// Normalise extracts the text of a PDF with page spans.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// pdfcpu is stricter than the text reader; a failed inspection is not fatal.
	info, inspectErr := Inspect(raw.Content)
	if inspectErr == nil && info.Encrypted {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrExtraction, raw.URI, ErrEncrypted)
	}

	pages, err := n.reader.Pages(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf %s: %w", domain.ErrExtraction, raw.URI, err)
	}

	content, spans := joinPages(pages)
	if content == "" {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrExtraction, raw.URI, ErrNoText)
	}

	title := extractTitle(content, raw.URI)
	if info.Title != "" {
		title = info.Title
	}
	title = extract.TitleFromMetadata(raw, title)

	doc := extract.NewDocument(raw, title, content, spans)
	doc.Metadata["format"] = "pdf"
	doc.Metadata["page_count"] = len(pages)
	if inspectErr == nil {
		doc.Metadata["pdf_page_count"] = info.PageCount
	}

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// Inspect reads the PDF structure with pdfcpu.
func Inspect(content []byte) (Info, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContext(bytes.NewReader(content), conf)
	if err != nil {
		return Info{}, err
	}
	return Info{
		PageCount: pdfCtx.PageCount,
		Encrypted: pdfCtx.Encrypt != nil,
		Title:     strings.TrimSpace(pdfCtx.Title),
	}, nil
}

// joinPages cleans each page and records where it lands in the joined text.
// Pages without text keep their number but get no span.
func joinPages(pages []string) (string, []domain.PageSpan) {
	var b strings.Builder
	spans := make([]domain.PageSpan, 0, len(pages))
	offset := 0

	for i, page := range pages {
		text := extract.CleanText(page)
		if text == "" {
			continue
		}
		if offset > 0 {
			b.WriteString(pageSeparator)
			offset += len(pageSeparator)
		}
		length := len([]rune(text))
		b.WriteString(text)
		spans = append(spans, domain.PageSpan{Number: i + 1, Start: offset, End: offset + length})
		offset += length
	}

	return b.String(), spans
}

// extractTitle uses the first short line of the text, or the filename.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len([]rune(line)) > 200 {
			continue
		}
		return line
	}
	return extract.TitleFromPath(uri)
}
