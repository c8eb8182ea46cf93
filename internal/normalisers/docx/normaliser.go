// Package docx extracts text from Word documents. Paragraphs with a heading
// style are emitted as markdown headings so sections are detected.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/normalisers/extract"
)

// MIMEType is the content type of .docx files.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts a DOCX document to a normalised document.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %w", domain.ErrExtraction, err)
	}

	body, err := readPart(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("%w: word/document.xml missing", domain.ErrExtraction)
	}
	content, err := documentText(body)
	if err != nil {
		return nil, err
	}

	title := extract.TitleFromPath(raw.URI)
	if core, _ := readPart(reader, "docProps/core.xml"); core != nil {
		if t := coreTitle(core); t != "" {
			title = t
		}
	}
	title = extract.TitleFromMetadata(raw, title)

	doc := extract.NewDocument(raw, title, content, nil)
	doc.Metadata["format"] = "docx"

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// readPart returns the bytes of the named archive member, or nil if absent.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrExtraction, name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrExtraction, name, err)
		}
		return content, nil
	}
	return nil, nil
}

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Style struct {
		Val string `xml:"val,attr"`
	} `xml:"pPr>pStyle"`
	Runs []run `xml:"r"`
}

type run struct {
	Items []runItem `xml:",any"`
}

type runItem struct {
	XMLName xml.Name
	Content string `xml:",chardata"`
}

// documentText flattens word/document.xml to text, one paragraph per line.
func documentText(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("%w: word/document.xml: %w", domain.ErrExtraction, err)
	}

	var b strings.Builder
	for _, para := range doc.Body.Paragraphs {
		var line strings.Builder
		for _, r := range para.Runs {
			for _, item := range r.Items {
				switch item.XMLName.Local {
				case "t":
					line.WriteString(item.Content)
				case "tab":
					line.WriteString("\t")
				case "br", "cr":
					line.WriteString("\n")
				}
			}
		}

		text := strings.TrimSpace(line.String())
		if text == "" {
			b.WriteString("\n")
			continue
		}
		if level := headingLevel(para.Style.Val); level > 0 {
			b.WriteString(strings.Repeat("#", level))
			b.WriteString(" ")
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return extract.CleanText(b.String()), nil
}

// headingLevel maps Word paragraph style IDs to heading levels. German
// templates use "berschrift1" style IDs, English ones "Heading1".
func headingLevel(style string) int {
	s := strings.ToLower(style)
	switch {
	case s == "title" || s == "titel":
		return 1
	case strings.HasPrefix(s, "heading"):
		s = strings.TrimPrefix(s, "heading")
	case strings.HasPrefix(s, "berschrift"):
		s = strings.TrimPrefix(s, "berschrift")
	case strings.HasPrefix(s, "überschrift"):
		s = strings.TrimPrefix(s, "überschrift")
	default:
		return 0
	}

	level, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || level < 1 {
		return 0
	}
	return min(level, 6)
}

type coreXML struct {
	Title string `xml:"title"`
}

func coreTitle(content []byte) string {
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
