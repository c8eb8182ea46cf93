package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/normalisers/extract"
	"github.com/custodia-labs/regelrag/internal/normalisers/markdown"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// boilerplate lists elements that never carry regulation text.
const boilerplate = "script, style, noscript, svg, iframe, form, nav, header, footer"

// contentSelectors are tried in order to find the main content.
var contentSelectors = []string{"main", "article", "[role=main]", "body"}

// Normaliser handles HTML documents.
type Normaliser struct {
	converter *md.Converter
}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{converter: md.NewConverter("", true, nil)}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML document to a normalised document.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html %s: %w", domain.ErrExtraction, raw.URI, err)
	}

	title := extractHTMLTitle(page)
	if title == "" {
		title = extract.TitleFromPath(raw.URI)
	}
	title = extract.TitleFromMetadata(raw, title)

	content, err := n.mainContent(page)
	if err != nil {
		return nil, fmt.Errorf("%w: convert html %s: %w", domain.ErrExtraction, raw.URI, err)
	}

	doc := extract.NewDocument(raw, title, content, nil)
	doc.Metadata["format"] = "html"

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// extractHTMLTitle returns the <title> text, or the first <h1>.
func extractHTMLTitle(page *goquery.Document) string {
	if title := strings.TrimSpace(page.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.Join(strings.Fields(page.Find("h1").First().Text()), " ")
}

// mainContent strips boilerplate and returns the readable text of the page.
func (n *Normaliser) mainContent(page *goquery.Document) (string, error) {
	page.Find(boilerplate).Remove()

	sel := page.Selection
	for _, selector := range contentSelectors {
		if found := page.Find(selector).First(); found.Length() > 0 {
			sel = found
			break
		}
	}

	fragment, err := goquery.OuterHtml(sel)
	if err != nil {
		return "", err
	}

	converted, err := n.converter.ConvertString(fragment)
	if err != nil {
		return "", err
	}

	content, _ := markdown.PlainText([]byte(converted))
	return content, nil
}
