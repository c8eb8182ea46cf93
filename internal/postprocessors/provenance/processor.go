// Package provenance annotates chunks with the page and section they come from.
package provenance

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

// headingPattern matches the heading styles found in regulation documents:
// paragraph signs, module handbook field labels, markdown headings and
// numbered headings.
var headingPattern = regexp.MustCompile(`(?m)^[ \t]*(` +
	`§[ \t]*\d+[a-z]?\b[^\n]{0,100}` +
	`|(?i:Modulname|Modul|Inhalte?|Ziele|Qualifikationsziele|Leistungspunkte|Dauer|Voraussetzungen|` +
	`Studienleistungen|Empfohlene Literatur|Prüfungen|Prüfungsform|Lehrformen|Studienverlauf|Regelstudienzeit)[^:\n]{0,60}:[^\n]*` +
	`|#{1,6}[ \t]+[^\n]+` +
	`|\d+(?:\.\d+)*\.?[ \t]+\p{Lu}[^\n]{2,80}` +
	`)[ \t]*$`)

// Heading is a section title and the rune offset it starts at.
type Heading struct {
	Offset int
	Title  string
}

// Processor sets Page and Section on chunks.
// It implements the PostProcessor interface and must run after the chunker.
type Processor struct{}

// New creates a provenance processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "provenance"
}

// Process annotates each chunk in place and returns them.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil || len(chunks) == 0 {
		return chunks, nil
	}

	headings := Headings(doc.Content)
	for i := range chunks {
		c := &chunks[i]
		c.Page = doc.PageAt(c.Start)
		c.Section = sectionFor(headings, c.Start, c.End)

		if c.Metadata == nil {
			c.Metadata = make(map[string]any)
		}
		if c.Page > 0 {
			c.Metadata["page_number"] = c.Page
		}
		if c.Section != "" {
			c.Metadata["section"] = c.Section
		}
	}
	return chunks, nil
}

// Headings returns the headings of text in order, with rune offsets.
func Headings(text string) []Heading {
	matches := headingPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	headings := make([]Heading, 0, len(matches))
	bytePos, runePos := 0, 0
	for _, m := range matches {
		start := m[2]
		runePos += utf8.RuneCountInString(text[bytePos:start])
		bytePos = start

		title := strings.TrimSpace(text[m[2]:m[3]])
		title = strings.TrimSpace(strings.TrimLeft(title, "#"))
		if i := strings.Index(title, ":"); i > 0 && !strings.HasPrefix(title, "§") {
			title = strings.TrimSpace(title[:i])
		}
		headings = append(headings, Heading{Offset: runePos, Title: title})
	}
	return headings
}

// sectionFor returns the last heading at or before start, or the first
// heading inside the span when the chunk precedes every earlier heading.
func sectionFor(headings []Heading, start, end int) string {
	section := ""
	for _, h := range headings {
		if h.Offset > start {
			if section == "" && h.Offset < end {
				return h.Title
			}
			break
		}
		section = h.Title
	}
	return section
}
