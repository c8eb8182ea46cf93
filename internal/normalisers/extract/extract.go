// Package extract holds the helpers every normaliser shares: text cleaning,
// title derivation and document construction.
package extract

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/ids"
)

var (
	hyphenBreak    = regexp.MustCompile(`(\p{L})-\n[ \t]*(\p{Ll}+)`)
	spaceRuns      = regexp.MustCompile(`[ \t\f\v]+`)
	pageNumberLine = regexp.MustCompile(`(?mi)^[ \t]*(?:-[ \t]*\d+[ \t]*-|seite[ \t]+\d+(?:[ \t]+von[ \t]+\d+)?|\d{1,4})[ \t]*$`)
	manyNewlines   = regexp.MustCompile(`\n{3,}`)
)

// conjunctions keep their hyphen across a line break ("Bachelor- und Master").
var conjunctions = map[string]bool{"und": true, "oder": true, "bzw": true, "sowie": true}

// CleanText normalises extracted text while keeping paragraph structure.
// It joins words hyphenated across line breaks, drops bare page-number lines,
// collapses horizontal whitespace and limits blank lines to one.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "­", "")

	s = hyphenBreak.ReplaceAllStringFunc(s, func(m string) string {
		parts := hyphenBreak.FindStringSubmatch(m)
		if conjunctions[parts[2]] {
			return parts[1] + "- " + parts[2]
		}
		return parts[1] + parts[2]
	})
	s = pageNumberLine.ReplaceAllString(s, "")
	s = spaceRuns.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")
	s = manyNewlines.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// ToUTF8 returns content as a string, reading it as Latin-1 when it is not valid UTF-8.
func ToUTF8(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	runes := make([]rune, len(content))
	for i, b := range content {
		runes[i] = rune(b)
	}
	return string(runes)
}

// TitleFromPath derives a human-readable title from a file name.
func TitleFromPath(path string) string {
	filename := filepath.Base(path)

	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return strings.TrimSpace(filename)
}

// FirstLineTitle returns the first non-empty line of text if it looks like
// a title, otherwise the title derived from path.
func FirstLineTitle(text, path string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= 120 {
			return line
		}
		break
	}
	return TitleFromPath(path)
}

// TitleFromMetadata prefers a title set by the source.
func TitleFromMetadata(raw *domain.RawDocument, fallback string) string {
	if raw.Metadata != nil {
		if title, ok := raw.Metadata["title"].(string); ok && strings.TrimSpace(title) != "" {
			return strings.TrimSpace(title)
		}
	}
	return fallback
}

// NewDocument builds the extracted document for raw with identity and provenance filled in.
func NewDocument(raw *domain.RawDocument, title, content string, pages []domain.PageSpan) domain.Document {
	path := raw.Path
	if path == "" {
		path = raw.URI
	}

	metadata := copyMetadata(raw.Metadata)
	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["mime_type"] = raw.MIMEType

	return domain.Document{
		ID:          ids.DocumentID(path),
		URI:         raw.URI,
		Path:        path,
		Filename:    filepath.Base(path),
		Title:       title,
		Content:     content,
		Labels:      append([]string(nil), raw.Labels...),
		MIMEType:    raw.MIMEType,
		ContentHash: ids.ContentHash(raw.Content),
		Pages:       pages,
		Metadata:    metadata,
		IngestedAt:  time.Now().UTC(),
	}
}

// copyMetadata creates a shallow copy of metadata.
func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
