package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

var (
	// groupPattern finds bracketed and parenthesised spans.
	groupPattern   = regexp.MustCompile(`[\[(]([^\[\]()]*)[\])]`)
	keywordPattern = regexp.MustCompile(`(?i)^\s*(?:quellen?|sources?)\s*`)
	listSeparator  = regexp.MustCompile(`(?i)\s*(?:[,;&]|\bund\b|\band\b)\s*`)
	// referencePattern reads "2", "1-3", "1–3" or "1 bis 3" at the start of a list item.
	referencePattern = regexp.MustCompile(`(?i)^(\d+)(?:\s*(?:-|–|bis|to)\s*(\d+))?(?:\D|$)`)
)

// maxMarkerRange bounds how many markers one "[Quelle a-b]" may expand to.
const maxMarkerRange = 20

// usedMarkers returns the distinct marker numbers in text, by first occurrence.
// It understands "[Quelle 2]", "[2]", "(Quelle 2)", "[Quelle 1, 3]",
// "[Quellen 1 und 2]", "[Quelle 1-3]", "[Quelle 2, Seite 5]" and echoed block
// headers such as "[Quelle 2: SPO.pdf - ...]". Parentheses only count with
// the keyword, so "Abs. (2)" is not a marker.
func usedMarkers(text string) []int {
	var (
		markers []int
		seen    = make(map[int]bool)
	)
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			markers = append(markers, n)
		}
	}

	for _, m := range groupPattern.FindAllStringSubmatch(text, -1) {
		inner := m[1]
		keyword := keywordPattern.MatchString(inner)
		if m[0][0] == '(' && !keyword {
			continue
		}
		if i := strings.IndexByte(inner, ':'); i >= 0 {
			inner = inner[:i]
		}
		inner = keywordPattern.ReplaceAllString(inner, "")

		for _, item := range listSeparator.Split(strings.TrimSpace(inner), -1) {
			item = keywordPattern.ReplaceAllString(item, "")
			ref := referencePattern.FindStringSubmatch(item)
			if ref == nil {
				// Anything after "Seite" or other text belongs to it, not to the markers.
				break
			}
			from, _ := strconv.Atoi(ref[1])
			to := from
			if ref[2] != "" {
				to, _ = strconv.Atoi(ref[2])
			}
			if to < from || to-from >= maxMarkerRange {
				to = from
			}
			for n := from; n <= to; n++ {
				add(n)
			}
		}
	}
	return markers
}

// extractCitations maps the markers used in text to the first offered hits.
// Markers outside 1..offered never become citations.
func extractCitations(text string, hits []domain.Hit, offered int) []domain.Citation {
	offered = min(offered, len(hits))

	var citations []domain.Citation
	for _, n := range usedMarkers(text) {
		if n < 1 || n > offered {
			continue
		}
		h := hits[n-1]
		citations = append(citations, domain.Citation{
			Marker:     n,
			ChunkID:    h.Chunk.ID,
			DocumentID: h.Chunk.DocumentID,
			Path:       h.Chunk.Path,
			Filename:   h.Chunk.Filename,
			Title:      h.Chunk.Title,
			Labels:     append([]string(nil), h.Chunk.Labels...),
			Page:       h.Chunk.Page,
			Section:    h.Chunk.Section,
			Start:      h.Chunk.Start,
			End:        h.Chunk.End,
			Score:      h.Score,
		})
	}
	return citations
}
