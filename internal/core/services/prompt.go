package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

const (
	unknownFilename = "Unbekanntes Dokument"
	unknownTitle    = "Unbekannter Abschnitt"
)

// fallbackInstructions is used when no prompt store is wired or it fails.
const fallbackInstructions = "Beantworte die Frage ausschließlich anhand der Quellen. " +
	"Antworte in der Sprache der Frage und belege Aussagen mit [Quelle N]."

// sourceHeader formats the tag of the n-th context block.
func sourceHeader(n int, c *domain.Chunk) string {
	filename := c.Filename
	if filename == "" {
		filename = unknownFilename
	}
	title := c.Title
	if title == "" {
		title = unknownTitle
	}

	header := fmt.Sprintf("[Quelle %d: %s - %s", n, filename, title)
	if c.Page > 0 {
		header += fmt.Sprintf(", Seite %d", c.Page)
	}
	return header + "]"
}

// buildPrompt assembles instructions, numbered context blocks and the question.
// Blocks are dropped from the tail until the prompt fits maxChars runes; the
// first block is always kept and truncated if it alone does not fit.
// It returns the prompt and the number of blocks it contains. A limit too
// small for the first block's header is a domain.ErrConfiguration.
func buildPrompt(instructions, question string, hits []domain.Hit, maxChars int) (string, int, error) {
	head := strings.TrimSpace(instructions) + "\n\nKONTEXT:\n"
	tail := "\nFRAGE: " + question + "\n\nANTWORT:"

	blocks := make([]string, len(hits))
	for i := range hits {
		c := &hits[i].Chunk
		blocks[i] = sourceHeader(i+1, c) + "\n" + strings.TrimSpace(c.Text) + "\n"
	}

	budget := maxChars - utf8.RuneCountInString(head) - utf8.RuneCountInString(tail)
	used, size := 0, 0
	for _, b := range blocks {
		// blocks are joined with a newline
		n := utf8.RuneCountInString(b) + 1
		if maxChars > 0 && size+n > budget {
			break
		}
		size += n
		used++
	}

	if used == 0 && len(blocks) > 0 {
		// header, newline and at least one rune of text
		need := utf8.RuneCountInString(sourceHeader(1, &hits[0].Chunk)) + 2
		if budget-1 < need {
			return "", 0, fmt.Errorf("%w: max_context_chars %d leaves no room for a source after the instructions",
				domain.ErrConfiguration, maxChars)
		}
		blocks[0] = truncateRunes(blocks[0], budget-1)
		used = 1
	}

	return head + strings.Join(blocks[:used], "\n") + tail, used, nil
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
