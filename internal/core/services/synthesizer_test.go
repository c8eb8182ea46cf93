package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
)

func testHits() []domain.Hit {
	return []domain.Hit{
		{Score: 0.9, Chunk: domain.Chunk{
			ID: "c1", DocumentID: "d1", Text: "Die Regelstudienzeit beträgt vier Semester.",
			Path: "Fakultaet_III/Master/SPO.pdf", Filename: "SPO.pdf", Title: "Studienordnung",
			Labels: []string{"Fakultaet_III", "Master"}, Page: 3, Section: "§ 4 Regelstudienzeit", Start: 450, End: 950,
		}},
		{Score: 0.8, Chunk: domain.Chunk{
			ID: "c2", DocumentID: "d2", Text: "Das Modul umfasst 10 Leistungspunkte.",
			Filename: "MHB.pdf", Title: "Modulhandbuch", Page: 12, Start: 0, End: 500,
		}},
		{Score: 0.7, Chunk: domain.Chunk{
			ID: "c3", DocumentID: "d3", Text: "Die Masterarbeit umfasst 30 Leistungspunkte.",
		}},
	}
}

func newTestSynthesizer(llm driven.LLMService) *Synthesizer {
	return NewSynthesizer(llm, &mockPromptStore{prompt: "Antworte nur aus den Quellen."},
		domain.LLMSettings{Temperature: 0.1, MaxTokens: 2048},
		domain.SynthesisSettings{MaxContextChars: 12000})
}

func TestSynthesizer_EmptyRetrievalSkipsLLM(t *testing.T) {
	llm := &mockLLM{response: "should not be used"}
	s := newTestSynthesizer(llm)

	for _, result := range []*domain.RetrievalResult{nil, {Query: question}} {
		answer, err := s.Synthesize(context.Background(), question, result)

		require.NoError(t, err)
		assert.Equal(t, domain.NoContextAnswer, answer.Text)
		assert.True(t, answer.NoContext)
		assert.Empty(t, answer.Citations)
	}
	assert.Equal(t, 0, llm.calls())
}

func TestSynthesizer_CitesOnlyUsedMarkers(t *testing.T) {
	llm := &mockLLM{response: "Das Masterstudium dauert vier Semester [Quelle 1]. " +
		"Die Masterarbeit hat 30 LP [Quelle 3, 1]. Siehe auch [Quelle 9]."}
	s := newTestSynthesizer(llm)

	answer, err := s.Synthesize(context.Background(), question,
		&domain.RetrievalResult{Query: question, Hits: testHits()})

	require.NoError(t, err)
	require.Len(t, answer.Citations, 2)
	assert.Equal(t, 1, answer.Citations[0].Marker)
	assert.Equal(t, "c1", answer.Citations[0].ChunkID)
	assert.Equal(t, "Fakultaet_III/Master/SPO.pdf", answer.Citations[0].Path)
	assert.Equal(t, 3, answer.Citations[0].Page)
	assert.Equal(t, 450, answer.Citations[0].Start)
	assert.Equal(t, 950, answer.Citations[0].End)
	assert.Equal(t, 3, answer.Citations[1].Marker)
	assert.Equal(t, "c3", answer.Citations[1].ChunkID)

	assert.Equal(t, "mock-llm", answer.Model)
	assert.Equal(t, 3, answer.Retrieved)
	assert.False(t, answer.NoContext)
}

func TestSynthesizer_NoMarkersNoCitations(t *testing.T) {
	llm := &mockLLM{response: "Ich kann diese Frage nicht basierend auf den verfügbaren Dokumenten beantworten."}
	s := newTestSynthesizer(llm)

	answer, err := s.Synthesize(context.Background(), question,
		&domain.RetrievalResult{Query: question, Hits: testHits()})

	require.NoError(t, err)
	assert.Empty(t, answer.Citations)
}

func TestSynthesizer_PromptLayout(t *testing.T) {
	llm := &mockLLM{response: "Vier Semester [Quelle 1]."}
	s := newTestSynthesizer(llm)

	_, err := s.Synthesize(context.Background(), question,
		&domain.RetrievalResult{Query: question, Hits: testHits()})
	require.NoError(t, err)

	prompt := llm.lastPrompt()
	assert.True(t, strings.HasPrefix(prompt, "Antworte nur aus den Quellen."))
	assert.Contains(t, prompt, "[Quelle 1: SPO.pdf - Studienordnung, Seite 3]\nDie Regelstudienzeit beträgt vier Semester.")
	assert.Contains(t, prompt, "[Quelle 2: MHB.pdf - Modulhandbuch, Seite 12]")
	assert.Contains(t, prompt, "[Quelle 3: Unbekanntes Dokument - Unbekannter Abschnitt]")
	assert.True(t, strings.HasSuffix(prompt, "FRAGE: "+question+"\n\nANTWORT:"))
	assert.Less(t, strings.Index(prompt, "[Quelle 1"), strings.Index(prompt, "[Quelle 2"))

	require.Len(t, llm.opts, 1)
	assert.Equal(t, 2048, llm.opts[0].MaxTokens)
	assert.Equal(t, 0.1, llm.opts[0].Temperature)
}

func TestSynthesizer_PromptFallback(t *testing.T) {
	llm := &mockLLM{response: "ok"}
	s := NewSynthesizer(llm, &mockPromptStore{err: errors.New("unreadable")},
		domain.LLMSettings{}, domain.SynthesisSettings{})

	_, err := s.Synthesize(context.Background(), question,
		&domain.RetrievalResult{Query: question, Hits: testHits()})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(llm.lastPrompt(), fallbackInstructions))
}

func TestSynthesizer_LLMFailure(t *testing.T) {
	ctx := context.Background()
	result := &domain.RetrievalResult{Query: question, Hits: testHits()}

	t.Run("provider error", func(t *testing.T) {
		llm := &mockLLM{err: errors.New("connection refused")}
		_, err := newTestSynthesizer(llm).Synthesize(ctx, question, result)
		assert.ErrorIs(t, err, domain.ErrGeneration)
		assert.Equal(t, 1, llm.calls(), "generation is not retried")
	})

	t.Run("timeout", func(t *testing.T) {
		llm := &mockLLM{err: context.DeadlineExceeded}
		_, err := newTestSynthesizer(llm).Synthesize(ctx, question, result)
		assert.ErrorIs(t, err, domain.ErrGeneration)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("empty response", func(t *testing.T) {
		_, err := newTestSynthesizer(&mockLLM{response: "  \n"}).Synthesize(ctx, question, result)
		assert.ErrorIs(t, err, domain.ErrGeneration)
	})

	t.Run("not configured", func(t *testing.T) {
		s := NewSynthesizer(nil, nil, domain.LLMSettings{}, domain.SynthesisSettings{})
		_, err := s.Synthesize(ctx, question, result)
		assert.ErrorIs(t, err, domain.ErrGeneration)
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})
}

// slowLLM blocks until its context ends.
type slowLLM struct{ mockLLM }

func (s *slowLLM) Generate(ctx context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestSynthesizer_Timeout(t *testing.T) {
	s := NewSynthesizer(&slowLLM{}, nil, domain.LLMSettings{TimeoutSeconds: 1}, domain.SynthesisSettings{})

	started := time.Now()
	_, err := s.Synthesize(context.Background(), question, &domain.RetrievalResult{Hits: testHits()})

	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestBuildPrompt_Bounded(t *testing.T) {
	hits := testHits()
	for i := range hits {
		hits[i].Chunk.Text = strings.Repeat("x", 400)
	}

	full, n, err := buildPrompt("Regeln.", question, hits, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	limit := len([]rune(full)) - 100
	bounded, n, err := buildPrompt("Regeln.", question, hits, limit)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "the last block is dropped")
	assert.LessOrEqual(t, len([]rune(bounded)), limit)
	assert.NotContains(t, bounded, "[Quelle 3")

	tiny, n, err := buildPrompt("Regeln.", question, hits, 200)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "one block is always kept")
	assert.LessOrEqual(t, len([]rune(tiny)), 200)
	assert.Contains(t, tiny, "FRAGE: "+question)
}

func TestBuildPrompt_InstructionsExceedLimit(t *testing.T) {
	instructions := strings.Repeat("Antworte knapp. ", 3)

	prompt, n, err := buildPrompt(instructions, "Frage?", testHits(), 40)

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Zero(t, n, "no source is offered")
	assert.Empty(t, prompt)
}

func TestSynthesizer_ContextLimitTooSmall(t *testing.T) {
	llm := &mockLLM{response: "Vier Semester [Quelle 1]."}
	s := NewSynthesizer(llm, nil, domain.LLMSettings{}, domain.SynthesisSettings{MaxContextChars: 40})

	_, err := s.Synthesize(context.Background(), question, &domain.RetrievalResult{Hits: testHits()})

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Empty(t, llm.prompts, "the model is not asked without sources")
}

func TestExtractCitations_PageAfterMarker(t *testing.T) {
	citations := extractCitations("Vier Semester [Quelle 2, Seite 5].", testHits(), 3)

	require.Len(t, citations, 1)
	assert.Equal(t, 2, citations[0].Marker)
	assert.Equal(t, "c2", citations[0].ChunkID)
}

func TestBuildPrompt_CitationsLimitedToOfferedBlocks(t *testing.T) {
	hits := testHits()
	citations := extractCitations("[Quelle 1] [Quelle 2] [Quelle 3]", hits, 2)
	require.Len(t, citations, 2)
	assert.Equal(t, "c2", citations[1].ChunkID)
}

func TestUsedMarkers(t *testing.T) {
	tests := []struct {
		text string
		want []int
	}{
		{"keine Marker", nil},
		{"[Quelle 2]", []int{2}},
		{"[quelle 2] und [QUELLE 1]", []int{2, 1}},
		{"[Quelle 1, 3]", []int{1, 3}},
		{"[Quellen 1 und 2]", []int{1, 2}},
		{"[Quelle 1; Quelle 4]", []int{1, 4}},
		{"siehe [2] und [2]", []int{2}},
		{"[Quelle 3: SPO.pdf - Studienordnung]", []int{3}},
		{"[Source 5]", []int{5}},
		{"§ 4 Abs. 2 (ohne Klammern) Quelle 7", nil},
		{"Vier Semester [Quelle 2, Seite 5].", []int{2}},
		{"[Quelle 2 Seite 5]", []int{2}},
		{"[Quelle 1-3]", []int{1, 2, 3}},
		{"[Quellen 2–3]", []int{2, 3}},
		{"[Quelle 1 bis 2]", []int{1, 2}},
		{"(Quelle 2)", []int{2}},
		{"(Quellen 1, 4)", []int{1, 4}},
		{"nach Abs. (2) der Ordnung", nil},
		{"[Seite 5]", nil},
		{"[Quelle 2, Seite 5 und 6]", []int{2}},
		{"[Quelle 3-1]", []int{3}},
		{"[Quelle 1-500]", []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, usedMarkers(tt.text))
		})
	}
}
