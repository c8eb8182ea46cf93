package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with citations", func(t *testing.T) {
		rag := &mockRAGService{
			answer: &domain.Answer{
				Text:  "Die Regelstudienzeit beträgt vier Semester [Quelle 1].",
				Model: "llama3.1:8b",
				Citations: []domain.Citation{{
					Marker:     1,
					DocumentID: "doc-1",
					Path:       "Fak/Master/SPO.pdf",
					Title:      "Studienordnung",
					Page:       3,
					Score:      0.87,
				}},
			},
		}
		server, err := NewServer(&Ports{RAG: rag})
		require.NoError(t, err)

		input := AskInput{Question: domain.SampleQuestion, TopK: 3, Labels: []string{"Master"}}
		_, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, domain.SampleQuestion, rag.question)
		assert.Equal(t, 3, rag.opts.Limit)
		assert.Equal(t, []string{"Master"}, rag.opts.Labels)

		assert.Contains(t, output.Answer, "vier Semester")
		assert.False(t, output.NoContext)
		assert.Equal(t, "llama3.1:8b", output.Model)
		require.Len(t, output.Citations, 1)
		assert.Equal(t, 1, output.Citations[0].Marker)
		assert.Equal(t, "Fak/Master/SPO.pdf", output.Citations[0].Path)
		assert.Equal(t, 3, output.Citations[0].Page)
	})

	t.Run("no context answer", func(t *testing.T) {
		rag := &mockRAGService{answer: &domain.Answer{Text: domain.NoContextAnswer, NoContext: true}}
		server, err := NewServer(&Ports{RAG: rag})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "Mensa?"})

		require.NoError(t, err)
		assert.True(t, output.NoContext)
		assert.Equal(t, domain.NoContextAnswer, output.Answer)
		assert.NotNil(t, output.Citations)
		assert.Empty(t, output.Citations)
	})

	t.Run("clamps top k", func(t *testing.T) {
		rag := &mockRAGService{answer: &domain.Answer{}}
		server, err := NewServer(&Ports{RAG: rag})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q", TopK: 1000})
		require.NoError(t, err)
		assert.Equal(t, maxTopK, rag.opts.Limit)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q", TopK: -2})
		require.NoError(t, err)
		assert.Equal(t, 0, rag.opts.Limit)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		rag := &mockRAGService{err: domain.ErrGeneration}
		server, err := NewServer(&Ports{RAG: rag})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})
		assert.ErrorIs(t, err, domain.ErrGeneration)
	})
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns passages", func(t *testing.T) {
		search := &mockSearchService{
			result: &domain.RetrievalResult{Hits: []domain.Hit{{
				Chunk: domain.Chunk{
					ID:         "chunk-1",
					DocumentID: "doc-1",
					Path:       "Fak/PO.pdf",
					Text:       "§ 5 Prüfungen",
					Page:       2,
				},
				Score: 0.9,
			}}},
		}
		server, err := NewServer(&Ports{RAG: &mockRAGService{}, Search: search})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "Prüfung", Limit: 5})

		require.NoError(t, err)
		assert.Equal(t, 5, search.opts.Limit)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "chunk-1", output.Results[0].ChunkID)
		assert.Equal(t, "§ 5 Prüfungen", output.Results[0].Content)
		assert.Equal(t, 0.9, output.Results[0].Score)
	})

	t.Run("empty result", func(t *testing.T) {
		server, err := NewServer(&Ports{RAG: &mockRAGService{}, Search: &mockSearchService{}})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "x"})
		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		search := &mockSearchService{err: errors.New("search failed")}
		server, err := NewServer(&Ports{RAG: &mockRAGService{}, Search: search})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleStatus(t *testing.T) {
	rag := &mockRAGService{report: domain.HealthReport{
		Components: []domain.ComponentHealth{
			{Name: domain.ComponentEmbedding, Status: domain.HealthOK},
			{Name: domain.ComponentLLM, Status: domain.HealthUnavailable, Detail: "connection refused"},
		},
		EmbeddingModel: "nomic-embed-text",
		Documents:      4,
		Chunks:         120,
	}}
	server, err := NewServer(&Ports{RAG: rag})
	require.NoError(t, err)

	_, output, err := server.handleStatus(context.Background(), nil, StatusInput{})

	require.NoError(t, err)
	assert.False(t, output.Ready)
	assert.Equal(t, "ok", output.Components[domain.ComponentEmbedding])
	assert.Equal(t, "unavailable: connection refused", output.Components[domain.ComponentLLM])
	assert.Equal(t, "nomic-embed-text", output.EmbeddingModel)
	assert.Equal(t, 4, output.Documents)
	assert.Equal(t, 120, output.Chunks)
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("summarises run", func(t *testing.T) {
		corpus := &mockCorpus{result: &domain.BatchResult{
			RunID: "run-1",
			Outcomes: []domain.DocumentOutcome{
				{Path: "a.pdf", State: domain.StateDone},
				{Path: "b.pdf", State: domain.StateDone, Skipped: true},
				{Path: "c.pdf", State: domain.StateFailed, Reason: "no text layer"},
			},
		}}
		server, err := NewServer(&Ports{RAG: &mockRAGService{}, Corpus: corpus})
		require.NoError(t, err)

		_, output, err := server.handleIngest(ctx, nil, IngestInput{})

		require.NoError(t, err)
		assert.Equal(t, "run-1", output.RunID)
		assert.Equal(t, 1, output.Done)
		assert.Equal(t, 1, output.Skipped)
		assert.Equal(t, []string{"c.pdf: no text layer"}, output.Failed)
	})

	t.Run("without corpus", func(t *testing.T) {
		server, err := NewServer(&Ports{RAG: &mockRAGService{}})
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{})
		assert.Error(t, err)
	})

	t.Run("sync failure", func(t *testing.T) {
		corpus := &mockCorpus{err: domain.ErrEmbeddingUnavailable}
		server, err := NewServer(&Ports{RAG: &mockRAGService{}, Corpus: corpus})
		require.NoError(t, err)

		_, _, err = server.handleIngest(ctx, nil, IngestInput{})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}
