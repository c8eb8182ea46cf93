package cli

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

type mockRAGService struct {
	answer   *domain.Answer
	err      error
	report   domain.HealthReport
	question string
	opts     domain.SearchOptions
}

func (m *mockRAGService) Ask(_ context.Context, question string, opts domain.SearchOptions) (*domain.Answer, error) {
	m.question = question
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{
		Question: question,
		Text:     "Die Regelstudienzeit beträgt vier Semester [Quelle 1].",
		Model:    "llama3.2",
		Citations: []domain.Citation{{
			Marker:   1,
			ChunkID:  "chunk-1",
			Path:     "Master/spo-informatik.pdf",
			Filename: "spo-informatik.pdf",
			Title:    "Studien- und Prüfungsordnung",
			Labels:   []string{"Master"},
			Page:     3,
			Section:  "§ 3 Regelstudienzeit",
			Score:    0.82,
		}},
		Retrieved: 5,
	}, nil
}

func (m *mockRAGService) Ingest(_ context.Context, docs []domain.RawDocument) (*domain.BatchResult, error) {
	result := &domain.BatchResult{RunID: "run-1", Started: time.Now(), Finished: time.Now()}
	for i := range docs {
		result.Outcomes = append(result.Outcomes, domain.DocumentOutcome{Path: docs[i].Path, State: domain.StateDone})
	}
	return result, nil
}

func (m *mockRAGService) Status(_ context.Context) domain.HealthReport {
	return m.report
}

type mockSearchService struct {
	result *domain.RetrievalResult
	err    error
	query  string
	opts   domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) (*domain.RetrievalResult, error) {
	m.query = query
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.RetrievalResult{
		Query: query,
		Hits: []domain.Hit{{
			Chunk: domain.Chunk{
				ID:      "chunk-1",
				Path:    "Master/spo-informatik.pdf",
				Text:    "Die Regelstudienzeit im Masterstudiengang beträgt\nvier Semester.",
				Page:    3,
				Section: "§ 3 Regelstudienzeit",
			},
			Score: 0.82,
		}},
	}, nil
}

type mockDocumentService struct {
	records []domain.IngestRecord
	removed []string
	err     error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.IngestRecord, error) {
	return m.records, m.err
}

func (m *mockDocumentService) Remove(_ context.Context, documentID string) error {
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, documentID)
	return nil
}

type mockCorpus struct {
	root   string
	result *domain.BatchResult
	err    error
	synced int
}

func (m *mockCorpus) Root() string { return m.root }

func (m *mockCorpus) Sync(_ context.Context) (*domain.BatchResult, error) {
	m.synced++
	return m.result, m.err
}

func (m *mockCorpus) Watch(ctx context.Context, _ func(domain.RawDocumentChange, *domain.BatchResult, error)) error {
	<-ctx.Done()
	return nil
}

var errMock = errors.New("mock failure")

func readyReport() domain.HealthReport {
	return domain.HealthReport{
		Components: []domain.ComponentHealth{
			{Name: domain.ComponentEmbedding, Status: domain.HealthOK},
			{Name: domain.ComponentVectorIndex, Status: domain.HealthOK, Detail: "12 chunks"},
			{Name: domain.ComponentLLM, Status: domain.HealthOK},
			{Name: domain.ComponentRegistry, Status: domain.HealthOK},
		},
		EmbeddingModel: "nomic-embed-text",
		LLMModel:       "llama3.2",
		Collection:     "regelungen",
		DataDir:        "./data",
		Documents:      2,
		Chunks:         12,
	}
}

type testServices struct {
	rag    *mockRAGService
	search *mockSearchService
	docs   *mockDocumentService
	corpus *mockCorpus
	buf    *bytes.Buffer
	roots  []string
}

// setupTestServices injects mocks so setup skips config loading and resets
// flag state left over from earlier commands.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		rag:    &mockRAGService{report: readyReport()},
		search: &mockSearchService{},
		docs:   &mockDocumentService{},
		corpus: &mockCorpus{root: "./documents", result: &domain.BatchResult{RunID: "run-1"}},
		buf:    new(bytes.Buffer),
	}

	ragService = ts.rag
	searchService = ts.search
	documentService = ts.docs
	corpus = ts.corpus
	newCorpus = func(root string) corpusService {
		ts.roots = append(ts.roots, root)
		return ts.corpus
	}
	appConfig = domain.DefaultConfig()
	resetFlags()

	rootCmd.SetOut(ts.buf)
	rootCmd.SetErr(ts.buf)

	return ts, func() {
		ragService = nil
		searchService = nil
		documentService = nil
		corpus = nil
		newCorpus = nil
		appConfig = domain.DefaultConfig()
		resetFlags()
		rootCmd.SetArgs(nil)
	}
}

func resetFlags() {
	askTopK, askLabels, askSample, askJSON = 0, nil, false, false
	searchLimit, searchLabels, searchJSON = 0, nil, false
	ingestAll = false
	statusJSON = false
	documentFailedOnly = false
	extractChunks = false
	watchRescan, watchNoInitial = 0, false
	configFlag, envFileFlag, verboseFlag = "", "", false
}
