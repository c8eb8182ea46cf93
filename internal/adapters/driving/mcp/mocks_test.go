package mcp

import (
	"context"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	answer   *domain.Answer
	report   domain.HealthReport
	err      error
	question string
	opts     domain.SearchOptions
}

func (m *mockRAGService) Ask(_ context.Context, question string, opts domain.SearchOptions) (*domain.Answer, error) {
	m.question = question
	m.opts = opts
	return m.answer, m.err
}

func (m *mockRAGService) Ingest(_ context.Context, _ []domain.RawDocument) (*domain.BatchResult, error) {
	return &domain.BatchResult{}, m.err
}

func (m *mockRAGService) Status(_ context.Context) domain.HealthReport {
	return m.report
}

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	result *domain.RetrievalResult
	err    error
	opts   domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (*domain.RetrievalResult, error) {
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.RetrievalResult{Query: query}, nil
	}
	return m.result, nil
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	records []domain.IngestRecord
	err     error
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.IngestRecord, error) {
	return m.records, m.err
}

func (m *mockDocumentService) Remove(_ context.Context, _ string) error {
	return m.err
}

// mockCorpus is a mock CorpusSyncer.
type mockCorpus struct {
	result *domain.BatchResult
	err    error
}

func (m *mockCorpus) Sync(_ context.Context) (*domain.BatchResult, error) {
	return m.result, m.err
}
