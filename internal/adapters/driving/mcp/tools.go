package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

// maxTopK caps the number of chunks a client may request.
const maxTopK = 50

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string   `json:"question" jsonschema:"the question about study or examination regulations"`
	TopK     int      `json:"top_k,omitempty" jsonschema:"number of regulation passages to use (default from configuration)"`
	Labels   []string `json:"labels,omitempty" jsonschema:"restrict to documents under these folders, e.g. a faculty or degree"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string           `json:"answer"`
	NoContext bool             `json:"no_context"`
	Model     string           `json:"model,omitempty"`
	Citations []CitationOutput `json:"citations"`
}

// CitationOutput is a source referenced by an answer.
type CitationOutput struct {
	Marker     int      `json:"marker"`
	DocumentID string   `json:"document_id"`
	Path       string   `json:"path"`
	Title      string   `json:"title,omitempty"`
	Labels     []string `json:"labels,omitempty"`
	Page       int      `json:"page,omitempty"`
	Section    string   `json:"section,omitempty"`
	Score      float64  `json:"score"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query  string   `json:"query" jsonschema:"text to find similar regulation passages for"`
	Limit  int      `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default from configuration)"`
	Labels []string `json:"labels,omitempty" jsonschema:"restrict to documents under these folders"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieved passage.
type SearchResultOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Path       string  `json:"path"`
	Title      string  `json:"title,omitempty"`
	Page       int     `json:"page,omitempty"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// StatusInput is the (empty) input schema for the status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the status tool.
type StatusOutput struct {
	Ready          bool              `json:"ready"`
	Components     map[string]string `json:"components"`
	EmbeddingModel string            `json:"embedding_model,omitempty"`
	LLMModel       string            `json:"llm_model,omitempty"`
	Collection     string            `json:"collection,omitempty"`
	Documents      int               `json:"documents"`
	Chunks         int               `json:"chunks"`
}

// IngestInput is the (empty) input schema for the ingest tool.
type IngestInput struct{}

// IngestOutput summarises an ingestion run.
type IngestOutput struct {
	RunID   string   `json:"run_id"`
	Done    int      `json:"done"`
	Skipped int      `json:"skipped"`
	Failed  []string `json:"failed,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about university study and examination regulations with cited sources",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Report whether the embedding model, vector index and LLM are reachable",
	}, s.handleStatus)

	if s.ports.Search != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "search",
			Description: "Return the regulation passages most similar to a query, without generating an answer",
		}, s.handleSearch)
	}

	if s.ports.Corpus != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Re-ingest the document directory; unchanged documents are skipped",
		}, s.handleIngest)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	opts := domain.SearchOptions{Limit: clampTopK(input.TopK), Labels: input.Labels}

	answer, err := s.ports.RAG.Ask(ctx, input.Question, opts)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    answer.Text,
		NoContext: answer.NoContext,
		Model:     answer.Model,
		Citations: make([]CitationOutput, len(answer.Citations)),
	}
	for i, c := range answer.Citations {
		output.Citations[i] = CitationOutput{
			Marker:     c.Marker,
			DocumentID: c.DocumentID,
			Path:       c.Path,
			Title:      c.Title,
			Labels:     c.Labels,
			Page:       c.Page,
			Section:    c.Section,
			Score:      c.Score,
		}
	}

	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{Limit: clampTopK(input.Limit), Labels: input.Labels}

	result, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]SearchResultOutput, 0, len(result.Hits))}
	for _, hit := range result.Hits {
		output.Results = append(output.Results, SearchResultOutput{
			ChunkID:    hit.Chunk.ID,
			DocumentID: hit.Chunk.DocumentID,
			Path:       hit.Chunk.Path,
			Title:      hit.Chunk.Title,
			Page:       hit.Chunk.Page,
			Score:      hit.Score,
			Content:    hit.Chunk.Text,
		})
	}
	output.Count = len(output.Results)

	return nil, output, nil
}

// handleStatus handles the status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	report := s.ports.RAG.Status(ctx)

	output := StatusOutput{
		Ready:          report.Ready(),
		Components:     make(map[string]string, len(report.Components)),
		EmbeddingModel: report.EmbeddingModel,
		LLMModel:       report.LLMModel,
		Collection:     report.Collection,
		Documents:      report.Documents,
		Chunks:         report.Chunks,
	}
	for _, c := range report.Components {
		status := string(c.Status)
		if c.Detail != "" {
			status += ": " + c.Detail
		}
		output.Components[c.Name] = status
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Corpus == nil {
		return nil, IngestOutput{}, errors.New("ingestion is not available")
	}

	result, err := s.ports.Corpus.Sync(ctx)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	output := IngestOutput{
		RunID:   result.RunID,
		Done:    len(result.Done()) - len(result.Skipped()),
		Skipped: len(result.Skipped()),
	}
	for _, o := range result.Failed() {
		output.Failed = append(output.Failed, fmt.Sprintf("%s: %s", o.Path, o.Reason))
	}

	return nil, output, nil
}

func clampTopK(k int) int {
	if k <= 0 {
		return 0
	}
	if k > maxTopK {
		return maxTopK
	}
	return k
}
