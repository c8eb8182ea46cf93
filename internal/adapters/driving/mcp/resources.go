package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for regelrag resources.
	uriScheme = "regelrag://"
)

// documentInfo is the JSON view of an ingestion record.
type documentInfo struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Title      string    `json:"title,omitempty"`
	Labels     []string  `json:"labels,omitempty"`
	State      string    `json:"state"`
	Reason     string    `json:"reason,omitempty"`
	Chunks     int       `json:"chunks"`
	TextLength int       `json:"text_length"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toDocumentInfo(r *domain.IngestRecord) documentInfo {
	return documentInfo{
		ID:         r.DocumentID,
		Path:       r.Path,
		Title:      r.Title,
		Labels:     r.Labels,
		State:      r.State.String(),
		Reason:     r.Reason,
		Chunks:     r.ChunkCount,
		TextLength: r.TextLength,
		UpdatedAt:  r.UpdatedAt,
	}
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Document == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Every ingested regulation document with its ingestion state",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document",
		Description: "Ingestion record of a single document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

// handleDocumentsResource returns all ingestion records.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	records, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]documentInfo, len(records))
	for i := range records {
		infos[i] = toDocumentInfo(&records[i])
	}

	return jsonResult(req.Params.URI, infos)
}

// handleDocumentResource returns the record of one document.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	records, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	for i := range records {
		if records[i].DocumentID == docID {
			return jsonResult(req.Params.URI, toDocumentInfo(&records[i]))
		}
	}

	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like regelrag://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
