// Package mcp provides an MCP (Model Context Protocol) server adapter for regelrag.
// It lets AI assistants ask cited questions against the regulation corpus.
package mcp

import "errors"

// ErrMissingRAGService is returned when the RAG service is not provided.
var ErrMissingRAGService = errors.New("mcp: rag service is required")
