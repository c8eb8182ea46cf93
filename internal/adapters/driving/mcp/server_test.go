package mcp

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil rag service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingRAGService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			RAG: &mockRAGService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("all ports creates server", func(t *testing.T) {
		ports := &Ports{
			RAG:      &mockRAGService{},
			Search:   &mockSearchService{},
			Document: &mockDocumentService{},
			Corpus:   &mockCorpus{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil rag service returns error", func(t *testing.T) {
		ports := &Ports{Search: &mockSearchService{}}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingRAGService)
	})

	t.Run("rag only is valid", func(t *testing.T) {
		ports := &Ports{
			RAG: &mockRAGService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})
}

// connect opens an in-memory client session to a server built from ports.
func connect(t *testing.T, ports *Ports) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server, err := NewServer(ports)
	require.NoError(t, err)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func toolNames(t *testing.T, session *mcp.ClientSession) []string {
	t.Helper()
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	return names
}

func TestServer_ToolsFollowPorts(t *testing.T) {
	t.Run("rag only", func(t *testing.T) {
		session := connect(t, &Ports{RAG: &mockRAGService{}})
		assert.Equal(t, []string{"ask", "status"}, toolNames(t, session))
	})

	t.Run("all ports", func(t *testing.T) {
		session := connect(t, &Ports{
			RAG:      &mockRAGService{},
			Search:   &mockSearchService{},
			Document: &mockDocumentService{},
			Corpus:   &mockCorpus{},
		})
		assert.Equal(t, []string{"ask", "ingest", "search", "status"}, toolNames(t, session))

		res, err := session.ListResources(context.Background(), nil)
		require.NoError(t, err)
		require.NotEmpty(t, res.Resources)
		assert.Equal(t, "documents", res.Resources[0].Name)
	})
}

func TestServer_RunHTTPStopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{RAG: &mockRAGService{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.RunHTTP(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("RunHTTP did not return after cancel")
	}
}
