package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regelrag/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask
questions about the indexed regulations.

Tools: ask, search, status, ingest.
Resources: regelrag://documents and regelrag://documents/{documentId}.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead, for example to test with
MCP Inspector.

Examples:
  # Stdio mode (default)
  regelrag mcp serve

  # HTTP mode
  regelrag mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "regelrag": {
        "command": "/path/to/regelrag",
        "args": ["mcp", "serve", "--config", "/path/to/regelrag.toml"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		RAG:      ragService,
		Search:   searchService,
		Document: documentService,
	}
	if corpus != nil {
		ports.Corpus = corpus
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
