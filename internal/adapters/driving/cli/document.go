package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"document", "docs"},
	Short:   "Manage ingested documents",
	Long:    `List ingested documents with their ingestion state, or remove one from the index.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentRemoveCmd = &cobra.Command{
	Use:   "remove [doc-id]",
	Short: "Remove a document and its chunks from the index",
	Long: `Deletes every chunk of the document from the vector index and forgets its
ingestion record. The file itself is not touched; the next ingest picks
it up again unless it was deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentRemove,
}

// documentFailedOnly is a flag for the list command.
var documentFailedOnly bool

func init() {
	documentListCmd.Flags().BoolVar(&documentFailedOnly, "failed", false, "only list documents that failed to ingest")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentRemoveCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	records, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	shown := 0
	for i := range records {
		r := &records[i]
		if documentFailedOnly && r.State != domain.StateFailed {
			continue
		}
		shown++

		cmd.Printf("  %s\n", r.DocumentID)
		cmd.Printf("    Path:   %s\n", r.Path)
		if r.Title != "" {
			cmd.Printf("    Title:  %s\n", r.Title)
		}
		if len(r.Labels) > 0 {
			cmd.Printf("    Labels: %s\n", strings.Join(r.Labels, " › "))
		}
		cmd.Printf("    State:  %s", stateStyle(r.State).Render(string(r.State)))
		if r.ChunkCount > 0 {
			cmd.Printf(" (%d chunks)", r.ChunkCount)
		}
		cmd.Println()
		if r.Reason != "" {
			cmd.Printf("    Reason: %s\n", r.Reason)
		}
		cmd.Printf("    Updated: %s\n", r.UpdatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	if shown == 0 {
		cmd.Println("No documents found.")
		return nil
	}
	cmd.Printf("Total: %d documents\n", shown)
	return nil
}

func runDocumentRemove(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	cmd.Printf("Document %s removed from the index.\n", args[0])
	return nil
}
