package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

var ingestAll bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Index the regulation documents",
	Long: `Walks the documents directory (or the given one), extracts the text of every
PDF, HTML, Markdown and text file, chunks and embeds it and writes it to the
vector index. Sub-folder names become labels of the documents below them.

Documents whose content and chunking settings are unchanged since the last
run are skipped. A changed document replaces all of its previous chunks.
One failing document does not stop the others.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestAll, "list", "a", false, "list every document, not only failures")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	target := corpus
	if len(args) > 0 {
		if newCorpus == nil {
			return errors.New("ingestion not configured")
		}
		target = newCorpus(args[0])
	}
	if target == nil {
		return errors.New("ingestion not configured")
	}

	cmd.Printf("Ingesting %s...\n", target.Root())
	result, err := target.Sync(cmd.Context())
	if result != nil {
		printBatch(cmd, result, ingestAll)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if failed := len(result.Failed()); failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(result.Outcomes))
	}
	return nil
}

// printBatch prints a summary line and the failures, or every outcome when all is set.
func printBatch(cmd *cobra.Command, result *domain.BatchResult, all bool) {
	for _, o := range result.Outcomes {
		if !all && o.State != domain.StateFailed {
			continue
		}
		label := string(o.State)
		if o.Skipped {
			label = "unchanged"
		}
		line := fmt.Sprintf("  %-10s %s", label, o.Path)
		if o.Chunks > 0 {
			line += fmt.Sprintf(" (%d chunks)", o.Chunks)
		}
		cmd.Println(stateStyle(o.State).Render(line))
		if o.Reason != "" {
			cmd.Printf("             %s\n", style.Muted.Render(o.Reason))
		}
	}

	skipped := len(result.Skipped())
	cmd.Printf("Indexed %d, unchanged %d, failed %d in %s\n",
		len(result.Done())-skipped, skipped, len(result.Failed()),
		result.Duration().Round(time.Millisecond))
}
