package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/services"
)

var (
	watchRescan    time.Duration
	watchNoInitial bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the index in sync with the documents directory",
	Long: `Ingests the documents directory once, then watches it and re-ingests
documents as they are created or changed. Deleted documents are removed
from the index. With --rescan the whole directory is also re-ingested
periodically to pick up changes the file watcher missed.

Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchRescan, "rescan", 0, "full rescan interval, e.g. 30m (0 disables)")
	watchCmd.Flags().BoolVar(&watchNoInitial, "no-initial", false, "skip the initial full ingestion")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if corpus == nil {
		return errors.New("ingestion not configured")
	}
	ctx := cmd.Context()

	if !watchNoInitial {
		result, err := corpus.Sync(ctx)
		if result != nil {
			printBatch(cmd, result, false)
		}
		if err != nil {
			return fmt.Errorf("initial ingest failed: %w", err)
		}
	}

	scheduler := services.NewScheduler(corpus, watchRescan, func(result *domain.BatchResult, err error) {
		if err == nil && result != nil {
			printBatch(cmd, result, false)
		}
	})
	go func() { _ = scheduler.Start(ctx) }()
	defer scheduler.Stop()

	cmd.Printf("Watching %s for changes...\n", corpus.Root())
	return corpus.Watch(ctx, func(change domain.RawDocumentChange, result *domain.BatchResult, err error) {
		switch {
		case err != nil:
			cmd.Println(style.Error.Render(fmt.Sprintf("  %-10s %s: %v", change.Type, change.Document.Path, err)))
		case result != nil:
			printBatch(cmd, result, true)
		default:
			cmd.Printf("  %-10s %s\n", change.Type, change.Document.Path)
		}
	})
}
