package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check models, vector index and registry",
	Long: `Pings the embedding model, the language model, the vector index and the
ingestion registry and reports how many documents and chunks are indexed.
Nothing is modified. Exits non-zero when a dependency is not ready.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	report := ragService.Status(cmd.Context())

	if statusJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
	} else {
		cmd.Println(style.Title.Render("regelrag status"))
		cmd.Println()
		for _, c := range report.Components {
			line := fmt.Sprintf("  %-14s %s", c.Name, healthStyle(c.Status).Render(string(c.Status)))
			if c.Detail != "" {
				line += "  " + style.Muted.Render(c.Detail)
			}
			cmd.Println(line)
		}
		cmd.Println()
		cmd.Printf("  Embedding model: %s\n", report.EmbeddingModel)
		cmd.Printf("  LLM model:       %s\n", report.LLMModel)
		cmd.Printf("  Collection:      %s\n", report.Collection)
		cmd.Printf("  Data directory:  %s\n", report.DataDir)
		cmd.Printf("  Documents:       %d\n", report.Documents)
		cmd.Printf("  Chunks:          %d\n", report.Chunks)
	}

	if !report.Ready() {
		return errors.New("not ready")
	}
	return nil
}
