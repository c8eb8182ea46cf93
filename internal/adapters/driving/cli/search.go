package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regelrag/internal/core/domain"
)

var (
	searchLimit  int
	searchLabels []string
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Show the passages a question would retrieve",
	Long: `Embeds the query and lists the most similar indexed passages without
asking the language model. Useful to check what context an answer is
based on.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().StringSliceVarP(&searchLabels, "label", "l", nil, "only search documents under these folders")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{Limit: searchLimit, Labels: searchLabels}
	result, err := searchService.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, result)
	}
	outputSearchTable(cmd, result)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, result *domain.RetrievalResult) error {
	data, err := json.MarshalIndent(result.Hits, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, result *domain.RetrievalResult) {
	if result.IsEmpty() {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, hit := range result.Hits {
		c := hit.Chunk
		location := c.Path
		if c.Page > 0 {
			location += fmt.Sprintf(", Seite %d", c.Page)
		}

		cmd.Printf("  [%d] %s (%.3f)\n", i+1, style.Heading.Render(location), hit.Score)
		if c.Section != "" {
			cmd.Printf("      %s\n", style.Muted.Render(c.Section))
		}
		cmd.Printf("      %s\n", snippet(c.Text, 160))
		cmd.Println()
	}
}

// snippet flattens whitespace and cuts text to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n-1]) + "…"
}
