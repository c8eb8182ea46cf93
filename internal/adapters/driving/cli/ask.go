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
	askTopK   int
	askLabels []string
	askSample bool
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the regulations",
	Long: `Retrieves the regulation passages most similar to the question and lets the
language model answer from them. The answer cites its sources as [Quelle N];
only the sources actually cited are listed below it.

When no passage is relevant the model is not called and a fixed
"no documents found" answer is printed.`,
	Example: `  regelrag ask "Wie viele Leistungspunkte hat die Masterarbeit?"
  regelrag ask --label Master -k 8 "Wann verfällt ein Prüfungsanspruch?"
  regelrag ask --sample`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages to retrieve (default from config)")
	askCmd.Flags().StringSliceVarP(&askLabels, "label", "l", nil, "only use documents under these folders")
	askCmd.Flags().BoolVar(&askSample, "sample", false, "ask the built-in sample question")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if askSample {
		question = domain.SampleQuestion
	}
	if question == "" {
		return fmt.Errorf("%w: a question is required (or use --sample)", domain.ErrInvalidInput)
	}

	opts := domain.SearchOptions{Limit: askTopK, Labels: askLabels}
	answer, err := ragService.Ask(cmd.Context(), question, opts)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	outputAnswer(cmd, answer)
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(style.Title.Render("Frage: ") + answer.Question)
	cmd.Println()
	cmd.Println(style.Answer.Render(answer.Text))

	if answer.NoContext {
		return
	}

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println(style.Heading.Render("Quellen"))
		for _, c := range answer.Citations {
			cmd.Printf("  %s %s\n", style.Marker.Render(fmt.Sprintf("[%d]", c.Marker)), describeCitation(c))
			if len(c.Labels) > 0 {
				cmd.Printf("      %s\n", style.Muted.Render(strings.Join(c.Labels, " › ")))
			}
		}
	}

	cmd.Println()
	cmd.Println(style.Muted.Render(fmt.Sprintf("%d Abschnitte abgerufen · %s", answer.Retrieved, answer.Model)))
}

// describeCitation renders "file - title, Seite N, section".
func describeCitation(c domain.Citation) string {
	name := c.Filename
	if name == "" {
		name = c.Path
	}
	parts := []string{name}
	if c.Title != "" && c.Title != c.Filename {
		parts[0] += " - " + c.Title
	}
	if c.Page > 0 {
		parts = append(parts, fmt.Sprintf("Seite %d", c.Page))
	}
	if c.Section != "" {
		parts = append(parts, c.Section)
	}
	return strings.Join(parts, ", ")
}
