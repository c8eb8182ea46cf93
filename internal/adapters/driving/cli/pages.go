package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regelrag/internal/connectors/filesystem"
	"github.com/custodia-labs/regelrag/internal/normalisers/pdf"
)

var pagesCmd = &cobra.Command{
	Use:   "pages [directory]",
	Short: "Count the pages of every PDF in the corpus",
	Long: `Walks the documents directory (or the given one) and prints the page count
of each PDF together with the total. Encrypted files are marked; files
that cannot be parsed are listed as unreadable.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationNoServices: "true"},
	RunE:        runPages,
}

func init() {
	rootCmd.AddCommand(pagesCmd)
}

func runPages(cmd *cobra.Command, args []string) error {
	root := appConfig.Ingest.DocumentsDir
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	source := filesystem.New(root, filesystem.WithExtensions([]string{".pdf"}))
	docs, errs := source.FullSync(cmd.Context())

	var files, pages, unreadable int
	for raw := range docs {
		files++
		info, err := pdf.Inspect(raw.Content)
		if err != nil {
			unreadable++
			cmd.Println(style.Error.Render(fmt.Sprintf("  %6s  %s", "?", raw.Path)))
			cmd.Printf("          %s\n", style.Muted.Render(fmt.Sprintf("unreadable: %v", err)))
			continue
		}
		pages += info.PageCount

		line := fmt.Sprintf("  %6d  %s", info.PageCount, raw.Path)
		if info.Encrypted {
			line += " " + style.Warning.Render("(encrypted)")
		}
		cmd.Println(line)
	}
	if err := <-errs; err != nil {
		return err
	}

	summary := fmt.Sprintf("Total: %d pages in %d PDF files", pages, files)
	if unreadable > 0 {
		summary += fmt.Sprintf(" (%d unreadable)", unreadable)
	}
	cmd.Println(summary)
	return nil
}
