package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regelrag/internal/connectors/filesystem"
	"github.com/custodia-labs/regelrag/internal/normalisers"
	"github.com/custodia-labs/regelrag/internal/postprocessors"
)

var extractChunks bool

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Show what ingestion extracts from one file",
	Long: `Runs text extraction and chunking on a single file without embedding or
indexing it. Prints the detected title, labels, pages and chunk spans.
Useful to check scanned PDFs or unusual HTML before ingesting.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationNoServices: "true"},
	RunE:        runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractChunks, "chunks", false, "print every chunk")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := appConfig

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	root, err := filepath.Abs(cfg.Ingest.DocumentsDir)
	if err != nil {
		return err
	}

	raw, err := filesystem.New(root).ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	registry := normalisers.NewDefaultRegistry(normalisers.WithMaxFileSize(cfg.Ingest.MaxFileSize()))
	normalised, err := registry.Normalise(cmd.Context(), raw)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	doc := &normalised.Document

	pipeline, err := postprocessors.NewDefaultPipeline(cfg.Chunking)
	if err != nil {
		return err
	}
	chunks, err := pipeline.Process(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	cmd.Println(style.Title.Render(doc.Path))
	cmd.Printf("  ID:         %s\n", doc.ID)
	cmd.Printf("  Type:       %s\n", raw.MIMEType)
	cmd.Printf("  Title:      %s\n", doc.Title)
	if len(doc.Labels) > 0 {
		cmd.Printf("  Labels:     %v\n", doc.Labels)
	}
	if len(doc.Pages) > 0 {
		cmd.Printf("  Pages:      %d\n", len(doc.Pages))
	}
	cmd.Printf("  Characters: %d\n", doc.TextLength())
	cmd.Printf("  Chunks:     %d (size %d, overlap %d)\n", len(chunks), cfg.Chunking.Size, cfg.Chunking.Overlap)

	if !extractChunks {
		return nil
	}
	for _, c := range chunks {
		cmd.Println()
		header := fmt.Sprintf("#%d [%d,%d)", c.Index, c.Start, c.End)
		if c.Page > 0 {
			header += fmt.Sprintf(" Seite %d", c.Page)
		}
		if c.Section != "" {
			header += " · " + c.Section
		}
		cmd.Println(style.Heading.Render(header))
		cmd.Println(c.Text)
	}
	return nil
}
