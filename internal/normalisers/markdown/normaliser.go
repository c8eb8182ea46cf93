// Package markdown provides the normaliser for Markdown documents.
package markdown

import (
	"bytes"
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/normalisers/extract"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{md: newParser()}
}

func newParser() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts a markdown document to a normalised document.
// Headings keep their '#' markers so section detection can find them.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, heading := plainText(n.md, []byte(extract.ToUTF8(raw.Content)))

	title := heading
	if title == "" {
		title = extract.TitleFromPath(raw.URI)
	}
	title = extract.TitleFromMetadata(raw, title)

	doc := extract.NewDocument(raw, title, content, nil)
	doc.Metadata["format"] = "markdown"

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// PlainText flattens Markdown to cleaned text and returns the first
// level-one heading as the title.
func PlainText(src []byte) (content, title string) {
	return plainText(newParser(), src)
}

func plainText(md goldmark.Markdown, src []byte) (string, string) {
	root := md.Parser().Parse(text.NewReader(src))

	w := &textWriter{source: src}
	_ = ast.Walk(root, w.walk)

	return extract.CleanText(w.buf.String()), w.title
}

// textWriter renders an AST as plain text.
type textWriter struct {
	source []byte
	buf    bytes.Buffer
	title  string
}

func (w *textWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			w.buf.WriteString("\n\n")
			w.buf.WriteString(strings.Repeat("#", node.Level))
			w.buf.WriteByte(' ')
			if node.Level == 1 && w.title == "" {
				w.title = strings.TrimSpace(nodeText(node, w.source))
			}
		} else {
			w.buf.WriteString("\n\n")
		}
	case *ast.Paragraph, *ast.Blockquote, *ast.List:
		if !entering {
			w.buf.WriteString("\n\n")
		}
	case *ast.ListItem:
		if entering {
			w.buf.WriteString("\n- ")
		}
	case *ast.ThematicBreak:
		if entering {
			w.buf.WriteString("\n\n")
		}
	case *ast.Text:
		if entering {
			w.buf.Write(node.Segment.Value(w.source))
			switch {
			case node.HardLineBreak():
				w.buf.WriteByte('\n')
			case node.SoftLineBreak():
				w.buf.WriteByte(' ')
			}
		}
	case *ast.String:
		if entering {
			w.buf.Write(node.Value)
		}
	case *ast.AutoLink:
		if entering {
			w.buf.Write(node.Label(w.source))
		}
		return ast.WalkSkipChildren, nil
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			w.writeLines(n.Lines())
		}
		return ast.WalkSkipChildren, nil
	case *ast.Image, *ast.RawHTML, *ast.HTMLBlock:
		return ast.WalkSkipChildren, nil
	case *extast.TableCell:
		if !entering {
			w.buf.WriteString(" | ")
		}
	case *extast.TableHeader, *extast.TableRow:
		if !entering {
			w.buf.WriteByte('\n')
		}
	case *extast.Table:
		if !entering {
			w.buf.WriteString("\n")
		}
	}
	return ast.WalkContinue, nil
}

func (w *textWriter) writeLines(lines *text.Segments) {
	w.buf.WriteString("\n")
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		w.buf.Write(line.Value(w.source))
	}
	w.buf.WriteString("\n")
}

// nodeText concatenates the text segments below n.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
