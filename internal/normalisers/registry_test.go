package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/normalisers/docx"
)

type stubNormaliser struct {
	name     string
	mimes    []string
	priority int
	content  string
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.mimes }
func (s *stubNormaliser) Priority() int                { return s.priority }
func (s *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	return &driven.NormaliseResult{Document: domain.Document{
		Title:    s.name,
		Content:  s.content,
		Metadata: map[string]any{"uri": raw.URI},
	}}, nil
}

func TestRegistry_PriorityOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "low", mimes: []string{"text/plain"}, priority: 5, content: "x"})
	r.Register(&stubNormaliser{name: "high", mimes: []string{"text/plain"}, priority: 50, content: "x"})

	result, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, "high", result.Document.Title)
}

func TestRegistry_WildcardFallback(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubNormaliser{name: "text", mimes: []string{"text/*"}, priority: 5, content: "x"})

	result, err := r.Normalise(context.Background(), &domain.RawDocument{MIMEType: "text/x-rst; charset=utf-8"})
	require.NoError(t, err)
	assert.Equal(t, "text", result.Document.Title)
}

func TestRegistry_UnsupportedType(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.Normalise(context.Background(), &domain.RawDocument{URI: "/a.docx", MIMEType: "application/msword"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestRegistry_NilDocument(t *testing.T) {
	_, err := NewRegistry().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_MaxFileSize(t *testing.T) {
	r := NewDefaultRegistry(WithMaxFileSize(10))

	_, err := r.Normalise(context.Background(), &domain.RawDocument{
		URI:      "/big.txt",
		MIMEType: "text/plain",
		Content:  []byte("mehr als zehn Bytes"),
	})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestRegistry_EmptyText(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.Normalise(context.Background(), &domain.RawDocument{
		URI:      "/blank.md",
		MIMEType: "text/markdown",
		Content:  []byte("\n\n   \n"),
	})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestRegistry_Defaults(t *testing.T) {
	r := NewDefaultRegistry()

	types := r.SupportedMIMETypes()
	for _, want := range []string{"application/pdf", "text/html", docx.MIMEType, "text/markdown", "text/plain", "text/*"} {
		assert.Contains(t, types, want)
	}

	result, err := r.Normalise(context.Background(), &domain.RawDocument{
		URI:      "/corpus/faq.md",
		Path:     "faq.md",
		MIMEType: "text/markdown",
		Content:  []byte("# FAQ\n\nAntwort"),
	})
	require.NoError(t, err)
	assert.Equal(t, "markdown", result.Document.Metadata["format"])
}
