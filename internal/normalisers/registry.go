package normalisers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/normalisers/docx"
	"github.com/custodia-labs/regelrag/internal/normalisers/html"
	"github.com/custodia-labs/regelrag/internal/normalisers/markdown"
	"github.com/custodia-labs/regelrag/internal/normalisers/pdf"
	"github.com/custodia-labs/regelrag/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches raw documents to the highest priority normaliser
// for their MIME type. A "type/*" entry matches any subtype.
type Registry struct {
	mu          sync.RWMutex
	byMIME      map[string][]driven.Normaliser
	maxFileSize int64
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxFileSize rejects raw documents larger than size bytes. Zero disables the check.
func WithMaxFileSize(size int64) RegistryOption {
	return func(r *Registry) {
		r.maxFileSize = size
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{byMIME: make(map[string][]driven.Normaliser)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewDefaultRegistry creates a registry with every built-in normaliser.
func NewDefaultRegistry(opts ...RegistryOption) *Registry {
	r := NewRegistry(opts...)
	RegisterDefaults(r)
	return r
}

// RegisterDefaults registers the built-in normalisers.
func RegisterDefaults(r driven.NormaliserRegistry) {
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(html.New())
	r.Register(markdown.New())
	r.Register(plaintext.New())
}

// Register adds a normaliser for each of its MIME types.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mime := range n.SupportedMIMETypes() {
		mime = strings.ToLower(mime)
		list := append(r.byMIME[mime], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[mime] = list
	}
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byMIME))
	for mime := range r.byMIME {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}

// Normalise extracts the document text with the best matching normaliser.
// Oversized input and documents without text fail with domain.ErrExtraction.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if r.maxFileSize > 0 && int64(len(raw.Content)) > r.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d",
			domain.ErrExtraction, raw.URI, len(raw.Content), r.maxFileSize)
	}

	n := r.lookup(raw.MIMEType)
	if n == nil {
		return nil, fmt.Errorf("%w: %q (%s)", domain.ErrUnsupportedType, raw.MIMEType, raw.URI)
	}

	result, err := n.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Document.Content) == "" {
		return nil, fmt.Errorf("%w: %s: no text content", domain.ErrExtraction, raw.URI)
	}
	return result, nil
}

func (r *Registry) lookup(mimeType string) driven.Normaliser {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if list := r.byMIME[mimeType]; len(list) > 0 {
		return list[0]
	}
	if i := strings.IndexByte(mimeType, '/'); i > 0 {
		if list := r.byMIME[mimeType[:i]+"/*"]; len(list) > 0 {
			return list[0]
		}
	}
	return nil
}
