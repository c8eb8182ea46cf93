package postprocessors

import (
	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/postprocessors/chunker"
	"github.com/custodia-labs/regelrag/internal/postprocessors/provenance"
)

// DefaultOrder is the processor order used for ingestion.
// Provenance needs the chunk spans, so it runs after the chunker.
var DefaultOrder = []string{"chunker", "provenance"}

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("provenance", buildProvenance)
}

// NewDefaultPipeline builds the chunker and provenance pipeline from settings.
// It returns domain.ErrConfiguration for invalid chunk sizing.
func NewDefaultPipeline(settings domain.ChunkingSettings) (*Pipeline, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	r := NewRegistry()
	RegisterDefaults(r)
	return r.Pipeline(DefaultOrder, settings)
}

func buildChunker(settings domain.ChunkingSettings) (driven.PostProcessor, error) {
	c, err := chunker.New(
		chunker.WithChunkSize(settings.Size),
		chunker.WithOverlap(settings.Overlap),
		chunker.WithNaturalBreaks(settings.PreferBreaks),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func buildProvenance(_ domain.ChunkingSettings) (driven.PostProcessor, error) {
	return provenance.New(), nil
}
