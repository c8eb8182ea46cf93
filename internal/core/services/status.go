package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
)

// pingTimeout bounds each dependency check.
const pingTimeout = 5 * time.Second

// StatusChecker probes every dependency of the RAG pipeline.
type StatusChecker struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	llm      driven.LLMService
	registry driven.IngestRegistry
	cfg      domain.Config
}

// NewStatusChecker creates a status checker. Any dependency may be nil.
func NewStatusChecker(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	llm driven.LLMService,
	registry driven.IngestRegistry,
	cfg domain.Config,
) *StatusChecker {
	return &StatusChecker{
		embedder: embedder,
		index:    index,
		llm:      llm,
		registry: registry,
		cfg:      cfg,
	}
}

// Status checks all dependencies concurrently. It never fails and has no
// side effects; unreachable dependencies are reported, not returned.
func (c *StatusChecker) Status(ctx context.Context) domain.HealthReport {
	report := domain.HealthReport{
		EmbeddingModel: c.cfg.Embedding.Model,
		LLMModel:       c.cfg.LLM.Model,
		Collection:     c.cfg.Index.Collection,
		DataDir:        c.cfg.DataDir,
		Components:     make([]domain.ComponentHealth, 4),
	}

	var wg sync.WaitGroup
	checks := []func(context.Context) domain.ComponentHealth{
		c.checkEmbedding,
		func(ctx context.Context) domain.ComponentHealth {
			h, n := c.checkIndex(ctx)
			report.Chunks = n
			return h
		},
		c.checkLLM,
		func(ctx context.Context) domain.ComponentHealth {
			h, n := c.checkRegistry(ctx)
			report.Documents = n
			return h
		},
	}
	for i, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()
			report.Components[i] = check(cctx)
		}()
	}
	wg.Wait()

	if c.embedder != nil {
		report.EmbeddingModel = c.embedder.ModelName()
	}
	if c.llm != nil {
		report.LLMModel = c.llm.ModelName()
	}
	return report
}

func (c *StatusChecker) checkEmbedding(ctx context.Context) domain.ComponentHealth {
	h := domain.ComponentHealth{Name: domain.ComponentEmbedding}
	switch {
	case c.embedder == nil:
		h.Status = domain.HealthNotConfigured
		h.Detail = fmt.Sprintf("%s is not configured", c.cfg.Embedding.Provider)
	default:
		if err := c.embedder.Ping(ctx); err != nil {
			h.Status, h.Detail = domain.HealthUnavailable, err.Error()
			break
		}
		h.Status = domain.HealthOK
		h.Detail = fmt.Sprintf("%s (%d dimensions)", c.embedder.ModelName(), c.embedder.Dimensions())
	}
	return h
}

func (c *StatusChecker) checkIndex(ctx context.Context) (domain.ComponentHealth, int) {
	h := domain.ComponentHealth{Name: domain.ComponentVectorIndex}
	if c.index == nil {
		h.Status, h.Detail = domain.HealthNotConfigured, "no vector index"
		return h, 0
	}
	if err := c.index.Ping(ctx); err != nil {
		h.Status, h.Detail = domain.HealthUnavailable, err.Error()
		return h, 0
	}
	n, err := c.index.Count(ctx)
	if err != nil {
		h.Status, h.Detail = domain.HealthUnavailable, err.Error()
		return h, 0
	}
	if n == 0 {
		h.Status = domain.HealthEmpty
		h.Detail = fmt.Sprintf("%s: no chunks indexed", c.cfg.Index.Collection)
		return h, 0
	}
	h.Status = domain.HealthOK
	h.Detail = fmt.Sprintf("%s: %d chunks (%s)", c.cfg.Index.Collection, n, c.cfg.Index.Backend)
	return h, n
}

func (c *StatusChecker) checkLLM(ctx context.Context) domain.ComponentHealth {
	h := domain.ComponentHealth{Name: domain.ComponentLLM}
	if c.llm == nil {
		h.Status = domain.HealthNotConfigured
		h.Detail = fmt.Sprintf("%s is not configured", c.cfg.LLM.Provider)
		return h
	}
	if err := c.llm.Ping(ctx); err != nil {
		h.Status, h.Detail = domain.HealthUnavailable, err.Error()
		return h
	}
	h.Status, h.Detail = domain.HealthOK, c.llm.ModelName()
	return h
}

func (c *StatusChecker) checkRegistry(ctx context.Context) (domain.ComponentHealth, int) {
	h := domain.ComponentHealth{Name: domain.ComponentRegistry}
	if c.registry == nil {
		h.Status, h.Detail = domain.HealthNotConfigured, "no ingestion registry"
		return h, 0
	}
	if err := c.registry.Ping(ctx); err != nil {
		h.Status, h.Detail = domain.HealthUnavailable, err.Error()
		return h, 0
	}
	records, err := c.registry.List(ctx)
	if err != nil {
		h.Status, h.Detail = domain.HealthUnavailable, err.Error()
		return h, 0
	}

	var done, failed int
	for _, r := range records {
		switch r.State {
		case domain.StateDone:
			done++
		case domain.StateFailed:
			failed++
		}
	}
	if len(records) == 0 {
		h.Status, h.Detail = domain.HealthEmpty, "no documents ingested"
		return h, 0
	}
	h.Status = domain.HealthOK
	h.Detail = fmt.Sprintf("%d documents (%d done, %d failed)", len(records), done, failed)
	return h, done
}
