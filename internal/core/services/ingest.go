package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/ids"
	"github.com/custodia-labs/regelrag/internal/logger"
)

// IngestService runs raw documents through extraction, chunking, embedding
// and indexing, one worker per document.
type IngestService struct {
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
	index       driven.VectorIndex
	registry    driven.IngestRegistry

	configHash     string
	embeddingModel string
	workers        int
	timeout        time.Duration

	// prepareMu serialises the model check that runs before each batch.
	prepareMu sync.Mutex
}

// NewIngestService creates an ingestion orchestrator.
// Invalid chunk sizing fails with domain.ErrConfiguration before any work starts.
func NewIngestService(
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	registry driven.IngestRegistry,
	cfg domain.Config,
) (*IngestService, error) {
	if err := cfg.Chunking.Validate(); err != nil {
		return nil, err
	}
	if normalisers == nil || pipeline == nil || registry == nil {
		return nil, fmt.Errorf("%w: ingestion needs normalisers, pipeline and registry", domain.ErrConfiguration)
	}

	workers := cfg.Ingest.Workers
	if workers <= 0 {
		workers = 1
	}

	// The registry is shared by every backend and collection, so the hash
	// names the collection the chunks actually went to.
	target := cfg.Index
	if index != nil {
		target.Collection = index.Collection()
	}
	return &IngestService{
		normalisers:    normalisers,
		pipeline:       pipeline,
		embedder:       embedder,
		index:          index,
		registry:       registry,
		configHash:     ConfigHash(cfg.Chunking, cfg.Embedding, target),
		embeddingModel: EmbeddingModel(cfg.Embedding),
		workers:        workers,
		timeout:        time.Duration(cfg.Ingest.TimeoutSeconds) * time.Second,
	}, nil
}

// ConfigHash fingerprints every setting that changes the indexed chunks or
// where they are stored. A document indexed under a different hash is
// re-ingested.
func ConfigHash(chunking domain.ChunkingSettings, embedding domain.EmbeddingSettings, index domain.IndexSettings) string {
	unit := chunking.Unit
	if unit == "" {
		unit = domain.ChunkUnitCharacters
	}
	key := fmt.Sprintf("chunk=%d/%d/%s/%t;embed=%s;index=%s/%s",
		chunking.Size, chunking.Overlap, unit, chunking.PreferBreaks,
		EmbeddingModel(embedding), index.Backend, index.Collection)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

// EmbeddingModel identifies the vector space embeddings are produced in.
// Vectors of two different values must never share a collection.
func EmbeddingModel(embedding domain.EmbeddingSettings) string {
	return fmt.Sprintf("%s/%s/%d", embedding.Provider, embedding.Model, embedding.Dimensions)
}

// Ingest processes the documents concurrently. Per-document failures are
// recorded in the result; only a missing dependency or a cancelled context
// fails the whole call.
func (s *IngestService) Ingest(ctx context.Context, docs []domain.RawDocument) (*domain.BatchResult, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}
	if s.index == nil {
		return nil, fmt.Errorf("%w: no vector index configured", domain.ErrIndex)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.prepareIndex(ctx); err != nil {
		return nil, err
	}

	docs = dedupeByPath(docs)
	result := &domain.BatchResult{
		RunID:    ids.RunID(),
		Outcomes: make([]domain.DocumentOutcome, len(docs)),
		Started:  time.Now(),
	}
	logger.L().Info().
		Str("run_id", result.RunID).
		Int("documents", len(docs)).
		Int("workers", s.workers).
		Msg("ingestion started")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range docs {
		g.Go(func() error {
			result.Outcomes[i] = s.ingestOne(gctx, &docs[i])
			return nil
		})
	}
	_ = g.Wait()
	result.Finished = time.Now()

	logger.L().Info().
		Str("run_id", result.RunID).
		Int("done", len(result.Done())).
		Int("skipped", len(result.Skipped())).
		Int("failed", len(result.Failed())).
		Dur("duration", result.Duration()).
		Msg("ingestion finished")

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("ingest: %w", err)
	}
	return result, nil
}

// prepareIndex resets the collection when its vectors came from another
// embedding model. Registry records that still claim chunks in it under the
// current configuration are marked failed so they are ingested again.
func (s *IngestService) prepareIndex(ctx context.Context) error {
	s.prepareMu.Lock()
	defer s.prepareMu.Unlock()

	recorded, err := s.index.EmbeddingModel(ctx)
	if err != nil {
		return fmt.Errorf("read index model: %w", err)
	}
	if recorded == s.embeddingModel {
		return nil
	}

	removed, err := s.index.Reset(ctx, s.embeddingModel)
	if err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	if removed > 0 || recorded != "" {
		logger.L().Warn().
			Str("collection", s.index.Collection()).
			Str("previous", recorded).
			Str("model", s.embeddingModel).
			Int("removed", removed).
			Msg("embedding model changed, collection reset")
	}

	records, err := s.registry.List(ctx)
	if err != nil {
		return fmt.Errorf("list ingest records: %w", err)
	}
	for _, rec := range records {
		if rec.ConfigHash != s.configHash || rec.State == domain.StateFailed {
			continue
		}
		rec.State = domain.StateFailed
		rec.Reason = "chunks removed by index reset"
		rec.UpdatedAt = time.Now().UTC()
		if err := s.registry.Save(ctx, rec); err != nil {
			return fmt.Errorf("save ingest record: %w", err)
		}
	}
	return nil
}

// dedupeByPath keeps the last occurrence of each path so two workers never
// touch the same document.
func dedupeByPath(docs []domain.RawDocument) []domain.RawDocument {
	last := make(map[string]int, len(docs))
	for i := range docs {
		last[rawPath(&docs[i])] = i
	}
	if len(last) == len(docs) {
		return docs
	}
	out := make([]domain.RawDocument, 0, len(last))
	for i := range docs {
		if last[rawPath(&docs[i])] == i {
			out = append(out, docs[i])
		} else {
			logger.Warn("Ignoring duplicate document %s in batch", rawPath(&docs[i]))
		}
	}
	return out
}

func rawPath(raw *domain.RawDocument) string {
	if raw.Path != "" {
		return raw.Path
	}
	return raw.URI
}

// tracker moves a document through the ingestion states and mirrors every
// step into the registry.
type tracker struct {
	registry driven.IngestRegistry
	record   domain.IngestRecord
}

func (t *tracker) advance(ctx context.Context, to domain.IngestState) error {
	if !t.record.State.CanTransition(to) {
		return fmt.Errorf("illegal transition %s -> %s", t.record.State, to)
	}
	t.record.State = to
	t.record.UpdatedAt = time.Now().UTC()
	if err := t.registry.Save(ctx, t.record); err != nil {
		return fmt.Errorf("save ingest record: %w", err)
	}
	return nil
}

func (t *tracker) fail(ctx context.Context, cause error) {
	if t.record.State.IsTerminal() {
		return
	}
	t.record.State = domain.StateFailed
	t.record.Reason = cause.Error()
	t.record.UpdatedAt = time.Now().UTC()
	if err := t.registry.Save(context.WithoutCancel(ctx), t.record); err != nil {
		logger.Warn("Failed to record failure of %s: %v", t.record.Path, err)
	}
}

func (s *IngestService) ingestOne(ctx context.Context, raw *domain.RawDocument) domain.DocumentOutcome {
	started := time.Now()
	path := filepath.ToSlash(rawPath(raw))
	docID := ids.DocumentID(path)
	contentHash := ids.ContentHash(raw.Content)

	outcome := domain.DocumentOutcome{DocumentID: docID, Path: path}
	finish := func(state domain.IngestState, err error) domain.DocumentOutcome {
		outcome.State = state
		outcome.Duration = time.Since(started)
		if err != nil {
			outcome.Reason = err.Error()
			logger.Warn("Failed to ingest %s: %v", path, err)
		}
		return outcome
	}

	prev, err := s.registry.Get(ctx, docID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return finish(domain.StateFailed, fmt.Errorf("read ingest record: %w", err))
	}
	if prev.IsCurrent(contentHash, s.configHash) {
		logger.Debug("Unchanged, skipping: %s", path)
		outcome.Skipped = true
		outcome.Chunks = prev.ChunkCount
		return finish(domain.StateDone, nil)
	}

	t := &tracker{
		registry: s.registry,
		record: domain.IngestRecord{
			DocumentID:  docID,
			Path:        path,
			Labels:      raw.Labels,
			ContentHash: contentHash,
			ConfigHash:  s.configHash,
			State:       domain.StateDiscovered,
			UpdatedAt:   time.Now().UTC(),
		},
	}
	if err := s.registry.Save(ctx, t.record); err != nil {
		return finish(domain.StateFailed, fmt.Errorf("save ingest record: %w", err))
	}

	chunks, err := s.run(ctx, t, raw)
	if err != nil {
		t.fail(ctx, err)
		return finish(domain.StateFailed, err)
	}

	outcome.Chunks = chunks
	logger.Debug("Indexed %s: %d chunks", path, chunks)
	return finish(domain.StateDone, nil)
}

// run performs the pipeline steps and returns the number of indexed chunks.
func (s *IngestService) run(ctx context.Context, t *tracker, raw *domain.RawDocument) (int, error) {
	normalised, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		if !errors.Is(err, domain.ErrExtraction) {
			err = fmt.Errorf("%w: %w", domain.ErrExtraction, err)
		}
		return 0, err
	}
	doc := &normalised.Document
	t.record.Title = doc.Title
	t.record.TextLength = doc.TextLength()
	if err := t.advance(ctx, domain.StateExtracted); err != nil {
		return 0, err
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("chunk: %w", err)
	}
	t.record.ChunkCount = len(chunks)
	if err := t.advance(ctx, domain.StateChunked); err != nil {
		return 0, err
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingUnavailable, len(vectors), len(chunks))
	}
	if err := t.advance(ctx, domain.StateEmbedded); err != nil {
		return 0, err
	}

	records := make([]domain.VectorRecord, len(chunks))
	for i := range chunks {
		records[i] = domain.VectorRecord{Chunk: chunks[i], Vector: vectors[i]}
	}
	removed, err := s.index.DeleteByDocument(ctx, doc.ID)
	if err != nil {
		return 0, fmt.Errorf("delete previous chunks: %w", err)
	}
	if removed > 0 {
		logger.Debug("Removed %d previous chunks of %s", removed, doc.Path)
	}
	if err := s.index.Upsert(ctx, records...); err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}
	if err := t.advance(ctx, domain.StateIndexed); err != nil {
		return 0, err
	}

	t.record.Reason = ""
	if err := t.advance(ctx, domain.StateDone); err != nil {
		return 0, err
	}
	return len(chunks), nil
}
