// Package resilient wraps an EmbeddingService with sub-batching, rate
// limiting and retries with exponential backoff.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/core/ports/driven"
	"github.com/custodia-labs/regelrag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBatchSize   = 32
	DefaultMaxAttempts = 4
	DefaultBaseDelay   = 500 * time.Millisecond
	maxDelay           = 30 * time.Second
)

// EmbeddingService decorates another EmbeddingService.
type EmbeddingService struct {
	inner       driven.EmbeddingService
	batchSize   int
	maxAttempts int
	baseDelay   time.Duration
	limiter     *rate.Limiter
	sleep       func(context.Context, time.Duration) error
}

// Option configures the decorator.
type Option func(*EmbeddingService)

// WithBatchSize sets the maximum number of texts per upstream request.
func WithBatchSize(n int) Option {
	return func(s *EmbeddingService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithMaxAttempts sets how often a request is tried before giving up.
func WithMaxAttempts(n int) Option {
	return func(s *EmbeddingService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the first backoff delay.
func WithBaseDelay(d time.Duration) Option {
	return func(s *EmbeddingService) {
		s.baseDelay = d
	}
}

// WithRateLimit caps upstream requests per second. Zero means unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(s *EmbeddingService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			s.limiter = nil
		}
	}
}

// New wraps inner.
func New(inner driven.EmbeddingService, opts ...Option) *EmbeddingService {
	s := &EmbeddingService{
		inner:       inner,
		batchSize:   DefaultBatchSize,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromSettings wraps inner using the embedding settings.
func FromSettings(inner driven.EmbeddingService, s domain.EmbeddingSettings) *EmbeddingService {
	return New(inner,
		WithBatchSize(s.BatchSize),
		WithMaxAttempts(s.MaxAttempts),
		WithRateLimit(s.RequestsPerSecond),
	)
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := s.retry(ctx, func() error {
		v, err := s.inner.Embed(ctx, text)
		vec = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch splits texts into sub-batches and embeds them in order.
// Either every text gets a vector or an error is returned.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		batch := texts[start:end]

		var vectors [][]float32
		err := s.retry(ctx, func() error {
			v, err := s.inner.EmbedBatch(ctx, batch)
			if err == nil && len(v) != len(batch) {
				err = fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingUnavailable, len(v), len(batch))
			}
			vectors = v
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("embed texts %d-%d: %w", start, end-1, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// retry runs fn until it succeeds, fails permanently or attempts run out.
func (s *EmbeddingService) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == s.maxAttempts {
			break
		}

		delay := Backoff(s.baseDelay, attempt)
		logger.L().Warn().Err(lastErr).Int("attempt", attempt).Dur("retry_in", delay).
			Str("model", s.inner.ModelName()).Msg("embedding request failed")
		if err := s.sleep(ctx, delay); err != nil {
			return err
		}
	}

	if errors.Is(lastErr, domain.ErrEmbeddingUnavailable) || !retryable(lastErr) {
		return lastErr
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, lastErr)
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, domain.ErrConfiguration), errors.Is(err, domain.ErrInvalidInput):
		return false
	}
	var status *domain.StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	return true
}

// Backoff returns the exponential delay for attempt with +/-25% jitter, capped at 30s.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	backoff := base * time.Duration(1<<uint(attempt-1))
	if backoff > maxDelay || backoff <= 0 {
		backoff = maxDelay
	}
	jitter := time.Duration(rand.Int64N(int64(backoff)/2+1)) - backoff/4
	return backoff + jitter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the wrapped service without retries.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close releases the wrapped service.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}
