package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/regelrag/internal/core/domain"
	"github.com/custodia-labs/regelrag/internal/logger"
)

// Syncer runs one full pass over the corpus.
type Syncer interface {
	Sync(ctx context.Context) (*domain.BatchResult, error)
}

// Scheduler rescans the corpus at a fixed interval. Watch mode uses it to
// catch changes the file watcher missed; unchanged documents are skipped.
type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	onResult func(*domain.BatchResult, error)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. onResult may be nil.
func NewScheduler(syncer Syncer, interval time.Duration, onResult func(*domain.BatchResult, error)) *Scheduler {
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		onResult: onResult,
	}
}

// Start runs the rescan loop and blocks until Stop is called or ctx ends.
// A non-positive interval disables rescans.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if s.interval <= 0 {
		select {
		case <-ctx.Done():
		case <-stopCh:
		}
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// Stop ends the loop and waits for a running rescan to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	logger.Debug("Scheduled rescan started")
	result, err := s.syncer.Sync(ctx)
	if err != nil {
		logger.Warn("Scheduled rescan failed: %v", err)
	}
	if s.onResult != nil {
		s.onResult(result, err)
	}
}
