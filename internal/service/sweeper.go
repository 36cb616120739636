// Package service contains application services.
package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rampart-sh/rampart/internal/domain/ratelimit"
	"github.com/rampart-sh/rampart/internal/domain/violation"
)

// Sweeper default intervals.
const (
	DefaultSweepInterval      = 5 * time.Minute
	DefaultBucketMaxAge       = time.Hour
	DefaultViolationRetention = 24 * time.Hour
)

// Sweeper periodically evicts idle buckets and stale violation records.
// It runs on its own ticker, independent of request handling: eviction
// iterates defensively copied key sets with short per-entry critical
// sections, so a sweep never blocks a concurrent limiter check.
type Sweeper struct {
	store      *ratelimit.BucketStore
	violations *violation.Log
	clock      ratelimit.Clock
	logger     *slog.Logger

	interval     time.Duration
	bucketMaxAge time.Duration
	retention    time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
	running  atomic.Bool
}

// SweeperConfig holds sweeper tuning. Zero fields take defaults.
type SweeperConfig struct {
	Interval           time.Duration
	BucketMaxAge       time.Duration
	ViolationRetention time.Duration
}

// NewSweeper creates a Sweeper over the given store and violation log.
// A nil clock defaults to the system clock; a nil logger to slog.Default().
func NewSweeper(
	store *ratelimit.BucketStore,
	violations *violation.Log,
	clock ratelimit.Clock,
	logger *slog.Logger,
	cfg SweeperConfig,
) *Sweeper {
	if clock == nil {
		clock = ratelimit.SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.BucketMaxAge <= 0 {
		cfg.BucketMaxAge = DefaultBucketMaxAge
	}
	if cfg.ViolationRetention <= 0 {
		cfg.ViolationRetention = DefaultViolationRetention
	}
	return &Sweeper{
		store:        store,
		violations:   violations,
		clock:        clock,
		logger:       logger,
		interval:     cfg.Interval,
		bucketMaxAge: cfg.BucketMaxAge,
		retention:    cfg.ViolationRetention,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the background sweep goroutine.
// It stops when ctx is cancelled or Stop() is called.
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	s.running.Store(true)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Sweep runs one eviction pass. Exported so tests and maintenance tooling
// can trigger a pass without waiting for the ticker.
func (s *Sweeper) Sweep() {
	now := s.clock.Now()

	evictedBuckets := s.store.EvictIdleBefore(now.Add(-s.bucketMaxAge))
	evictedViolations := s.violations.EvictOlderThan(now.Add(-s.retention))

	if evictedBuckets > 0 || evictedViolations > 0 {
		s.logger.Debug("sweep completed",
			"evicted_buckets", evictedBuckets,
			"evicted_violations", evictedViolations,
			"remaining_buckets", s.store.Len(),
			"remaining_violations", s.violations.Len(),
		)
	}
}

// Running reports whether the background sweep goroutine is active.
func (s *Sweeper) Running() bool {
	return s.running.Load()
}

// Stop gracefully stops the sweep goroutine and waits for it to exit.
// Safe to call multiple times.
func (s *Sweeper) Stop() {
	s.once.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}
