package service

import (
	"sync"
	"sync/atomic"
)

// StatsService tracks runtime decision counters using lock-free atomics.
// All counter operations are safe for concurrent access from multiple
// goroutines.
type StatsService struct {
	allowed atomic.Int64
	denied  atomic.Int64
	errors  atomic.Int64

	// Per-category counters (mutex-protected map).
	mu             sync.Mutex
	categoryCounts map[string]int64
}

// NewStatsService creates a StatsService with all counters at zero.
func NewStatsService() *StatsService {
	return &StatsService{
		categoryCounts: make(map[string]int64),
	}
}

// RecordAllow increments the allowed counter.
func (s *StatsService) RecordAllow(category string) {
	s.allowed.Add(1)
	s.recordCategory(category)
}

// RecordDeny increments the denied counter.
func (s *StatsService) RecordDeny(category string) {
	s.denied.Add(1)
	s.recordCategory(category)
}

// RecordError increments the error counter.
func (s *StatsService) RecordError() {
	s.errors.Add(1)
}

func (s *StatsService) recordCategory(category string) {
	if category == "" {
		return
	}
	s.mu.Lock()
	s.categoryCounts[category]++
	s.mu.Unlock()
}

// Stats holds a snapshot of all counters at a point in time.
type Stats struct {
	Allowed        int64            `json:"allowed"`
	Denied         int64            `json:"denied"`
	Errors         int64            `json:"errors"`
	CategoryCounts map[string]int64 `json:"category_counts"`
}

// GetStats returns a snapshot of all counters.
// The snapshot is consistent per-counter but not atomically across all counters.
func (s *StatsService) GetStats() Stats {
	s.mu.Lock()
	cc := make(map[string]int64, len(s.categoryCounts))
	for k, v := range s.categoryCounts {
		cc[k] = v
	}
	s.mu.Unlock()

	return Stats{
		Allowed:        s.allowed.Load(),
		Denied:         s.denied.Load(),
		Errors:         s.errors.Load(),
		CategoryCounts: cc,
	}
}

// Reset sets all counters to zero.
func (s *StatsService) Reset() {
	s.allowed.Store(0)
	s.denied.Store(0)
	s.errors.Store(0)

	s.mu.Lock()
	s.categoryCounts = make(map[string]int64)
	s.mu.Unlock()
}
