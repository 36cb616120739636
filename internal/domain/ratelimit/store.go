package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// BucketStore maps (category, hashed identity) keys to token buckets.
// Buckets are created lazily on first access and removed only by idle
// eviction. The store mutex guards the map itself; per-bucket state is
// guarded by each bucket's own mutex, so concurrent checks on different
// keys proceed without contention beyond the map lookup.
type BucketStore struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
}

// NewBucketStore creates an empty bucket store.
func NewBucketStore() *BucketStore {
	return &BucketStore{
		buckets: make(map[string]*bucket),
	}
}

// getOrCreate returns the bucket for the key, creating it at full capacity
// from the policy on first access.
func (s *BucketStore) getOrCreate(key string, p Policy, now time.Time) *bucket {
	s.mu.RLock()
	b, ok := s.buckets[key]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check under the write lock: another goroutine may have created
	// the bucket between the RUnlock and Lock.
	if b, ok := s.buckets[key]; ok {
		return b
	}
	b = newBucket(p, now)
	s.buckets[key] = b
	return b
}

// Snapshot returns a read-only, best-effort consistent view of all buckets.
// Buckets are locked one at a time, so the snapshot is consistent per entry
// but not across entries. Observability only.
func (s *BucketStore) Snapshot() []BucketStatus {
	s.mu.RLock()
	keys := make([]string, 0, len(s.buckets))
	refs := make([]*bucket, 0, len(s.buckets))
	for k, b := range s.buckets {
		keys = append(keys, k)
		refs = append(refs, b)
	}
	s.mu.RUnlock()

	statuses := make([]BucketStatus, 0, len(keys))
	for i, key := range keys {
		b := refs[i]
		b.mu.Lock()
		st := BucketStatus{
			Key:             key,
			Tokens:          b.tokens,
			ViolationStreak: b.violationStreak,
		}
		b.mu.Unlock()
		if cat, hash, ok := strings.Cut(key, ":"); ok {
			st.Category = cat
			st.IdentityHash = hash
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// EvictIdleBefore removes buckets whose last refill predates the cutoff.
// It iterates a defensively copied key list and takes short per-entry
// critical sections, so a sweep never blocks concurrent checks for its
// whole duration. Returns the number of buckets evicted.
func (s *BucketStore) EvictIdleBefore(cutoff time.Time) int {
	s.mu.RLock()
	keys := make([]string, 0, len(s.buckets))
	for k := range s.buckets {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	evicted := 0
	for _, key := range keys {
		s.mu.RLock()
		b, ok := s.buckets[key]
		s.mu.RUnlock()
		if !ok || !b.idleSince(cutoff) {
			continue
		}
		s.mu.Lock()
		// The bucket may have been touched between the idle check and
		// acquiring the write lock; only drop it if still stale.
		if b, ok := s.buckets[key]; ok && b.idleSince(cutoff) {
			delete(s.buckets, key)
			evicted++
		}
		s.mu.Unlock()
	}
	return evicted
}

// Len returns the number of tracked buckets.
func (s *BucketStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

// Clear removes all buckets. Restricted to test and maintenance use.
func (s *BucketStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets = make(map[string]*bucket)
}
