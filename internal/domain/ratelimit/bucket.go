package ratelimit

import (
	"math"
	"sync"
	"time"
)

// bucket is the per-key token bucket state. Each bucket carries its own
// mutex so refill-then-consume is atomic per key without any store-wide
// lock on the hot path; operations on different keys never contend.
type bucket struct {
	mu sync.Mutex

	tokens          float64
	capacity        int
	refillPerSecond float64
	lastRefill      time.Time
	violationStreak int
	firstViolation  time.Time
}

// newBucket creates a bucket initialized to full capacity.
func newBucket(p Policy, now time.Time) *bucket {
	return &bucket{
		tokens:          float64(p.Capacity),
		capacity:        p.Capacity,
		refillPerSecond: p.RefillPerSecond,
		lastRefill:      now,
	}
}

// refill adds whole tokens accrued since lastRefill and advances lastRefill.
// Elapsed time is clamped to >= 0 so a clock regression can never drain the
// bucket or move lastRefill backwards. lastRefill only advances when at
// least one whole token accrued, preserving fractional progress toward the
// next token. Caller must hold b.mu.
func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	tokensToAdd := math.Floor(elapsed * b.refillPerSecond)
	if tokensToAdd > 0 {
		b.tokens = math.Min(float64(b.capacity), b.tokens+tokensToAdd)
		b.lastRefill = now
	}
}

// tryConsume refills the bucket, then attempts to take one token.
// A successful consumption resets the violation streak; a denial increments
// it and stamps firstViolation on the first denial of the streak.
// Returns (allowed, streak after the attempt).
func (b *bucket) tryConsume(now time.Time) (bool, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)

	if b.tokens > 0 {
		b.tokens--
		b.violationStreak = 0
		b.firstViolation = time.Time{}
		return true, 0
	}

	b.violationStreak++
	if b.firstViolation.IsZero() {
		b.firstViolation = now
	}
	return false, b.violationStreak
}

// remaining returns the whole tokens currently available.
func (b *bucket) remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int(b.tokens)
}

// resetEstimate approximates when the bucket would next be full:
// lastRefill plus the time a full recovery takes at the sustained rate.
func (b *bucket) resetEstimate() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	recovery := time.Duration(float64(b.capacity) / b.refillPerSecond * float64(time.Second))
	return b.lastRefill.Add(recovery)
}

// retryAfter returns the wait until at least one more token accrues.
func (b *bucket) retryAfter() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Duration(math.Ceil(1/b.refillPerSecond)) * time.Second
}

// idleSince reports whether the bucket's last refill predates the cutoff.
func (b *bucket) idleSince(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastRefill.Before(cutoff)
}
