package ratelimit

import (
	"log/slog"
	"net/http"

	"github.com/rampart-sh/rampart/internal/domain/identity"
	"github.com/rampart-sh/rampart/internal/domain/violation"
)

// Limiter orchestrates a rate limit check: resolve identity, hash it, fetch
// the category policy, then refill-and-consume on the bucket. It is the only
// entry point callers use; the store and violation log are owned instances
// passed at construction so tests can build isolated limiters.
type Limiter struct {
	policies   *PolicyTable
	store      *BucketStore
	hasher     *identity.Hasher
	violations *violation.Log
	clock      Clock
	logger     *slog.Logger
}

// NewLimiter creates a Limiter. A nil clock defaults to the system clock;
// a nil logger defaults to slog.Default().
func NewLimiter(
	policies *PolicyTable,
	store *BucketStore,
	hasher *identity.Hasher,
	violations *violation.Log,
	clock Clock,
	logger *slog.Logger,
) *Limiter {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		policies:   policies,
		store:      store,
		hasher:     hasher,
		violations: violations,
		clock:      clock,
		logger:     logger,
	}
}

// Check runs one rate limit decision for the category against the identity
// resolved from the request headers. The hot path performs no blocking I/O;
// a denial returns immediately with retry guidance rather than waiting.
//
// An unknown category returns ErrUnknownCategory: a fault in the calling
// route configuration, expected to surface during integration testing.
func (l *Limiter) Check(category string, h http.Header) (Decision, error) {
	policy, err := l.policies.Lookup(category)
	if err != nil {
		return Decision{}, err
	}

	identifier := identity.Resolve(h)
	hash := l.hasher.Hash(identifier)
	now := l.clock.Now()

	key := FormatKey(category, hash)
	b := l.store.getOrCreate(key, policy, now)

	allowed, streak := b.tryConsume(now)
	if allowed {
		return Decision{
			Allowed:   true,
			Limit:     policy.Capacity,
			Remaining: b.remaining(),
			ResetAt:   b.resetEstimate(),
		}, nil
	}

	retryAfter := b.retryAfter()
	l.violations.Record(violation.Record{
		IdentityHash:   hash,
		Category:       category,
		Timestamp:      now,
		ViolationCount: streak,
		UserAgent:      h.Get("User-Agent"),
		Referer:        h.Get("Referer"),
	})
	l.logger.Warn("rate limit exceeded",
		"category", category,
		"identity_hash", hash,
		"violation_streak", streak,
		"retry_after", retryAfter,
	)

	return Decision{
		Allowed:    false,
		Limit:      policy.Capacity,
		Remaining:  0,
		ResetAt:    b.resetEstimate(),
		RetryAfter: retryAfter,
	}, nil
}

// Store returns the limiter's bucket store for observability and cleanup.
func (l *Limiter) Store() *BucketStore { return l.store }

// Violations returns the limiter's violation log.
func (l *Limiter) Violations() *violation.Log { return l.violations }
