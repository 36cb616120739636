// Package ratelimit provides the token-bucket rate limiting domain logic.
package ratelimit

import (
	"errors"
	"time"
)

// ErrUnknownCategory is returned when a caller passes a category that is not
// present in the policy table. This is a configuration fault in the calling
// layer, not a per-request condition: routes must only reference categories
// validated at startup.
var ErrUnknownCategory = errors.New("unknown rate limit category")

// Policy defines the quota for a single category.
type Policy struct {
	// Name is the category name (e.g., "api", "contact").
	Name string

	// Capacity is the maximum number of tokens the bucket holds.
	Capacity int

	// RefillPerSecond is the sustained refill rate in tokens per second.
	RefillPerSecond float64
}

// Decision is the outcome of a rate limit check.
type Decision struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// Limit is the bucket capacity for the category.
	Limit int

	// Remaining is the number of requests left before exhaustion.
	// Always 0 when Allowed is false.
	Remaining int

	// ResetAt estimates when the bucket would next be full.
	ResetAt time.Time

	// RetryAfter is the wait until at least one more token becomes
	// available. Only meaningful when Allowed is false.
	RetryAfter time.Duration
}

// BucketStatus is a read-only view of a single bucket, used for the
// observability snapshot. It must never be used to mutate bucket state.
type BucketStatus struct {
	Key             string  `json:"key"`
	Category        string  `json:"category"`
	IdentityHash    string  `json:"identity_hash"`
	Tokens          float64 `json:"tokens"`
	ViolationStreak int     `json:"violation_streak"`
}

// FormatKey returns the structured bucket key for a category and hashed
// identity. Format: "{category}:{identityHash}".
// Example: FormatKey("api", "9fd4c3b6a1e20587") -> "api:9fd4c3b6a1e20587".
func FormatKey(category, identityHash string) string {
	return category + ":" + identityHash
}
