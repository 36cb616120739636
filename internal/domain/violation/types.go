// Package violation provides the bounded violation log domain types.
package violation

import "time"

// Record is a single denied-request event. Immutable once created.
type Record struct {
	// IdentityHash is the salted digest of the client identifier.
	IdentityHash string `json:"identity_hash"`

	// Category is the rate limit category that was exhausted.
	Category string `json:"category"`

	// Timestamp is when the denial occurred.
	Timestamp time.Time `json:"timestamp"`

	// ViolationCount is the bucket's consecutive-denial streak at the
	// time of this denial.
	ViolationCount int `json:"violation_count"`

	// UserAgent and Referer are optional request metadata for abuse
	// triage; empty when the caller did not supply them.
	UserAgent string `json:"user_agent,omitempty"`
	Referer   string `json:"referer,omitempty"`
}
