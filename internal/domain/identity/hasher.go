package identity

import (
	"encoding/hex"
	"errors"

	"github.com/cespare/xxhash/v2"
)

// ErrEmptySalt is returned when a Hasher is constructed without a salt.
// A missing salt in production is a startup-time configuration fault;
// callers in dev profiles substitute a default salt before construction.
var ErrEmptySalt = errors.New("identity hash salt must not be empty")

// DigestLength is the length of a hashed identity in hex characters.
// 16 hex characters (64 bits) balances log compactness against collision
// risk for the cardinality of identities a single process sees.
const DigestLength = 16

// Hasher produces salted, fixed-length, one-way digests of client
// identifiers. Digests correlate log entries without storing the raw
// identifier; they are not a cryptographic anonymity guarantee.
type Hasher struct {
	salt string
}

// NewHasher creates a Hasher with the given salt.
func NewHasher(salt string) (*Hasher, error) {
	if salt == "" {
		return nil, ErrEmptySalt
	}
	return &Hasher{salt: salt}, nil
}

// Hash returns the digest of an identifier. Deterministic for a fixed salt:
// the same identifier always yields the same digest.
func (h *Hasher) Hash(identifier string) string {
	d := xxhash.New()
	_, _ = d.WriteString(h.salt)
	_, _ = d.WriteString(identifier)
	var buf [8]byte
	sum := d.Sum64()
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (56 - 8*i))
	}
	return hex.EncodeToString(buf[:])
}
