// Package identity resolves and hashes client identifiers.
package identity

import (
	"net/http"
	"strings"
)

// LocalFallback is the placeholder identifier used when no identity signal is
// present in the request headers.
const LocalFallback = "127.0.0.1"

// identityHeaders is the trust-ordered list of headers checked by Resolve.
// Platform-trusted edge headers come first; client-suppliable ones last.
var identityHeaders = []string{
	"CF-Connecting-IP",
	"X-Real-IP",
	"X-Forwarded-For",
	"X-Client-IP",
}

// Resolve extracts a best-effort client identifier from request headers.
// It checks headers in trust order and returns the first present non-empty
// value; for X-Forwarded-For it takes the first entry of the chain (the
// original client). Resolve never fails: when no signal is present it
// returns LocalFallback.
func Resolve(h http.Header) string {
	for _, name := range identityHeaders {
		value := strings.TrimSpace(h.Get(name))
		if value == "" {
			continue
		}
		if name == "X-Forwarded-For" {
			first, _, _ := strings.Cut(value, ",")
			value = strings.TrimSpace(first)
			if value == "" {
				continue
			}
		}
		return value
	}
	return LocalFallback
}
