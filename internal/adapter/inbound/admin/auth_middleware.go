package admin

import (
	"net"
	"net/http"
	"strings"

	"github.com/alexedwards/argon2id"
)

// isLocalhost checks if the request originates from a loopback address.
// It parses the host portion from r.RemoteAddr and checks for 127.0.0.1,
// ::1, or localhost. X-Forwarded-For is intentionally NOT trusted here
// (an attacker could spoof it).
func isLocalhost(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port (unlikely with net/http, but be safe).
		host = r.RemoteAddr
	}
	return host == "127.0.0.1" || host == "::1" || host == "localhost"
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
// Returns "" when the header is missing or malformed.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// tokenHash returns the configured argon2id admin token hash, or "" when
// remote token auth is not configured.
func (h *APIHandler) tokenHash() string {
	if h.cfg == nil {
		return ""
	}
	return h.cfg.Admin.TokenHash
}

// authMiddleware wraps an http.Handler and enforces admin access rules.
// Localhost requests bypass auth entirely. Remote requests need a bearer
// token matching the configured argon2id hash; without a configured hash
// remote access is rejected outright.
func (h *APIHandler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isLocalhost(r) {
			next.ServeHTTP(w, r)
			return
		}

		hash := h.tokenHash()
		if hash == "" {
			h.respondError(w, http.StatusForbidden, "admin API requires localhost access")
			return
		}

		token := bearerToken(r)
		if token == "" {
			h.respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		match, err := argon2id.ComparePasswordAndHash(token, hash)
		if err != nil {
			h.logger.Error("admin token comparison failed", "error", err)
			h.respondError(w, http.StatusInternalServerError, "token verification failed")
			return
		}
		if !match {
			h.respondError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authStatusResponse is the JSON response for GET /admin/api/auth/status.
type authStatusResponse struct {
	AuthRequired bool `json:"auth_required"`
	TokenSet     bool `json:"token_set"`
	Localhost    bool `json:"localhost"`
}

// handleAuthStatus returns authentication status information.
// GET /admin/api/auth/status
func (h *APIHandler) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, authStatusResponse{
		AuthRequired: !isLocalhost(r),
		TokenSet:     h.tokenHash() != "",
		Localhost:    isLocalhost(r),
	})
}
