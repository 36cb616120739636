package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rampart-sh/rampart/internal/domain/identity"
	"github.com/rampart-sh/rampart/internal/domain/ratelimit"
	"github.com/rampart-sh/rampart/internal/domain/violation"
	"github.com/rampart-sh/rampart/internal/service"
)

// newTestLimiter builds an isolated limiter with the default policies.
func newTestLimiter(t *testing.T) *ratelimit.Limiter {
	t.Helper()

	table, err := ratelimit.NewPolicyTable(ratelimit.DefaultPolicies())
	if err != nil {
		t.Fatalf("NewPolicyTable() error: %v", err)
	}
	hasher, err := identity.NewHasher("http-test-salt")
	if err != nil {
		t.Fatalf("NewHasher() error: %v", err)
	}
	return ratelimit.NewLimiter(table, ratelimit.NewBucketStore(), hasher, violation.NewLog(100), nil, slog.New(slog.DiscardHandler))
}

func TestRateLimitMiddleware_AllowedSetsQuotaHeaders(t *testing.T) {
	t.Parallel()

	limiter := newTestLimiter(t)
	stats := service.NewStatsService()
	handler := RateLimitMiddleware(limiter, "api", stats, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/things", nil)
	req.Header.Set("X-Real-IP", "198.51.100.10")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "60" {
		t.Errorf("X-RateLimit-Limit = %q, want 60", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "59" {
		t.Errorf("X-RateLimit-Remaining = %q, want 59", got)
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("X-RateLimit-Reset not set")
	}
	if stats.GetStats().Allowed != 1 {
		t.Errorf("stats allowed = %d, want 1", stats.GetStats().Allowed)
	}
}

func TestRateLimitMiddleware_DeniedRespond429(t *testing.T) {
	t.Parallel()

	limiter := newTestLimiter(t)
	stats := service.NewStatsService()
	handler := RateLimitMiddleware(limiter, "contact", stats, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/contact", nil)
	req.Header.Set("X-Real-IP", "198.51.100.11")

	// Exhaust capacity 5.
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "5" {
		t.Errorf("X-RateLimit-Limit = %q, want 5", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}

	var body rateLimitErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "Rate limit exceeded" {
		t.Errorf("body.Error = %q, want \"Rate limit exceeded\"", body.Error)
	}
	if body.RetryAfter != 60 {
		t.Errorf("body.RetryAfter = %d, want 60", body.RetryAfter)
	}
	if stats.GetStats().Denied != 1 {
		t.Errorf("stats denied = %d, want 1", stats.GetStats().Denied)
	}
}

func TestRateLimitMiddleware_UnknownCategoryIs500(t *testing.T) {
	t.Parallel()

	limiter := newTestLimiter(t)
	handler := RateLimitMiddleware(limiter, "uploads", nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler reached despite configuration fault")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)
	var sawID string
	handler := RequestIDMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawID, _ = r.Context().Value(RequestIDKey).(string)
		if LoggerFromContext(r.Context()) == slog.Default() {
			t.Error("enriched logger not stored in context")
		}
	}))

	// A supplied request ID is passed through.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if sawID != "req-123" {
		t.Errorf("context request ID = %q, want req-123", sawID)
	}
	if rec.Header().Get("X-Request-ID") != "req-123" {
		t.Errorf("response X-Request-ID = %q, want req-123", rec.Header().Get("X-Request-ID"))
	}

	// A missing request ID gets generated.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if sawID == "" || sawID == "req-123" {
		t.Errorf("generated request ID = %q", sawID)
	}
}
