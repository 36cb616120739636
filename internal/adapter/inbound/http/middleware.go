package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rampart-sh/rampart/internal/ctxkey"
	"github.com/rampart-sh/rampart/internal/domain/ratelimit"
	"github.com/rampart-sh/rampart/internal/service"
)

// requestIDContextKey is the type for the request ID context key.
type requestIDContextKey struct{}

// RequestIDKey is the context key for the request ID.
var RequestIDKey = requestIDContextKey{}

// LoggerKey is the context key for the enriched logger.
// Uses shared key type from ctxkey package to allow cross-package access without import cycles.
var LoggerKey = ctxkey.LoggerKey{}

// RequestIDMiddleware extracts or generates a request ID and enriches the logger.
// The request ID is stored in context using RequestIDKey.
// An enriched logger with request_id field is stored using LoggerKey.
func RequestIDMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}

			enrichedLogger := logger.With("request_id", requestID)

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			ctx = context.WithValue(ctx, LoggerKey, enrichedLogger)

			// Set response header for correlation
			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggerFromContext retrieves the enriched logger from context.
// Returns slog.Default() if no logger is in context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// rateLimitErrorBody is the structured 429 response body.
type rateLimitErrorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// RateLimitMiddleware enforces the given category's quota on the wrapped
// handler. Allowed requests proceed with quota headers set on the response;
// denied requests get 429 with Retry-After and a structured error body.
// An unknown category is a route configuration fault and responds 500.
func RateLimitMiddleware(
	limiter *ratelimit.Limiter,
	category string,
	stats *service.StatsService,
	metrics *Metrics,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			decision, err := limiter.Check(category, r.Header)
			if err != nil {
				LoggerFromContext(r.Context()).Error("rate limit check failed",
					"category", category,
					"error", err,
				)
				if stats != nil {
					stats.RecordError()
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			observeCheck(metrics, category, decision.Allowed, start)

			if !decision.Allowed {
				if stats != nil {
					stats.RecordDeny(category)
				}
				writeRateLimited(w, decision)
				return
			}

			if stats != nil {
				stats.RecordAllow(category)
			}
			setQuotaHeaders(w.Header(), decision)
			next.ServeHTTP(w, r)
		})
	}
}

// setQuotaHeaders sets the rate limit headers for an allowed request.
func setQuotaHeaders(h http.Header, d ratelimit.Decision) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", d.ResetAt.UTC().Format(time.RFC3339))
}

// writeRateLimited writes the 429 response for a denied request.
func writeRateLimited(w http.ResponseWriter, d ratelimit.Decision) {
	retryAfter := int(d.RetryAfter.Seconds())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(rateLimitErrorBody{
		Error:      "Rate limit exceeded",
		Message:    "Too many requests, slow down",
		RetryAfter: retryAfter,
	})
}
