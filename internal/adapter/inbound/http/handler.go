package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rampart-sh/rampart/internal/domain/ratelimit"
	"github.com/rampart-sh/rampart/internal/service"
)

// CheckResponse is the JSON decision returned by POST /v1/check/{category}.
type CheckResponse struct {
	Allowed           bool   `json:"allowed"`
	Limit             int    `json:"limit"`
	Remaining         int    `json:"remaining"`
	ResetAt           string `json:"reset_at"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// Handler is the public HTTP surface: the check endpoint for sidecar-style
// callers, health, and Prometheus metrics.
type Handler struct {
	limiter *ratelimit.Limiter
	stats   *service.StatsService
	metrics *Metrics
	health  *HealthChecker
	logger  *slog.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(
	limiter *ratelimit.Limiter,
	stats *service.StatsService,
	metrics *Metrics,
	health *HealthChecker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		limiter: limiter,
		stats:   stats,
		metrics: metrics,
		health:  health,
		logger:  logger,
	}
}

// Routes registers the public endpoints on the mux.
func (h *Handler) Routes(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.HandleFunc("POST /v1/check/{category}", h.handleCheck)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

// handleCheck runs one rate limit decision and returns it as JSON.
// The decision consumes a token: this endpoint is the enforcement point for
// callers that apply the verdict themselves (e.g., an edge proxy).
func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	start := time.Now()

	decision, err := h.limiter.Check(category, r.Header)
	if err != nil {
		// Unknown category: a configuration fault in the caller's
		// routing, surfaced loudly rather than handled per request.
		LoggerFromContext(r.Context()).Error("rate limit check failed",
			"category", category,
			"error", err,
		)
		h.stats.RecordError()
		http.Error(w, "unknown rate limit category", http.StatusInternalServerError)
		return
	}
	observeCheck(h.metrics, category, decision.Allowed, start)
	h.updateGauges()

	resp := CheckResponse{
		Allowed:   decision.Allowed,
		Limit:     decision.Limit,
		Remaining: decision.Remaining,
		ResetAt:   decision.ResetAt.UTC().Format(time.RFC3339),
	}

	if !decision.Allowed {
		h.stats.RecordDeny(category)
		resp.RetryAfterSeconds = int(decision.RetryAfter.Seconds())
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", strconv.Itoa(resp.RetryAfterSeconds))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	h.stats.RecordAllow(category)
	setQuotaHeaders(w.Header(), decision)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleHealth returns component health as JSON.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := h.health.Check()
	w.Header().Set("Content-Type", "application/json")
	if resp.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// updateGauges refreshes the store and violation log size gauges.
func (h *Handler) updateGauges() {
	if h.metrics == nil {
		return
	}
	h.metrics.TrackedBuckets.Set(float64(h.limiter.Store().Len()))
	h.metrics.ViolationLogSize.Set(float64(h.limiter.Violations().Len()))
}
