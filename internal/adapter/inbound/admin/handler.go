// Package admin provides the JSON API for operating a running rampart
// instance: violation history, live bucket state, decision counters,
// and full state reset.
package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rampart-sh/rampart/internal/config"
	"github.com/rampart-sh/rampart/internal/domain/ratelimit"
	"github.com/rampart-sh/rampart/internal/domain/violation"
	"github.com/rampart-sh/rampart/internal/service"
)

// BuildInfo holds build-time version information.
// Injected via WithBuildInfo option to avoid import cycles with cmd package.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// APIHandler provides JSON API endpoints for the admin interface.
type APIHandler struct {
	cfg        *config.Config
	store      *ratelimit.BucketStore
	violations *violation.Log
	stats      *service.StatsService
	buildInfo  *BuildInfo
	logger     *slog.Logger
	startTime  time.Time
}

// APIOption configures an APIHandler dependency.
type APIOption func(*APIHandler)

// WithConfig sets the loaded configuration, exported (redacted) by
// GET /admin/api/config.
func WithConfig(cfg *config.Config) APIOption {
	return func(h *APIHandler) { h.cfg = cfg }
}

// WithBucketStore sets the live bucket store.
func WithBucketStore(s *ratelimit.BucketStore) APIOption {
	return func(h *APIHandler) { h.store = s }
}

// WithViolationLog sets the violation history log.
func WithViolationLog(l *violation.Log) APIOption {
	return func(h *APIHandler) { h.violations = l }
}

// WithStatsService sets the stats service for decision counters.
func WithStatsService(s *service.StatsService) APIOption {
	return func(h *APIHandler) { h.stats = s }
}

// WithBuildInfo sets the build version information.
func WithBuildInfo(info *BuildInfo) APIOption {
	return func(h *APIHandler) { h.buildInfo = info }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) APIOption {
	return func(h *APIHandler) { h.logger = l }
}

// NewAPIHandler creates a new APIHandler with the given options.
func NewAPIHandler(opts ...APIOption) *APIHandler {
	h := &APIHandler{
		logger:    slog.Default(),
		startTime: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns an http.Handler with all admin API routes registered.
// Auth status endpoint is accessible without auth middleware; everything
// else requires localhost or a valid bearer token.
func (h *APIHandler) Routes() http.Handler {
	mux := http.NewServeMux()

	// Auth status - NOT protected by auth middleware (informational).
	mux.HandleFunc("GET /admin/api/auth/status", h.handleAuthStatus)

	// All other routes are registered on a separate mux wrapped with auth middleware.
	protectedMux := http.NewServeMux()

	protectedMux.HandleFunc("GET /admin/api/violations", h.handleListViolations)
	protectedMux.HandleFunc("GET /admin/api/buckets", h.handleListBuckets)
	protectedMux.HandleFunc("GET /admin/api/stats", h.handleGetStats)
	protectedMux.HandleFunc("GET /admin/api/system", h.handleSystemInfo)
	protectedMux.HandleFunc("GET /admin/api/config", h.handleGetConfig)
	protectedMux.HandleFunc("POST /admin/api/reset", h.handleReset)

	mux.Handle("/admin/api/", h.authMiddleware(protectedMux))

	return mux
}

// --- JSON helper methods ---

// respondJSON writes a JSON response with the given status code and data.
func (h *APIHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a JSON error response with the given status code and message.
func (h *APIHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
