package http

import (
	"github.com/rampart-sh/rampart/internal/domain/ratelimit"
	"github.com/rampart-sh/rampart/internal/domain/violation"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`            // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`            // Component check results
	Version string            `json:"version,omitempty"` // Optional version info
}

// SweeperStatus reports whether the background sweeper is active.
type SweeperStatus interface {
	Running() bool
}

// HealthChecker verifies component health.
type HealthChecker struct {
	store      *ratelimit.BucketStore
	violations *violation.Log
	sweeper    SweeperStatus
	version    string
}

// NewHealthChecker creates a HealthChecker with optional components.
// Pass nil for components that aren't available.
func NewHealthChecker(store *ratelimit.BucketStore, violations *violation.Log, sweeper SweeperStatus, version string) *HealthChecker {
	return &HealthChecker{
		store:      store,
		violations: violations,
		sweeper:    sweeper,
		version:    version,
	}
}

// Check performs health checks on all components.
func (h *HealthChecker) Check() HealthResponse {
	checks := make(map[string]string)

	// Len() acquires the store lock - if this hangs, we have a problem.
	if h.store != nil {
		_ = h.store.Len()
		checks["bucket_store"] = "ok"
	} else {
		checks["bucket_store"] = "not configured"
	}

	if h.violations != nil {
		_ = h.violations.Len()
		checks["violation_log"] = "ok"
	} else {
		checks["violation_log"] = "not configured"
	}

	switch {
	case h.sweeper == nil:
		checks["sweeper"] = "not configured"
	case h.sweeper.Running():
		checks["sweeper"] = "ok"
	default:
		checks["sweeper"] = "stopped"
	}

	return HealthResponse{
		Status:  "healthy",
		Checks:  checks,
		Version: h.version,
	}
}
