package admin

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rampart-sh/rampart/internal/domain/ratelimit"
	"github.com/rampart-sh/rampart/internal/domain/violation"
)

const defaultViolationLimit = 100

// violationsResponse is the JSON response for GET /admin/api/violations.
type violationsResponse struct {
	Violations []violation.Record `json:"violations"`
	Count      int                `json:"count"`
}

// handleListViolations returns recent violation records, newest first.
// GET /admin/api/violations?limit=50&since=2026-08-30T00:00:00Z
func (h *APIHandler) handleListViolations(w http.ResponseWriter, r *http.Request) {
	if h.violations == nil {
		h.respondError(w, http.StatusServiceUnavailable, "violation log not configured")
		return
	}

	limit := defaultViolationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "since must be an RFC3339 timestamp")
			return
		}
		since = t
	}

	records := h.violations.Query(limit, since)
	if records == nil {
		records = []violation.Record{}
	}
	h.respondJSON(w, http.StatusOK, violationsResponse{
		Violations: records,
		Count:      len(records),
	})
}

// bucketsResponse is the JSON response for GET /admin/api/buckets.
type bucketsResponse struct {
	Buckets []ratelimit.BucketStatus `json:"buckets"`
	Count   int                      `json:"count"`
}

// handleListBuckets returns a point-in-time snapshot of all tracked buckets.
// GET /admin/api/buckets
func (h *APIHandler) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.respondError(w, http.StatusServiceUnavailable, "bucket store not configured")
		return
	}

	snapshot := h.store.Snapshot()
	if snapshot == nil {
		snapshot = []ratelimit.BucketStatus{}
	}
	h.respondJSON(w, http.StatusOK, bucketsResponse{
		Buckets: snapshot,
		Count:   len(snapshot),
	})
}

// statsResponse is the JSON response for GET /admin/api/stats.
type statsResponse struct {
	Allowed        int64            `json:"allowed"`
	Denied         int64            `json:"denied"`
	Errors         int64            `json:"errors"`
	CategoryCounts map[string]int64 `json:"category_counts"`
	TrackedBuckets int              `json:"tracked_buckets"`
	ViolationCount int              `json:"violation_count"`
}

// handleGetStats returns decision counters plus live store sizes.
// GET /admin/api/stats
func (h *APIHandler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		CategoryCounts: make(map[string]int64),
	}

	if h.stats != nil {
		stats := h.stats.GetStats()
		resp.Allowed = stats.Allowed
		resp.Denied = stats.Denied
		resp.Errors = stats.Errors
		if stats.CategoryCounts != nil {
			resp.CategoryCounts = stats.CategoryCounts
		}
	}
	if h.store != nil {
		resp.TrackedBuckets = h.store.Len()
	}
	if h.violations != nil {
		resp.ViolationCount = h.violations.Len()
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// systemInfoResponse is the JSON response for GET /admin/api/system.
type systemInfoResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Uptime    string `json:"uptime"`
	UptimeSec int64  `json:"uptime_seconds"`
}

// handleSystemInfo returns version and runtime information.
// GET /admin/api/system
func (h *APIHandler) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)

	version := "dev"
	commit := "none"
	buildDate := "unknown"
	if h.buildInfo != nil {
		version = h.buildInfo.Version
		commit = h.buildInfo.Commit
		buildDate = h.buildInfo.BuildDate
	}

	h.respondJSON(w, http.StatusOK, systemInfoResponse{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Uptime:    uptime.Truncate(time.Second).String(),
		UptimeSec: int64(uptime.Seconds()),
	})
}

// handleGetConfig returns the running configuration as YAML with secrets
// redacted.
// GET /admin/api/config
func (h *APIHandler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if h.cfg == nil {
		h.respondError(w, http.StatusServiceUnavailable, "config not available")
		return
	}

	redacted := h.cfg.Redacted()
	data, err := yaml.Marshal(redacted)
	if err != nil {
		h.logger.Error("failed to marshal config", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to marshal config")
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// resetResponse is the JSON response for POST /admin/api/reset.
type resetResponse struct {
	Status         string `json:"status"`
	BucketsCleared bool   `json:"buckets_cleared"`
	ViolationsWere int    `json:"violations_cleared"`
}

// handleReset clears all buckets, violation history, and counters.
// Every tracked identity starts fresh at full capacity afterwards.
// POST /admin/api/reset
func (h *APIHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	resp := resetResponse{Status: "ok"}

	if h.store != nil {
		h.store.Clear()
		resp.BucketsCleared = true
	}
	if h.violations != nil {
		resp.ViolationsWere = h.violations.Len()
		h.violations.Clear()
	}
	if h.stats != nil {
		h.stats.Reset()
	}

	h.logger.Info("admin reset executed",
		"violations_cleared", resp.ViolationsWere)
	h.respondJSON(w, http.StatusOK, resp)
}
