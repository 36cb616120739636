package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rampart-sh/rampart/internal/config"
	"github.com/rampart-sh/rampart/internal/domain/identity"
	"github.com/rampart-sh/rampart/internal/domain/ratelimit"
	"github.com/rampart-sh/rampart/internal/domain/violation"
	"github.com/rampart-sh/rampart/internal/service"
)

// adminFixture bundles an APIHandler with the live domain state behind it,
// so tests can drive real limiter checks and observe them via the API.
type adminFixture struct {
	handler    *APIHandler
	limiter    *ratelimit.Limiter
	store      *ratelimit.BucketStore
	violations *violation.Log
	stats      *service.StatsService
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()

	policies, err := ratelimit.NewPolicyTable(ratelimit.DefaultPolicies())
	if err != nil {
		t.Fatalf("NewPolicyTable: %v", err)
	}
	hasher, err := identity.NewHasher("admin-test-salt")
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}

	store := ratelimit.NewBucketStore()
	violations := violation.NewLog(violation.DefaultMaxEntries)
	stats := service.NewStatsService()
	limiter := ratelimit.NewLimiter(policies, store, hasher, violations, nil, slog.New(slog.DiscardHandler))

	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Identity.HashSalt = "admin-test-salt"

	h := NewAPIHandler(
		WithConfig(cfg),
		WithBucketStore(store),
		WithViolationLog(violations),
		WithStatsService(stats),
	)
	return &adminFixture{
		handler:    h,
		limiter:    limiter,
		store:      store,
		violations: violations,
		stats:      stats,
	}
}

// check runs one real limiter decision to populate the store.
func (f *adminFixture) check(t *testing.T, category, ip string) {
	t.Helper()
	h := make(http.Header)
	h.Set("X-Real-IP", ip)
	if _, err := f.limiter.Check(category, h); err != nil {
		t.Fatalf("Check(%q): %v", category, err)
	}
}

func localGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "127.0.0.1:4321"
	return req
}

func TestHandleListViolations(t *testing.T) {
	f := newAdminFixture(t)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		f.violations.Record(violation.Record{
			IdentityHash:   "9fd4c3b6a1e20587",
			Category:       "contact",
			Timestamp:      base.Add(time.Duration(i) * time.Minute),
			ViolationCount: i + 1,
		})
	}

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, localGet("/admin/api/violations?limit=3"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp violationsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 3 {
		t.Fatalf("count = %d, want 3", resp.Count)
	}
	// Newest first.
	if resp.Violations[0].ViolationCount != 5 {
		t.Errorf("first record streak = %d, want 5", resp.Violations[0].ViolationCount)
	}
}

func TestHandleListViolations_SinceFilter(t *testing.T) {
	f := newAdminFixture(t)
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		f.violations.Record(violation.Record{
			IdentityHash: "9fd4c3b6a1e20587",
			Category:     "auth",
			Timestamp:    base.Add(time.Duration(i) * time.Hour),
		})
	}

	since := base.Add(2 * time.Hour).Format(time.RFC3339)
	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, localGet("/admin/api/violations?since="+since))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp violationsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2 (records at or after the cutoff)", resp.Count)
	}
}

func TestHandleListViolations_BadParams(t *testing.T) {
	f := newAdminFixture(t)

	for _, path := range []string{
		"/admin/api/violations?limit=0",
		"/admin/api/violations?limit=abc",
		"/admin/api/violations?since=yesterday",
	} {
		rec := httptest.NewRecorder()
		f.handler.Routes().ServeHTTP(rec, localGet(path))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestHandleListViolations_Empty(t *testing.T) {
	f := newAdminFixture(t)

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, localGet("/admin/api/violations"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// Empty log must serialize as [], not null.
	if !strings.Contains(rec.Body.String(), `"violations":[]`) {
		t.Errorf("body = %s, want empty array", rec.Body.String())
	}
}

func TestHandleListBuckets(t *testing.T) {
	f := newAdminFixture(t)

	f.check(t, "api", "198.51.100.30")
	f.check(t, "api", "198.51.100.31")

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, localGet("/admin/api/buckets"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp bucketsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}
	for _, b := range resp.Buckets {
		if b.Category != "api" {
			t.Errorf("category = %q, want api", b.Category)
		}
		if b.Tokens != 59 {
			t.Errorf("tokens = %v, want 59", b.Tokens)
		}
	}
}

func TestHandleGetStats(t *testing.T) {
	f := newAdminFixture(t)

	f.stats.RecordAllow("api")
	f.stats.RecordAllow("api")
	f.stats.RecordDeny("contact")
	f.stats.RecordError()

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, localGet("/admin/api/stats"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp statsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Allowed != 2 || resp.Denied != 1 || resp.Errors != 1 {
		t.Errorf("counters = %+v", resp)
	}
	if resp.CategoryCounts["api"] != 2 || resp.CategoryCounts["contact"] != 1 {
		t.Errorf("category counts = %v", resp.CategoryCounts)
	}
}

func TestHandleGetConfig_RedactsSalt(t *testing.T) {
	f := newAdminFixture(t)

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, localGet("/admin/api/config"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "admin-test-salt") {
		t.Error("config export must not leak the hash salt")
	}
	if !strings.Contains(body, "[redacted]") {
		t.Error("config export should mark redacted secrets")
	}
	if !strings.Contains(body, "categories:") {
		t.Errorf("config export missing categories section: %s", body)
	}
}

func TestHandleReset(t *testing.T) {
	f := newAdminFixture(t)

	f.check(t, "contact", "198.51.100.32")
	f.violations.Record(violation.Record{IdentityHash: "9fd4c3b6a1e20587", Category: "contact", Timestamp: time.Now()})
	f.stats.RecordDeny("contact")

	req := httptest.NewRequest(http.MethodPost, "/admin/api/reset", nil)
	req.RemoteAddr = "127.0.0.1:4321"
	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if f.store.Len() != 0 {
		t.Errorf("f.store.Len() = %d after reset, want 0", f.store.Len())
	}
	if f.violations.Len() != 0 {
		t.Errorf("f.violations.Len() = %d after reset, want 0", f.violations.Len())
	}
	if got := f.stats.GetStats(); got.Denied != 0 {
		t.Errorf("stats.Denied = %d after reset, want 0", got.Denied)
	}
}

func TestHandleSystemInfo(t *testing.T) {
	f := newAdminFixture(t)
	f.handler.buildInfo = &BuildInfo{Version: "1.2.3", Commit: "abc1234", BuildDate: "2026-08-30"}

	rec := httptest.NewRecorder()
	f.handler.Routes().ServeHTTP(rec, localGet("/admin/api/system"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp systemInfoResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Version != "1.2.3" || resp.Commit != "abc1234" {
		t.Errorf("build info = %+v", resp)
	}
	if resp.GoVersion == "" {
		t.Error("go_version missing")
	}
}
