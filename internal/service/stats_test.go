package service

import (
	"sync"
	"testing"
)

func TestStatsService_Counters(t *testing.T) {
	t.Parallel()

	stats := NewStatsService()
	stats.RecordAllow("api")
	stats.RecordAllow("api")
	stats.RecordAllow("contact")
	stats.RecordDeny("contact")
	stats.RecordError()

	got := stats.GetStats()
	if got.Allowed != 3 {
		t.Errorf("Allowed = %d, want 3", got.Allowed)
	}
	if got.Denied != 1 {
		t.Errorf("Denied = %d, want 1", got.Denied)
	}
	if got.Errors != 1 {
		t.Errorf("Errors = %d, want 1", got.Errors)
	}
	if got.CategoryCounts["api"] != 2 || got.CategoryCounts["contact"] != 2 {
		t.Errorf("CategoryCounts = %v, want api:2 contact:2", got.CategoryCounts)
	}
}

func TestStatsService_Reset(t *testing.T) {
	t.Parallel()

	stats := NewStatsService()
	stats.RecordAllow("api")
	stats.RecordDeny("api")
	stats.Reset()

	got := stats.GetStats()
	if got.Allowed != 0 || got.Denied != 0 || got.Errors != 0 || len(got.CategoryCounts) != 0 {
		t.Errorf("stats after Reset = %+v, want all zero", got)
	}
}

func TestStatsService_ConcurrentRecording(t *testing.T) {
	t.Parallel()

	stats := NewStatsService()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				stats.RecordAllow("api")
				stats.RecordDeny("auth")
			}
		}()
	}
	wg.Wait()

	got := stats.GetStats()
	if got.Allowed != 1000 || got.Denied != 1000 {
		t.Errorf("Allowed/Denied = %d/%d, want 1000/1000", got.Allowed, got.Denied)
	}
	if got.CategoryCounts["api"] != 1000 || got.CategoryCounts["auth"] != 1000 {
		t.Errorf("CategoryCounts = %v, want api:1000 auth:1000", got.CategoryCounts)
	}
}
