package metrics

import (
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}
}

func TestRegistry_Gather(t *testing.T) {
	reg := NewRegistry()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	// Should have go runtime metrics at minimum
	if len(mfs) == 0 {
		t.Error("expected some metrics to be registered")
	}
}

func gatherNames(t *testing.T, reg *Registry) map[string]bool {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	names := make(map[string]bool, len(mfs))
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	return names
}

func TestRegistry_RecordFetch(t *testing.T) {
	reg := NewRegistry()

	reg.RecordFetchAttempt()
	reg.RecordFetchRetry()
	reg.RecordFetchFailure("UPSTREAM_UNREACHABLE")
	reg.RecordFetchDuration(1.2)

	names := gatherNames(t, reg)
	for _, want := range []string{
		"alphatic_fetch_attempts_total",
		"alphatic_fetch_retries_total",
		"alphatic_fetch_failures_total",
		"alphatic_fetch_duration_seconds",
	} {
		if !names[want] {
			t.Errorf("expected metric %s", want)
		}
	}
}

func TestRegistry_RecordCache(t *testing.T) {
	reg := NewRegistry()

	reg.RecordCacheHit()
	reg.RecordCacheMiss()
	reg.SetCacheEntries(3)

	names := gatherNames(t, reg)
	for _, want := range []string{
		"alphatic_cache_hits_total",
		"alphatic_cache_misses_total",
		"alphatic_cache_entries",
	} {
		if !names[want] {
			t.Errorf("expected metric %s", want)
		}
	}
}

func TestRegistry_RecordEngine(t *testing.T) {
	reg := NewRegistry()

	reg.RecordEvaluation("portfolio", "buy")
	reg.RecordVerdict("conflict")
	reg.RecordConsistencyMismatch()
	reg.RecordScan(2.5)

	names := gatherNames(t, reg)
	for _, want := range []string{
		"alphatic_evaluations_total",
		"alphatic_agreement_verdicts_total",
		"alphatic_consistency_mismatches_total",
		"alphatic_scan_duration_seconds",
	} {
		if !names[want] {
			t.Errorf("expected metric %s", want)
		}
	}
}
