package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "freightdesk")

	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()
	m.Fetched(OutcomeSuccess, 20*time.Millisecond)
	m.Fetched(OutcomeError, time.Second)
	m.Fetched(OutcomeSuccess, 5*time.Millisecond)
	m.TransformFailed(3)
	m.TransformFailed(0)

	if got := testutil.ToFloat64(m.CacheHits); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheMisses); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Fetches.WithLabelValues(OutcomeSuccess)); got != 2 {
		t.Errorf("successful fetches = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TransformFailures); got != 3 {
		t.Errorf("transform failures = %v, want 3", got)
	}

	n, err := testutil.GatherAndCount(reg, "freightdesk_fetch_duration_seconds")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.CacheHit()
	m.CacheMiss()
	m.Fetched(OutcomeStale, time.Millisecond)
	m.TransformFailed(1)
}

func TestNew_Unregistered(t *testing.T) {
	// Two sets with the same names must not collide when no registry is given.
	a := New(nil, "x")
	b := New(nil, "x")
	a.CacheHit()
	if testutil.ToFloat64(b.CacheHits) != 0 {
		t.Error("unregistered metric sets should be independent")
	}
}
