// Package metrics exposes Prometheus collectors for the query store.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	// OutcomeStale marks a successful response that arrived after a newer
	// request was issued and so was cached but not shown.
	OutcomeStale = "stale"
)

// Metrics holds the query store collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	Fetches           *prometheus.CounterVec
	TransformFailures prometheus.Counter
	FetchDuration     prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Page requests served from the page cache",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Page requests that required a backend fetch",
		}),
		Fetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Backend list fetches by outcome",
		}, []string{"outcome"}),
		TransformFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_failures_total",
			Help:      "Records replaced by an error placeholder",
		}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of backend list fetches",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

// Fetched records one completed fetch.
func (m *Metrics) Fetched(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(took.Seconds())
}

func (m *Metrics) TransformFailed(n int) {
	if m != nil && n > 0 {
		m.TransformFailures.Add(float64(n))
	}
}
