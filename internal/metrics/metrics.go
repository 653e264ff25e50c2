// Package metrics records chart computation, cache and API activity in a
// private Prometheus registry.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "astrolabe"

// Recorder holds the collectors. Each Recorder owns its registry so several
// can coexist in one process, as they do in tests.
type Recorder struct {
	registry *prometheus.Registry

	computations  *prometheus.CounterVec
	computeTime   *prometheus.HistogramVec
	unresolved    *prometheus.CounterVec
	houseFailures *prometheus.CounterVec
	cache         *prometheus.CounterVec
	requests      *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		computations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_computed_total",
			Help:      "Charts computed, by house system.",
		}, []string{"house_system"}),
		computeTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chart_compute_duration_seconds",
			Help:      "Time spent computing a chart snapshot.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"house_system"}),
		unresolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bodies_resolved_total",
			Help:      "Bodies the ephemeris did or did not resolve.",
		}, []string{"outcome"}),
		houseFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "house_failures_total",
			Help:      "House cusp computations that failed, by house system.",
		}, []string{"house_system"}),
		cache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_lookups_total",
			Help:      "Snapshot cache lookups by backend and result.",
		}, []string{"backend", "result"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveComputation records one snapshot computation. houseErr is the
// house failure, nil when cusps were produced or no system was set.
func (r *Recorder) ObserveComputation(system string, elapsed time.Duration, resolved, unresolved int, houseErr error) {
	if r == nil {
		return
	}
	r.computations.WithLabelValues(system).Inc()
	r.computeTime.WithLabelValues(system).Observe(elapsed.Seconds())
	r.unresolved.WithLabelValues("resolved").Add(float64(resolved))
	r.unresolved.WithLabelValues("unresolved").Add(float64(unresolved))
	if houseErr != nil {
		r.houseFailures.WithLabelValues(system).Inc()
	}
}

// CacheLookup records a snapshot cache hit or miss for backend.
func (r *Recorder) CacheLookup(backend string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cache.WithLabelValues(backend, result).Inc()
}

// ObserveRequest records one served HTTP request.
func (r *Recorder) ObserveRequest(route string, code int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(route, fmt.Sprint(code)).Inc()
	r.requestTime.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values to path in the node_exporter
// textfile format. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
