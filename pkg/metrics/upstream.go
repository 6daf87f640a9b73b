package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics observes calls made to the remote commerce platform.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

// NewUpstreamMetrics registers the upstream metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of commerce platform calls in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 10},
	}, []string{"operation", "outcome"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Catalog cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(duration, cache)
	return &UpstreamMetrics{duration: duration, cache: cache}
}

// Observe records one upstream call.
func (u *UpstreamMetrics) Observe(operation, outcome string, duration time.Duration) {
	if u == nil || u.duration == nil {
		return
	}
	u.duration.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncCache counts a catalog cache hit or miss.
func (u *UpstreamMetrics) IncCache(result string) {
	if u == nil || u.cache == nil {
		return
	}
	u.cache.WithLabelValues(normalizeLabel(result)).Inc()
}
