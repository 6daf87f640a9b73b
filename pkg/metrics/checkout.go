package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the outcome of each checkout step.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	remote   *prometheus.CounterVec
	persist  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	remote := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_remote_submissions_total",
		Help: "Sale request submissions to the commerce platform by outcome.",
	}, []string{"outcome"})
	persist := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_local_records_total",
		Help: "Local order log appends by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, remote, persist)
	return &CheckoutMetrics{
		duration: duration,
		remote:   remote,
		persist:  persist,
	}
}

// ObserveDuration records how long a checkout took for the given result.
func (c *CheckoutMetrics) ObserveDuration(result string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(result)).Observe(duration.Seconds())
}

// IncRemote counts a sale request submission outcome (ok, failed, timeout).
func (c *CheckoutMetrics) IncRemote(outcome string) {
	if c == nil || c.remote == nil {
		return
	}
	c.remote.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncPersist counts a local order log append outcome (ok, failed).
func (c *CheckoutMetrics) IncPersist(outcome string) {
	if c == nil || c.persist == nil {
		return
	}
	c.persist.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
