// Package monitoring exposes Prometheus metrics for estimate traffic.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"quizcost/core/types"
)

// Outcome labels
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Fixed labels for requests rejected before a strategy or path is known.
// Client-supplied names never become label values.
const (
	LabelUnknown    = "unknown"
	StrategyCompare = "compare"
)

var (
	EstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizcost_estimates_total",
			Help: "Total number of estimate requests",
		},
		[]string{"strategy", "path", "outcome"},
	)

	EstimateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quizcost_estimate_duration_seconds",
			Help:    "Time spent serving an estimate",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"path"},
	)

	BillingTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quizcost_estimated_billing_tokens",
			Help:    "Distribution of estimated billing tokens",
			Buckets: []float64{1, 3, 5, 10, 25, 50, 100, 250, 1000},
		},
		[]string{"strategy"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizcost_cache_lookups_total",
			Help: "Estimate cache lookups by result",
		},
		[]string{"result"},
	)

	ConfigVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quizcost_config_version",
			Help: "Version of the active estimation config snapshot",
		},
	)

	ConfigUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quizcost_config_updates_total",
			Help: "Total number of applied config updates",
		},
	)
)

// Metrics records estimate metrics when enabled
type Metrics struct {
	enabled bool
}

// New creates a recorder; a disabled recorder drops everything
func New(enabled bool) *Metrics {
	return &Metrics{
		enabled: enabled,
	}
}

func (m *Metrics) isEnabled() bool {
	return m != nil && m.enabled
}

// RecordEstimate records one served estimate. path is "text" or "document".
func (m *Metrics) RecordEstimate(path string, result types.EstimationResult, duration time.Duration) {
	if !m.isEnabled() {
		return
	}
	EstimatesTotal.WithLabelValues(result.Strategy, path, OutcomeOK).Inc()
	EstimateDuration.WithLabelValues(path).Observe(duration.Seconds())
	BillingTokens.WithLabelValues(result.Strategy).Observe(float64(result.EstimatedBillingTokens))
}

// RecordRejected records a request that failed before estimation
func (m *Metrics) RecordRejected(strategy, path string) {
	if !m.isEnabled() {
		return
	}
	EstimatesTotal.WithLabelValues(strategy, path, OutcomeError).Inc()
}

// RecordCacheLookup records a cache hit or miss
func (m *Metrics) RecordCacheLookup(hit bool) {
	if !m.isEnabled() {
		return
	}
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
	} else {
		CacheLookups.WithLabelValues("miss").Inc()
	}
}

// SetConfigVersion publishes the active snapshot version
func (m *Metrics) SetConfigVersion(version uint64) {
	if !m.isEnabled() {
		return
	}
	ConfigVersion.Set(float64(version))
}

// RecordConfigUpdate records an applied update and the resulting version
func (m *Metrics) RecordConfigUpdate(version uint64) {
	if !m.isEnabled() {
		return
	}
	ConfigUpdatesTotal.Inc()
	ConfigVersion.Set(float64(version))
}
