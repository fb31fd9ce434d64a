package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "valuecheck"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheLookups   *prometheus.CounterVec
	quotaDecisions *prometheus.CounterVec
	upstreamErrors *prometheus.CounterVec
	fxFallbacks    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Stock cache lookups by result (fresh, stale, miss)",
			},
			[]string{"result"},
		),
		quotaDecisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quota_decisions_total",
				Help:      "Daily ticker quota decisions by outcome",
			},
			[]string{"outcome"},
		),
		upstreamErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_errors_total",
				Help:      "Failed calls to upstream data providers",
			},
			[]string{"provider"},
		),
		fxFallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fx_fallbacks_total",
				Help:      "Currency conversions that fell back to a stale or 1:1 rate",
			},
			[]string{"currency"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordCacheLookup(result string) {
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordQuotaDecision(outcome string) {
	r.quotaDecisions.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordUpstreamError(provider string) {
	r.upstreamErrors.WithLabelValues(provider).Inc()
}

func (r *Recorder) RecordFXFallback(currency string) {
	r.fxFallbacks.WithLabelValues(currency).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordCacheLookup(string)      {}
func (Nop) RecordQuotaDecision(string)    {}
func (Nop) RecordUpstreamError(string)    {}
func (Nop) RecordFXFallback(string)       {}
func (Nop) RecordLatency(string, float64) {}
