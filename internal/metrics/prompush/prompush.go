// Package prompush implements a Prometheus Pushgateway backend for the
// internal/metrics package. Unlike the Datadog backend it does not buffer
// raw samples itself: measurements go straight into Prometheus collectors
// and Flush pushes the registry to the gateway.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ChronoBoot/loan-score/internal/metrics"
)

// Backend implements metrics.Backend against a Pushgateway.
type Backend struct {
	pusher *push.Pusher

	steps     *prometheus.CounterVec
	records   *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewBackend registers the pipeline collectors and targets the given
// gateway. job becomes the Pushgateway grouping key.
func NewBackend(job, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if job == "" {
		job = "loanscore"
	}

	reg := prometheus.NewRegistry()

	b := &Backend{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loanscore_step_total",
			Help: "Pipeline step executions.",
		}, []string{"step"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loanscore_records_total",
			Help: "Records processed per pipeline step.",
		}, []string{"step"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loanscore_step_duration_seconds",
			Help:    "Pipeline step durations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"step"}),
	}

	for _, c := range []prometheus.Collector{b.steps, b.records, b.durations} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register: %w", err)
		}
	}

	b.pusher = push.New(gatewayURL, job).Gatherer(reg)
	return b, nil
}

// IncStep implements metrics.Backend.
func (b *Backend) IncStep(step string) {
	if step == "" {
		return
	}
	b.steps.WithLabelValues(step).Inc()
}

// AddRecords implements metrics.Backend.
func (b *Backend) AddRecords(step string, n float64) {
	if step == "" || n <= 0 {
		return
	}
	b.records.WithLabelValues(step).Add(n)
}

// ObserveDuration implements metrics.Backend.
func (b *Backend) ObserveDuration(step string, seconds float64) {
	if step == "" || seconds < 0 {
		return
	}
	b.durations.WithLabelValues(step).Observe(seconds)
}

// Flush pushes the registry to the gateway. Add (not Push) is used so other
// jobs sharing the grouping key are left alone.
func (b *Backend) Flush() error {
	return b.pusher.Add()
}

var _ metrics.Backend = (*Backend)(nil)
