// Package monitoring exposes Prometheus metrics for the fact-check pipeline.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// analysesTotal counts analyses by terminal status.
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_analyses_total",
		Help: "Total analyses reaching a terminal status",
	}, []string{"status"})

	// stageDuration tracks pipeline stage latency.
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "factcheck_stage_duration_seconds",
		Help:    "Pipeline stage duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
	}, []string{"stage"})

	// softFailures counts collaborator failures absorbed by a default value.
	softFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "factcheck_soft_failures_total",
		Help: "Collaborator failures replaced by a default value",
	}, []string{"collaborator", "class"})

	// breakerState reports circuit breaker state (0 closed, 1 open, 2 half-open).
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "factcheck_circuit_breaker_state",
		Help: "Circuit breaker state by collaborator (0 closed, 1 open, 2 half-open)",
	}, []string{"name"})

	// inFlight tracks analyses currently running.
	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "factcheck_analyses_in_flight",
		Help: "Analyses currently running",
	})
)

// RecordAnalysis counts an analysis that reached status.
func RecordAnalysis(status string) {
	analysesTotal.WithLabelValues(status).Inc()
}

// ObserveStage records how long a stage took since start.
func ObserveStage(stage string, start time.Time) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Soft-failure classes that are not derived from an error value.
const (
	ClassUnconfigured = "unconfigured"
	ClassPanic        = "panic"
)

// RecordSoftFailure counts a failure of collaborator that the pipeline
// absorbed. class is "transient", "permanent", ClassUnconfigured or
// ClassPanic.
func RecordSoftFailure(collaborator, class string) {
	softFailures.WithLabelValues(collaborator, class).Inc()
}

// SetBreakerState publishes the numeric state of the named breaker.
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

// TrackInFlight increments the in-flight gauge and returns its decrement.
func TrackInFlight() func() {
	inFlight.Inc()
	return inFlight.Dec
}
