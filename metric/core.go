// Package metric provides Prometheus-based metrics collection for the
// assembly pipeline.
//
// A MetricsRegistry manages core assembly metrics (elements assembled,
// commit counts by policy, scatter volume) plus custom metrics registered by
// individual components through the MetricsRegistrar interface. Metric
// recording is lock-free; registration is mutex protected.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the core assembly-level metrics.
type Metrics struct {
	// Element loop metrics
	ElementsAssembled *prometheus.CounterVec
	AssembleDuration  *prometheus.HistogramVec

	// Tagged commit metrics
	ResidualCommits *prometheus.CounterVec
	JacobianCommits *prometheus.CounterVec

	// Scatter metrics
	EntriesScattered *prometheus.CounterVec

	// Tagging state
	ActiveTags *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all core assembly metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ElementsAssembled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "moose",
				Subsystem: "assembly",
				Name:      "elements_total",
				Help:      "Total number of elements assembled",
			},
			[]string{"operation"}, // operation: residual, jacobian
		),

		AssembleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "moose",
				Subsystem: "assembly",
				Name:      "duration_seconds",
				Help:      "Element assembly duration in seconds",
				Buckets:   []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 1e-1},
			},
			[]string{"operation"},
		),

		ResidualCommits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "moose",
				Subsystem: "tagging",
				Name:      "residual_commits_total",
				Help:      "Total residual commits into tagged destination blocks",
			},
			[]string{"component", "policy"}, // policy: accumulate, assign
		),

		JacobianCommits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "moose",
				Subsystem: "tagging",
				Name:      "jacobian_commits_total",
				Help:      "Total Jacobian commits into tagged destination blocks",
			},
			[]string{"component", "policy"},
		),

		EntriesScattered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "moose",
				Subsystem: "assembly",
				Name:      "entries_scattered_total",
				Help:      "Total entries scattered into tagged global containers",
			},
			[]string{"operation"},
		),

		ActiveTags: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "moose",
				Subsystem: "tagging",
				Name:      "active_tags",
				Help:      "Number of active tags per component and namespace",
			},
			[]string{"component", "namespace"}, // namespace: vector, matrix
		),
	}
}

// RecordElementAssembled increments the element counter for an operation.
func (m *Metrics) RecordElementAssembled(operation string) {
	m.ElementsAssembled.WithLabelValues(operation).Inc()
}

// ObserveAssembleDuration records the duration of one element assembly.
func (m *Metrics) ObserveAssembleDuration(operation string, seconds float64) {
	m.AssembleDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordResidualCommit counts one residual commit with the given policy.
func (m *Metrics) RecordResidualCommit(component, policy string, blocks int) {
	m.ResidualCommits.WithLabelValues(component, policy).Add(float64(blocks))
}

// RecordJacobianCommit counts one Jacobian commit with the given policy.
func (m *Metrics) RecordJacobianCommit(component, policy string, blocks int) {
	m.JacobianCommits.WithLabelValues(component, policy).Add(float64(blocks))
}

// RecordEntriesScattered counts entries pushed into global containers.
func (m *Metrics) RecordEntriesScattered(operation string, n int) {
	m.EntriesScattered.WithLabelValues(operation).Add(float64(n))
}

// RecordActiveTags records the active tag count for a component namespace.
func (m *Metrics) RecordActiveTags(component, namespace string, n int) {
	m.ActiveTags.WithLabelValues(component, namespace).Set(float64(n))
}
