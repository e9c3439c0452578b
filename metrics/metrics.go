// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkflowRuns counts workflow invocations by name.
	WorkflowRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netops",
		Name:      "workflow_runs_total",
		Help:      "Orchestration workflow invocations.",
	}, []string{"workflow"})

	// DeviceSyncs counts per-entity device-side sync attempts by result.
	DeviceSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netops",
		Name:      "device_syncs_total",
		Help:      "Per-entity device synchronization attempts.",
	}, []string{"workflow", "result"})

	// WorkflowDuration observes full batch run time.
	WorkflowDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "netops",
		Name:      "workflow_duration_seconds",
		Help:      "Orchestration workflow batch duration.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"workflow"})
)

// ObserveSync records one element outcome.
func ObserveSync(workflow string, synced bool) {
	result := "ok"
	if !synced {
		result = "server_only"
	}
	DeviceSyncs.WithLabelValues(workflow, result).Inc()
}
