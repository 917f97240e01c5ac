// Package metrics exposes Prometheus metrics for observability of sync runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncTotal tracks the number of sync steps per resource type and result.
	// Labels: resource_type (role, functions, gateway, triggers, alerting), result (success, error)
	SyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "node_deploy_sync_total",
			Help: "Total number of sync steps per resource type and result",
		},
		[]string{"resource_type", "result"},
	)

	// SyncDuration tracks the duration of sync steps in seconds.
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "node_deploy_sync_duration_seconds",
			Help:    "Duration of sync steps in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource_type"},
	)
)

// ObserveSync records one sync step outcome.
func ObserveSync(resourceType string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SyncTotal.WithLabelValues(resourceType, result).Inc()
	SyncDuration.WithLabelValues(resourceType).Observe(time.Since(start).Seconds())
}
