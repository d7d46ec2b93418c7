// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sitebook"

var (
	PersistenceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persistence_errors_total",
		Help:      "Database operations that failed, by collection and operation.",
	}, []string{"collection", "op"})

	RequestStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "material_request_status_changes_total",
		Help:      "Material request status transitions, by new status.",
	}, []string{"status"})

	ReconciledRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciled_tracking_rows_total",
		Help:      "Tracking row updates made on approval, by outcome (applied, failed).",
	}, []string{"outcome"})

	SkippedItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_skipped_items_total",
		Help:      "Approved request lines that changed no tracking row, by reason.",
	}, []string{"reason"})

	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Image uploads, by storage driver and outcome.",
	}, []string{"driver", "outcome"})
)
