package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PassesTotal counts scheduler passes, labeled by outcome.
	PassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bioshield",
			Name:      "scheduler_passes_total",
			Help:      "Total number of scheduled pipeline passes",
		},
		[]string{"outcome"},
	)

	// VulnerabilitiesImported counts new records persisted by ingestion.
	VulnerabilitiesImported = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bioshield",
			Name:      "vulnerabilities_imported_total",
			Help:      "Total number of vulnerabilities imported from the feed",
		},
	)

	// VulnerabilitiesClassified counts records classified and persisted.
	VulnerabilitiesClassified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bioshield",
			Name:      "vulnerabilities_classified_total",
			Help:      "Total number of vulnerabilities classified",
		},
	)

	// ClassificationErrors counts per-item classification failures that were
	// logged and skipped.
	ClassificationErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bioshield",
			Name:      "classification_errors_total",
			Help:      "Total number of per-item classification failures",
		},
	)

	// TrendUpserts counts trend rows written by the aggregator.
	TrendUpserts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bioshield",
			Name:      "trend_upserts_total",
			Help:      "Total number of trend rows created or updated",
		},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(PassesTotal)
		prometheus.DefaultRegisterer.Register(VulnerabilitiesImported)
		prometheus.DefaultRegisterer.Register(VulnerabilitiesClassified)
		prometheus.DefaultRegisterer.Register(ClassificationErrors)
		prometheus.DefaultRegisterer.Register(TrendUpserts)
	})
}
