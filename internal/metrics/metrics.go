package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "photopipeline"

var (
	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Object keys handled by the dispatcher, by result",
		},
		[]string{"result"},
	)

	ItemDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_duration_seconds",
			Help:      "Time spent processing one object key",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"result"},
	)

	ProcessingErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processing_errors_total",
			Help:      "Cataloged processing failures, by error code",
		},
		[]string{"code"},
	)

	ValidationResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_results_total",
			Help:      "Rule outcomes produced by validation runs",
		},
		[]string{"rule_key", "outcome"},
	)

	FinalizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "participants_finalized_total",
			Help:      "Finalization events published",
		},
	)
)

const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
	ResultSkipped   = "skipped"
)
