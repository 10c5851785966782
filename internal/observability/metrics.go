// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	PricesFetched     *prometheus.CounterVec
	FetchErrors       *prometheus.CounterVec
	RecordsInserted   prometheus.Counter
	DuplicatesSkipped prometheus.Counter
	StorageErrors     prometheus.Counter

	// Poller metrics
	PollCycles         prometheus.Counter
	LastSuccessfulPoll prometheus.Gauge

	// Backfill metrics
	BackfillRuns     prometheus.Counter
	BackfillDuration prometheus.Histogram

	// Forecast metrics
	ForecastsComputed *prometheus.CounterVec
	ForecastNoData    prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "coin_tracker"
	}

	return &Metrics{
		PricesFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "prices_fetched_total",
			Help:      "Total number of prices fetched from the upstream feed",
		}, []string{"symbol"}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fetch_errors_total",
			Help:      "Total number of upstream feed errors",
		}, []string{"symbol"}),
		RecordsInserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_inserted_total",
			Help:      "Total number of price records newly inserted",
		}),
		DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "duplicates_skipped_total",
			Help:      "Total number of already-present records skipped on insert",
		}),
		StorageErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "storage_errors_total",
			Help:      "Total number of storage write failures",
		}),
		PollCycles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycles_total",
			Help:      "Total number of completed poll cycles",
		}),
		LastSuccessfulPoll: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last successful price insert",
		}),
		BackfillRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backfill",
			Name:      "runs_total",
			Help:      "Total number of backfill runs",
		}),
		BackfillDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backfill",
			Name:      "duration_seconds",
			Help:      "Duration of backfill runs",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		ForecastsComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "computed_total",
			Help:      "Total number of forecasts computed",
		}, []string{"symbol"}),
		ForecastNoData: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "no_data_total",
			Help:      "Total number of forecast requests with an empty input window",
		}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
