// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultCanceled = "canceled"
)

var (
	// OracleRequests counts oracle evaluations by result
	OracleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chessreview_oracle_requests_total",
		Help: "Total oracle evaluations by result",
	}, []string{"result"})

	OracleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chessreview_oracle_duration_seconds",
		Help:    "Oracle evaluation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~30s
	})

	// StaleResults counts evaluations discarded because a newer game was loaded
	StaleResults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chessreview_stale_results_total",
		Help: "Evaluations discarded after their game was superseded",
	})

	Loads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chessreview_loads_total",
		Help: "Game loads by result",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
