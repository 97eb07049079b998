package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venuedesk_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "venuedesk_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// SummaryRepairs counts stored aggregates the reconcile worker found out
	// of sync and rewrote, labelled by aggregate kind.
	SummaryRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venuedesk_summary_repairs_total",
		Help: "Summary rows repaired by the reconciliation worker.",
	}, []string{"aggregate"})

	TxConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "venuedesk_tx_conflicts_total",
		Help: "Transactions that exhausted their conflict retries.",
	})
)
