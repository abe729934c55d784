// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileshare_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fileshare_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// UploadsTotal result: ok, too_large, store_failed, record_failed.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileshare_uploads_total",
			Help: "Upload attempts by outcome.",
		},
		[]string{"result"},
	)

	// DeletionsTotal result: ok, not_found, store_failed, record_failed.
	DeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileshare_deletions_total",
			Help: "Delete attempts by outcome.",
		},
		[]string{"result"},
	)

	// OrphansTotal kind: blob (stored bytes with no record) or record
	// (record whose bytes are gone).
	OrphansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileshare_orphans_total",
			Help: "Store/metadata inconsistencies detected.",
		},
		[]string{"kind"},
	)

	OrphansSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fileshare_orphans_swept_total",
			Help: "Orphaned blobs removed by the reconciler.",
		},
	)

	ReconcileRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileshare_reconcile_runs_total",
			Help: "Reconciler runs by outcome.",
		},
		[]string{"result"},
	)
)
