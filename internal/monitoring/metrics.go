// Package monitoring exposes the daemon's Prometheus metrics.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReadingsReceived counts telemetry samples arriving from each source
	ReadingsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remotearray_readings_received_total",
			Help: "Total telemetry readings received, by source",
		},
		[]string{"source"},
	)

	// ReadingsStored counts readings accepted by each storage engine
	ReadingsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remotearray_readings_stored_total",
			Help: "Total readings written to storage, by engine",
		},
		[]string{"engine"},
	)

	// ReadingsDropped counts readings a storage engine failed to write
	ReadingsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remotearray_readings_dropped_total",
			Help: "Total readings dropped by storage engines, by engine",
		},
		[]string{"engine"},
	)

	// EnrichmentFailures counts model-enrichment errors by source and cause
	EnrichmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remotearray_enrichment_failures_total",
			Help: "Total enrichment failures, by source and reason",
		},
		[]string{"source", "reason"},
	)

	// SourcesActive tracks how many telemetry sources are running
	SourcesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "remotearray_sources_active",
			Help: "Number of running telemetry sources",
		},
	)

	// StorageHealthy reports per-engine health, 1 healthy and 0 unhealthy
	StorageHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "remotearray_storage_healthy",
			Help: "Storage backend health, by engine",
		},
		[]string{"engine"},
	)

	// HTTPRequestDuration observes REST API latencies
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remotearray_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsTotal counts REST API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remotearray_http_requests_total",
			Help: "Total HTTP requests, by method, path and status",
		},
		[]string{"method", "path", "status"},
	)
)

// Handler returns the HTTP handler serving the metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
