package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_client_api_requests_total",
			Help: "Requests sent by the storefront client to the remote API",
		},
		[]string{"method", "route", "status"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_client_api_request_duration_seconds",
			Help:    "Latency of storefront client API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	FallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_fallback_total",
			Help: "Operations that fell back from the remote API to local state",
		},
		[]string{"operation"},
	)

	OrdersPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders synthesised at checkout",
		},
		[]string{"payment_method"},
	)
)

// ObserveAPIRequest records one client round trip. status is the HTTP
// status code, or "error" when no response was received.
func ObserveAPIRequest(method, route, status string, elapsed time.Duration) {
	apiRequestsTotal.WithLabelValues(method, route, status).Inc()
	apiRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
