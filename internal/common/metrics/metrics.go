// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsSucceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_requests_succeeded_total",
			Help: "Total number of backend requests that succeeded, per operation",
		},
		[]string{"operation"},
	)

	RequestsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_requests_failed_total",
			Help: "Total number of backend requests that failed, per operation and error code",
		},
		[]string{"operation", "error_code"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "studio_request_duration_seconds",
			Help: "Duration of backend requests in seconds",
		},
		[]string{"operation"},
	)

	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "studio_requests_in_flight",
			Help: "Number of backend requests currently in flight across all workflows",
		},
	)

	ValidationRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_validation_rejections_total",
			Help: "Total number of inputs rejected before dispatch, per error code",
		},
		[]string{"error_code"},
	)
)
