// Package metrics holds the prometheus collectors of the service. They are
// registered on the default registry and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confd_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "confd_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "confd_http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	HTTPPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confd_http_panics_total",
			Help: "Handler panics recovered, by route",
		},
		[]string{"route"},
	)

	// ConfigGenerations counts device config generations by result (ok, error).
	ConfigGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confd_device_config_generations_total",
			Help: "Device configurations generated",
		},
		[]string{"result"},
	)

	ProvdRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confd_provd_requests_total",
			Help: "Requests sent to provd by operation and result",
		},
		[]string{"op", "result"},
	)
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Result maps an error to the result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
