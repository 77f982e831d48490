package httpimpl

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusHTTPRequests *prometheus.CounterVec
	prometheusHTTPErrors   *prometheus.CounterVec
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusHTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utxochain",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of successful API requests",
		},
		[]string{
			"function",
		},
	)

	prometheusHTTPErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utxochain",
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Number of API requests answered with an error",
		},
		[]string{
			"status",
		},
	)
}
