package ledger

import (
	"sync"

	"github.com/bsv-blockchain/utxochain/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusLedgerSend         prometheus.Histogram
	prometheusLedgerSendRejected prometheus.Counter
	prometheusLedgerVerify       prometheus.Histogram
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusLedgerSend = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "utxochain",
			Subsystem: "ledger",
			Name:      "send_seconds",
			Help:      "Histogram of sends, from input selection until the block is stored",
			Buckets:   util.MetricsBucketsMilliLongSeconds,
		},
	)

	prometheusLedgerSendRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxochain",
			Subsystem: "ledger",
			Name:      "send_rejected_total",
			Help:      "Number of sends rejected before mining",
		},
	)

	prometheusLedgerVerify = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "utxochain",
			Subsystem: "ledger",
			Name:      "verify_seconds",
			Help:      "Histogram of full chain verifications",
			Buckets:   util.MetricsBucketsMilliLongSeconds,
		},
	)
}
