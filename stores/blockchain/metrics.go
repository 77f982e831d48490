package blockchain

import (
	"sync"

	"github.com/bsv-blockchain/utxochain/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusBlockchainAppend        prometheus.Histogram
	prometheusBlockchainAppendRejects prometheus.Counter
	prometheusBlockchainBlocksRead    prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusBlockchainAppend = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "utxochain",
			Subsystem: "blockchain",
			Name:      "append_seconds",
			Help:      "Histogram of the time taken to persist a block and move the tip",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusBlockchainAppendRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxochain",
			Subsystem: "blockchain",
			Name:      "append_rejected_total",
			Help:      "Number of blocks refused because they did not build on the tip",
		},
	)

	prometheusBlockchainBlocksRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxochain",
			Subsystem: "blockchain",
			Name:      "blocks_read_total",
			Help:      "Number of blocks loaded and decoded from the store",
		},
	)
}
