package cpuminer

import (
	"sync"

	"github.com/bsv-blockchain/utxochain/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"
)

var (
	prometheusBlockMined    prometheus.Histogram
	prometheusHashesTotal   prometheus.Counter
	prometheusMiningAborted prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once

	// hashesComputed mirrors prometheusHashesTotal so callers can read it without a registry
	hashesComputed atomic.Uint64
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusBlockMined = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "utxochain",
			Subsystem: "miner",
			Name:      "block_mined_seconds",
			Help:      "Histogram of the time taken to find a valid nonce",
			Buckets:   util.MetricsBucketsMilliLongSeconds,
		},
	)

	prometheusHashesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxochain",
			Subsystem: "miner",
			Name:      "hashes_total",
			Help:      "Number of block hashes computed",
		},
	)

	prometheusMiningAborted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxochain",
			Subsystem: "miner",
			Name:      "aborted_total",
			Help:      "Number of mining runs stopped before a nonce was found",
		},
	)
}

// HashesComputed returns the number of hashes computed by this process.
func HashesComputed() uint64 {
	return hashesComputed.Load()
}
