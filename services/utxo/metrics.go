package utxo

import (
	"sync"

	"github.com/bsv-blockchain/utxochain/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusUtxoScan        prometheus.Histogram
	prometheusUtxoCacheHits   prometheus.Counter
	prometheusUtxoCacheMisses prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusUtxoScan = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "utxochain",
			Subsystem: "utxo",
			Name:      "scan_seconds",
			Help:      "Histogram of full chain scans for unspent outputs",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusUtxoCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxochain",
			Subsystem: "utxo",
			Name:      "cache_hits_total",
			Help:      "Number of unspent output lookups answered from the cache",
		},
	)

	prometheusUtxoCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxochain",
			Subsystem: "utxo",
			Name:      "cache_misses_total",
			Help:      "Number of unspent output lookups that scanned the chain",
		},
	)
}
