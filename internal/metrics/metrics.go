package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gdx_sell_quote_requests_total",
			Help: "Total number of sell quote requests",
		},
		[]string{"chain", "status"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gdx_sell_quote_duration_seconds",
			Help:    "Sell quote duration in seconds, remote reads included",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"chain"},
	)

	PriceImpact = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gdx_sell_price_impact_bps",
			Help:    "Price impact of returned quotes in basis points",
			Buckets: []float64{0, 10, 50, 100, 300, 500, 1000, 5000, 10000},
		},
		[]string{"severity"},
	)

	// Route finder metrics
	RouteLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gdx_route_lookups_total",
			Help: "Total number of pooled-market route lookups",
		},
		[]string{"chain", "result"},
	)

	PairsEvaluated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gdx_pairs_evaluated",
		Help:    "Number of pairs with liquidity evaluated per route lookup",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	})

	// Oracle metrics
	OracleCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gdx_oracle_cache_hits_total",
		Help: "Total number of reserve ratio cache hits",
	})

	OracleCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gdx_oracle_cache_misses_total",
		Help: "Total number of reserve ratio cache misses",
	})

	OracleInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gdx_oracle_invalidations_total",
		Help: "Total number of reserve ratio cache invalidations",
	})

	// Chain reads
	RemoteReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gdx_remote_reads_total",
			Help: "Total number of on-chain read calls",
		},
		[]string{"method", "status"},
	)

	// Transaction metrics
	TransactionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gdx_sell_transaction_requests_total",
			Help: "Total number of approve/sell transaction requests",
		},
		[]string{"kind", "mode", "status"},
	)

	// Pair persistence
	PersistedPairs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gdx_persisted_pairs",
		Help: "Number of pooled-market pairs stored on disk",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gdx_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gdx_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
