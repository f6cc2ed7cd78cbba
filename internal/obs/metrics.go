package obs

import (
	"fmt"
	"net/http"

	"github.com/openlane/matchcrawler/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ApiCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "api_calls_total",
		Help: "Total upstream API calls by endpoint, region and outcome status",
	}, []string{"endpoint", "region", "status"})

	ApiCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_call_duration_seconds",
		Help:    "Histogram of upstream API call durations",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "region"})

	RateLimitDenied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_denied_total",
		Help: "Total number of permits denied by a limit class before retrying",
	}, []string{"class"})

	RateLimitRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ratelimit_retries_total",
		Help: "Total number of acquirePermit retry sleeps across all limit classes",
	})

	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queue_depth",
		Help: "Current number of queued tasks by priority band",
	}, []string{"band"})

	DiscoveriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "discoveries_total",
		Help: "Total number of distinct players discovered from match participants",
	})

	DedupSuppressedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dedup_suppressed_total",
		Help: "Total number of discoveries suppressed by the dedup cache",
	})

	CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "0 Closed, 1 HalfOpen, 2 Open, by platform host",
	}, []string{"host"})

	CircuitBreakerTrips = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_breaker_trips_total",
		Help: "Count of times a host's circuit breaker transitioned to Open",
	}, []string{"host"})

	MatchesIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "matches_ingested_total",
		Help: "Total number of matches persisted",
	})

	PlayersProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "players_processed_total",
		Help: "Total number of SummonerTasks processed by the worker",
	})
)

func init() {
	prometheus.MustRegister(
		ApiCallsTotal,
		ApiCallDuration,
		RateLimitDenied,
		RateLimitRetries,
		QueueDepth,
		DiscoveriesTotal,
		DedupSuppressedTotal,
		CircuitBreakerState,
		CircuitBreakerTrips,
		MatchesIngested,
		PlayersProcessed,
	)
}

// StartMetricsServer exposes /metrics alone. Prefer StartHTTPServer, which also
// registers the health endpoints.
func StartMetricsServer(cfg *config.Config) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Observability.MetricsPort), Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
