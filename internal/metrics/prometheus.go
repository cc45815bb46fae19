package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecommendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subsidy_recommend_duration_seconds",
			Help:    "Recommendation processing duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"mode"},
	)

	RecommendTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subsidy_recommend_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"status"},
	)

	EligibleCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "subsidy_eligible_count",
			Help:    "Number of eligible subsidies per recommendation",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	TopMatchScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "subsidy_top_match_percentage",
			Help:    "Match percentage of the best ranked subsidy",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	AIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subsidy_ai_requests_total",
			Help: "AI scoring attempts by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	AIFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subsidy_ai_fallbacks_total",
			Help: "AI scoring failures answered with rule-based results",
		},
		[]string{"code"},
	)

	AIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subsidy_ai_duration_seconds",
			Help:    "AI scoring call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"backend"},
	)

	CircuitState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subsidy_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subsidy_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subsidy_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	CatalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "subsidy_catalog_size",
			Help: "Number of subsidies in the loaded catalog",
		},
	)

	RecordFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subsidy_recommendation_log_failures_total",
			Help: "Recommendation log writes that failed",
		},
	)

	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "subsidy_websocket_connections",
			Help: "Open recommendation WebSocket connections",
		},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RecommendDuration)
		prometheus.MustRegister(RecommendTotal)
		prometheus.MustRegister(EligibleCount)
		prometheus.MustRegister(TopMatchScore)
		prometheus.MustRegister(AIRequests)
		prometheus.MustRegister(AIFallbacks)
		prometheus.MustRegister(AIDuration)
		prometheus.MustRegister(CircuitState)
		prometheus.MustRegister(CacheHits)
		prometheus.MustRegister(CacheMisses)
		prometheus.MustRegister(CatalogSize)
		prometheus.MustRegister(RecordFailures)
		prometheus.MustRegister(WebSocketConnections)
	})
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
