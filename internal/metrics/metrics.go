package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Recommendation metrics
	RecommendationDuration prometheus.HistogramVec
	SourceCandidates       prometheus.CounterVec
	SourceErrors           prometheus.CounterVec
	RecommendationsServed  prometheus.CounterVec

	// Feedback metrics
	FeedbackEventsTotal prometheus.CounterVec
	FeedbackQueueDepth  prometheus.Gauge
	DrainCyclesTotal    prometheus.Counter
	ProfileRecomputes   prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "profile_cache_hits_total",
					Help: "Profile cache hits",
				},
				[]string{"backend"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "profile_cache_misses_total",
					Help: "Profile cache misses",
				},
				[]string{"backend"},
			),
			RecommendationDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "recommendation_duration_seconds",
					Help:    "End-to-end recommendation generation latency",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"context"},
			),
			SourceCandidates: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recommendation_source_candidates_total",
					Help: "Candidates produced per recommendation source",
				},
				[]string{"source"},
			),
			SourceErrors: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recommendation_source_errors_total",
					Help: "Source failures degraded to fallback data",
				},
				[]string{"source"},
			),
			RecommendationsServed: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recommendations_served_total",
					Help: "Ranked recommendations returned to callers",
				},
				[]string{"source"},
			),
			FeedbackEventsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "feedback_events_total",
					Help: "Feedback events accepted per action",
				},
				[]string{"action"},
			),
			FeedbackQueueDepth: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "feedback_queue_depth",
					Help: "Events waiting for the next batch drain",
				},
			),
			DrainCyclesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "feedback_drain_cycles_total",
					Help: "Completed feedback queue drain cycles",
				},
			),
			ProfileRecomputes: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "profile_recomputes_total",
					Help: "Full profile recomputes per trigger",
				},
				[]string{"trigger"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}
