// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tumbuh_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tumbuh_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Recommender
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tumbuh_recommendations_total",
			Help: "Fertilizer recommendations by outcome and match quality",
		},
		[]string{"status", "match_quality"},
	)

	ReferenceTableRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tumbuh_reference_table_rows",
			Help: "Observations held by the fitted recommender",
		},
	)

	// Prediction service
	PredictorRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tumbuh_predictor_requests_total",
			Help: "Calls to the prediction service by model and result",
		},
		[]string{"model", "result"},
	)

	PredictorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tumbuh_predictor_request_duration_seconds",
			Help:    "Prediction service latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	// Cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tumbuh_cache_hits_total",
			Help: "Prediction cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tumbuh_cache_misses_total",
			Help: "Prediction cache misses",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tumbuh_cache_entries",
			Help: "Current number of cached entries",
		},
	)

	// Feedback
	FeedbackSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tumbuh_feedback_submitted_total",
			Help: "Feedback entries stored",
		},
	)
)

// RecordAPIRequest records one handled HTTP request
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRecommendation records one recommend call outcome
func RecordRecommendation(status, quality string) {
	if quality == "" {
		quality = "none"
	}
	RecommendationsTotal.WithLabelValues(status, quality).Inc()
}

// RecordPrediction records one prediction service call
func RecordPrediction(model string, err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "error"
	}
	PredictorRequestsTotal.WithLabelValues(model, result).Inc()
	PredictorRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}
