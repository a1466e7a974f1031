package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK              = "ok"
	outcomeValidationError = "validation_error"
	outcomeInferenceError  = "inference_error"
)

var (
	predictionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floodcast_prediction_requests_total",
		Help: "Prediction requests by outcome.",
	}, []string{"outcome"})
	predictionsLabeled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floodcast_predictions_total",
		Help: "Per-day predictions returned, by label.",
	}, []string{"label"})
	inferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "floodcast_inference_duration_seconds",
		Help:    "Duration of a single model invocation.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "floodcast_cache_hits_total",
		Help: "Prediction requests served from the Redis cache.",
	})
	outlookRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floodcast_outlook_runs_total",
		Help: "Scheduled outlook runs by outcome.",
	}, []string{"outcome"})
	alertsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floodcast_alerts_published_total",
		Help: "Flood alerts delivered, by sink.",
	}, []string{"sink"})
	alertsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "floodcast_alerts_failed_total",
		Help: "Flood alerts that failed to deliver, by sink.",
	}, []string{"sink"})
)
