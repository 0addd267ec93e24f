package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodlog_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodlog_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "route"},
	)

	EstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodlog_estimates_total",
			Help: "Total number of nutrition estimates by mode, shape and outcome",
		},
		[]string{"mode", "shape", "outcome"},
	)

	PipelineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodlog_pipeline_failures_total",
			Help: "Total number of pipeline failures by stage and error kind",
		},
		[]string{"stage", "kind", "mode"},
	)

	ExtractionPaths = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodlog_extraction_path_total",
			Help: "Structured payloads extracted, by extraction path",
		},
		[]string{"path"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodlog_provider_request_duration_seconds",
			Help:    "Duration of completion provider calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"provider", "outcome"},
	)

	ProviderTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodlog_provider_tokens_total",
			Help: "Tokens consumed by completion provider calls",
		},
		[]string{"provider", "direction"},
	)

	ProviderRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodlog_provider_retries_total",
			Help: "Total number of retried completion provider requests",
		},
	)

	StorageUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodlog_storage_uploads_total",
			Help: "Total number of photo uploads by outcome",
		},
		[]string{"outcome"},
	)

	StorageUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodlog_storage_upload_bytes",
			Help:    "Size of uploaded photos in bytes",
			Buckets: prometheus.ExponentialBuckets(16<<10, 2, 10),
		},
	)
)

// Outcome label values
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeFallback = "fallback"
)
