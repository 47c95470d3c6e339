package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_gallery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simple_gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simple_gallery_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Thumbnail metrics
var (
	// ThumbnailRequestsTotal counts GetThumbnail outcomes:
	// "hit", "miss", "unsupported", "error".
	ThumbnailRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_gallery_thumbnail_requests_total",
			Help: "Total number of thumbnail requests by result",
		},
		[]string{"result"},
	)

	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_gallery_thumbnail_generations_total",
			Help: "Total number of thumbnail generations by status",
		},
		[]string{"status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simple_gallery_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration by phase",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"phase"},
	)

	ThumbnailGenerationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simple_gallery_thumbnail_generations_in_flight",
			Help: "Number of thumbnails currently being generated",
		},
	)

	// ThumbnailSharedGenerations counts requests that were answered by a
	// generation already running for the same cache key.
	ThumbnailSharedGenerations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simple_gallery_thumbnail_shared_generations_total",
			Help: "Total number of thumbnail requests served by a concurrent generation of the same key",
		},
	)

	ThumbnailCacheWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simple_gallery_thumbnail_cache_write_failures_total",
			Help: "Total number of thumbnails that could not be persisted to the cache directory",
		},
	)

	ThumbnailCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simple_gallery_thumbnail_cache_size_bytes",
			Help: "Total size of cached thumbnails in bytes",
		},
	)

	ThumbnailCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simple_gallery_thumbnail_cache_count",
			Help: "Number of cached thumbnail files",
		},
	)
)

// Filesystem metrics
var (
	FilesystemWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simple_gallery_filesystem_write_duration_seconds",
			Help:    "Duration of atomic file writes by volume",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume"},
	)

	FilesystemWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_gallery_filesystem_write_errors_total",
			Help: "Total number of failed atomic file writes by volume",
		},
		[]string{"volume"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_gallery_filesystem_retry_attempts_total",
			Help: "Total number of NFS retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_gallery_filesystem_retry_success_total",
			Help: "Total number of operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_gallery_filesystem_retry_failures_total",
			Help: "Total number of operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_gallery_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simple_gallery_filesystem_retry_duration_seconds",
			Help:    "Duration of retried filesystem operations including backoff",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Memory backpressure
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simple_gallery_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the Go memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simple_gallery_memory_paused",
			Help: "1 while thumbnail generation is paused for memory pressure",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simple_gallery_memory_gc_pauses_total",
			Help: "Times generation was paused and a GC forced because memory was critical",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "simple_gallery_app_info",
			Help: "Application build information",
		},
		[]string{"version", "commit", "go_version"},
	)

	ConfigReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simple_gallery_config_reloads_total",
			Help: "Total number of configuration reloads by status",
		},
		[]string{"status"},
	)
)
