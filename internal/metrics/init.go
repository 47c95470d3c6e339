package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup.
func InitializeMetrics() {
	for _, result := range []string{"hit", "miss", "unsupported", "error"} {
		ThumbnailRequestsTotal.WithLabelValues(result)
	}

	for _, status := range []string{"success", "error_decode", "error_encode", "error_timeout", "error"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	for _, phase := range []string{"decode", "resize", "orient", "encode", "persist"} {
		ThumbnailGenerationDuration.WithLabelValues(phase)
	}

	volumes := []string{"gallery", "cache", "unknown"}
	for _, vol := range volumes {
		FilesystemWriteDuration.WithLabelValues(vol)
		FilesystemWriteErrors.WithLabelValues(vol)
		for _, op := range []string{"stat", "open", "read"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, status := range []string{"success", "error"} {
		ConfigReloadsTotal.WithLabelValues(status)
	}
}
