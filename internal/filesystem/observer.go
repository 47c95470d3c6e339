package filesystem

// Observer records filesystem metrics. The metrics package provides the
// implementation, which keeps this package free of a metrics import.
type Observer interface {
	// ObserveWrite records an atomic cache write. volume is the resolved
	// label of the destination ("gallery", "cache" or "unknown").
	ObserveWrite(volume string, durationSeconds float64, err error)

	// retryOp is one of "stat", "open", "read".
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)
}

// If nil, metric recording is skipped (the default in tests).
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}
