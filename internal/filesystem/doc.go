/*
Package filesystem provides resilient filesystem operations for the gallery:
retry logic for NFS stale file handle errors and atomic file replacement for
the thumbnail cache.

# Retry

StatWithRetry, OpenWithRetry and ReadFileWithRetry wrap the matching os
calls. Only ESTALE (errno 116) is retried, with exponential backoff capped by
RetryConfig.MaxBackoff; every other error is returned immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

# Atomic writes

WriteFileAtomic writes through a temporary file in the destination directory
and renames it into place, so a concurrent reader never observes a partially
written thumbnail:

	err := filesystem.WriteFileAtomic(cachePath, 0o644, func(w io.Writer) error {
	    return jpeg.Encode(w, img, &jpeg.Options{Quality: 67})
	})

# Metrics

Operations report to the package-level Observer when one is installed with
SetObserver. Paths are labeled by volume ("gallery", "cache") through the
VolumeResolver set with SetDefaultVolumeResolver.
*/
package filesystem
