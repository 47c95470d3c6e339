// Package metrics provides Prometheus instrumentation for the gallery server.
//
// All metrics are registered on the default registry through promauto and
// are prefixed with "simple_gallery_".
//
// # HTTP
//
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// # Thumbnails
//
//   - ThumbnailRequestsTotal: GetThumbnail outcomes (hit, miss, unsupported, error)
//   - ThumbnailGenerationsTotal: generation results by status
//   - ThumbnailGenerationDuration: per-phase timings (decode, resize, orient, encode, persist)
//   - ThumbnailGenerationsInFlight, ThumbnailSharedGenerations
//   - ThumbnailCacheWriteFailures, ThumbnailCacheSize, ThumbnailCacheCount
//
// The cache size gauges are refreshed by a Collector polling a
// CacheStatsProvider.
//
// # Memory
//
//   - MemoryUsageRatio, MemoryPaused, MemoryGCPauses: set by memory.Monitor
//
// # Filesystem
//
// NFS retry and atomic write metrics are recorded through the
// filesystem.Observer returned by NewFilesystemObserver.
package metrics
