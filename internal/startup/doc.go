// Package startup loads configuration and handles startup and shutdown
// logging.
//
// # Configuration
//
// Settings are read by [Loader] from, in increasing precedence: built-in
// defaults, an optional JSON file (sgConfig.json in the working directory,
// or the path given to [NewLoader]), a .env file, and environment variables
// prefixed with SG_ where dots become underscores:
//
//   - custom.dir: gallery root (default ./)
//   - features.allowfolders: allow files in subdirectories (default true)
//   - files.supported: MIME type to extensions map (default gif, jpeg/jpg, png)
//   - thumbs.cache: thumbnail cache directory; empty disables caching
//   - thumbs.max_width, thumbs.max_height: bounding box (default 200x200)
//   - thumbs.quality: JPEG quality 0-100, 0 encodes like 1 (default 67)
//   - thumbs.engine: imaging or nfnt (default imaging)
//   - thumbs.legacy_content_type: label cache hits image/png (default false)
//   - thumbs.timeout: per-request wait for a thumbnail (default 30s)
//   - thumbs.workers: concurrent generations, 0 for one per CPU
//   - memory.limit: container memory limit in bytes, 0 when unknown
//   - memory.ratio: share of memory.limit used for GOMEMLIMIT (default 0.85)
//   - server.port: HTTP port (default 8080)
//   - metrics.enabled: serve /metrics (default true)
//   - log.level: debug, info, warn or error
//   - log.healthchecks: include health probes in the access log (default true)
//
// [Store] keeps the current [Config] and replaces it when the config file
// changes.
package startup
