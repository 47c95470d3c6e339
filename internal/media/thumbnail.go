package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"simple-gallery/internal/filesystem"
	"simple-gallery/internal/logging"
	"simple-gallery/internal/mediatypes"
	"simple-gallery/internal/metrics"
	"simple-gallery/internal/workers"

	// Decoders for validating cached thumbnails
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

const (
	// ThumbSuffix is appended to the original's base name to form the
	// cache file name.
	ThumbSuffix = ".jpg"

	// CacheMaxAge is how long clients may keep a thumbnail response.
	CacheMaxAge = 7 * 24 * time.Hour

	// CacheControl is the Cache-Control value for thumbnail responses.
	CacheControl = "public, max-age=604800"

	// legacyHitContentType is what the original gallery declared for
	// cache hits even though the bytes are JPEG.
	legacyHitContentType = "image/png"

	failureMemoTTL = time.Minute
)

// Options configures a ThumbnailCache. Zero values take the defaults noted
// on each field.
type Options struct {
	// CacheDir is the flat thumbnail directory. Empty disables caching.
	CacheDir string
	// MaxWidth and MaxHeight bound the thumbnail (default 200x200).
	MaxWidth  int
	MaxHeight int
	// Quality is the JPEG quality, 1-100 (default 67 when zero).
	Quality int
	// Engine selects the resampler (default EngineImaging).
	Engine Engine
	// LegacyContentType labels cache hits as image/png like the original
	// gallery did. Off by default: both paths report image/jpeg.
	LegacyContentType bool
	// Timeout bounds how long a request waits for a generation (default 30s).
	Timeout time.Duration
	// Types is the supported file table (default mediatypes.DefaultTable).
	Types mediatypes.Table
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = 200
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = 200
	}
	if o.Quality <= 0 {
		o.Quality = 67
	}
	if o.Quality > 100 {
		o.Quality = 100
	}
	if o.Engine == "" {
		o.Engine = EngineImaging
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if len(o.Types) == 0 {
		o.Types = mediatypes.DefaultTable()
	}
	return o
}

// Thumbnail is a ready-to-serve thumbnail.
type Thumbnail struct {
	Data        []byte
	ContentType string
	CacheHit    bool
}

// settings is the immutable snapshot a request works against.
type settings struct {
	Options
	resizer *Resizer
}

// ThumbnailCache maps originals to JPEG thumbnails stored in a flat cache
// directory, generating them on a miss.
//
// Concurrent misses for the same cache file share one generation. The number
// of generations running at once is bounded by a semaphore sized to the
// available CPUs.
type ThumbnailCache struct {
	settings     atomic.Pointer[settings]
	group        singleflight.Group
	sem          *semaphore.Weighted
	failures     *cache.Cache
	backpressure Backpressure
}

// Backpressure delays decodes while memory is short. WaitIfPaused blocks
// until work may proceed.
type Backpressure interface {
	WaitIfPaused() bool
}

// NewThumbnailCache creates a cache manager. workerOverride, when positive,
// replaces the CPU-derived limit on concurrent generations.
func NewThumbnailCache(opts Options, workerOverride int) (*ThumbnailCache, error) {
	c := &ThumbnailCache{
		sem:      semaphore.NewWeighted(int64(workers.ForCPU(0, workerOverride))),
		failures: cache.New(failureMemoTTL, 5*time.Minute),
	}
	if err := c.SetOptions(opts); err != nil {
		return nil, err
	}
	return c, nil
}

// SetOptions swaps in a new configuration. Requests already in progress
// finish with the options they started with.
func (c *ThumbnailCache) SetOptions(opts Options) error {
	opts = opts.withDefaults()
	resizer, err := NewResizer(opts.Engine)
	if err != nil {
		return err
	}

	c.settings.Store(&settings{Options: opts, resizer: resizer})
	c.failures.Flush()

	if opts.CacheDir == "" {
		logging.Debug("ThumbnailCache: caching disabled")
	} else {
		logging.Debug("ThumbnailCache: cache dir %s, box %dx%d, quality %d, engine %s",
			opts.CacheDir, opts.MaxWidth, opts.MaxHeight, opts.Quality, opts.Engine)
	}
	return nil
}

// SetBackpressure makes generations wait on b before decoding. It must be
// called before the cache serves requests.
func (c *ThumbnailCache) SetBackpressure(b Backpressure) {
	c.backpressure = b
}

func (c *ThumbnailCache) waitForMemory() {
	if c.backpressure != nil {
		c.backpressure.WaitIfPaused()
	}
}

// Options returns the options currently in effect.
func (c *ThumbnailCache) Options() Options {
	return c.settings.Load().Options
}

// ThumbnailFilename returns the cache file name for an original: its base
// name plus ThumbSuffix. Originals in different directories sharing a base
// name map to the same cache file.
func ThumbnailFilename(originalPath string) string {
	return filepath.Base(originalPath) + ThumbSuffix
}

// GetThumbnail returns the thumbnail for the original at originalPath.
//
// A valid cached thumbnail is returned as is. Otherwise the original is
// decoded, resized into the bounding box, rotated per its EXIF orientation,
// encoded as JPEG and written back to the cache. Files that are not
// supported images yield ErrNotAnImage; see Classify.
func (c *ThumbnailCache) GetThumbnail(ctx context.Context, originalPath string) (*Thumbnail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := c.settings.Load()
	mime := s.Types.MimeTypeOf(originalPath)
	if !mediatypes.IsDecodable(mime) {
		metrics.ThumbnailRequestsTotal.WithLabelValues("unsupported").Inc()
		return nil, fmt.Errorf("%s: %w", originalPath, ErrNotAnImage)
	}

	cachePath := c.cachePath(s)(originalPath)
	if cachePath != "" {
		if data, ok := c.probe(cachePath); ok {
			logging.Debug("Thumbnail cache hit: %s", originalPath)
			metrics.ThumbnailRequestsTotal.WithLabelValues("hit").Inc()

			contentType := mediatypes.MimeJPEG
			if s.LegacyContentType {
				contentType = legacyHitContentType
			}
			return &Thumbnail{Data: data, ContentType: contentType, CacheHit: true}, nil
		}
	}

	key := cachePath
	if key == "" {
		key = "uncached:" + originalPath
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.generate(s, originalPath, mime, cachePath)
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.ThumbnailSharedGenerations.Inc()
		}
		if res.Err != nil {
			metrics.ThumbnailRequestsTotal.WithLabelValues("error").Inc()
			return nil, res.Err
		}
		metrics.ThumbnailRequestsTotal.WithLabelValues("miss").Inc()
		return &Thumbnail{Data: res.Val.([]byte), ContentType: mediatypes.MimeJPEG}, nil

	case <-ctx.Done():
		// The generation keeps running, populates the cache and counts itself.
		metrics.ThumbnailRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("thumbnail for %s: %w", originalPath, ctx.Err())
	}
}

// SaveThumbToCache encodes img and stores it as the cached thumbnail of
// originalPath. It reports false when caching is disabled or the write
// failed; a failed write never leaves a partial file behind.
func (c *ThumbnailCache) SaveThumbToCache(img image.Image, originalPath string) bool {
	s := c.settings.Load()
	cachePath := c.cachePath(s)(originalPath)
	if cachePath == "" || img == nil {
		return false
	}

	if err := c.persist(s, cachePath, func(w io.Writer) error {
		return EncodeJPEG(w, img, s.Quality)
	}); err != nil {
		logging.Warn("Failed to cache thumbnail %s: %v", cachePath, err)
		return false
	}
	return true
}

// WarmResult describes what Warm did for one original.
type WarmResult int

const (
	// WarmGenerated means a new thumbnail was written.
	WarmGenerated WarmResult = iota
	// WarmSkipped means a valid thumbnail was already cached.
	WarmSkipped
	// WarmNotApplicable means the file is not an image that can be decoded.
	WarmNotApplicable
)

type rendered struct {
	img image.Image
	err error
}

// Warm makes sure the cache holds a thumbnail for originalPath, generating
// one through SaveThumbToCache when it does not. ctx bounds the wait for
// the decode; a decode that finishes after ctx is done is discarded.
func (c *ThumbnailCache) Warm(ctx context.Context, originalPath string) (WarmResult, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s := c.settings.Load()
	cachePath := c.cachePath(s)(originalPath)
	if cachePath == "" {
		return 0, ErrCacheDisabled
	}

	mime := s.Types.MimeTypeOf(originalPath)
	if !mediatypes.IsDecodable(mime) {
		return WarmNotApplicable, nil
	}

	if _, ok := c.probe(cachePath); ok {
		return WarmSkipped, nil
	}

	ch := make(chan rendered, 1)
	go func() {
		c.waitForMemory()
		img, err := c.render(s, originalPath, mime)
		ch <- rendered{img: img, err: err}
	}()

	var img image.Image
	select {
	case r := <-ch:
		if r.err != nil {
			if Classify(r.err) == OutcomeNotApplicable {
				return WarmNotApplicable, nil
			}
			return 0, r.err
		}
		img = r.img
	case <-ctx.Done():
		return 0, fmt.Errorf("thumbnail for %s: %w", originalPath, ctx.Err())
	}

	if !c.SaveThumbToCache(img, originalPath) {
		return 0, fmt.Errorf("persist thumbnail for %s failed", originalPath)
	}
	return WarmGenerated, nil
}

// CacheStats counts the thumbnails currently in the cache directory.
func (c *ThumbnailCache) CacheStats() (metrics.CacheStats, error) {
	var stats metrics.CacheStats

	dir := c.cacheDir(c.settings.Load())
	if dir == "" {
		return stats, ErrCacheDisabled
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return stats, err
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") || !strings.HasSuffix(e.Name(), ThumbSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Files++
		stats.Bytes += info.Size()
	}
	return stats, nil
}

// cacheDir resolves the configured cache directory, creating it when it is
// missing. It returns "" when caching is disabled or the directory is
// unusable, in which case every request regenerates.
func (c *ThumbnailCache) cacheDir(s *settings) string {
	dir := strings.TrimSpace(s.CacheDir)
	if dir == "" {
		return ""
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.Warn("Thumbnail cache dir %s unavailable: %v", dir, err)
			return ""
		}
		logging.Info("Created thumbnail cache dir %s", dir)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		logging.Warn("Thumbnail cache dir %s unavailable: %v", dir, err)
		return ""
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		logging.Warn("Thumbnail cache dir %s unavailable: %v", dir, err)
		return ""
	}
	return resolved
}

// cachePath returns a function mapping originals to cache files, resolving
// the cache directory once. The function returns "" when caching is off.
func (c *ThumbnailCache) cachePath(s *settings) func(string) string {
	dir := c.cacheDir(s)
	return func(originalPath string) string {
		if dir == "" {
			return ""
		}
		return filepath.Join(dir, ThumbnailFilename(originalPath))
	}
}

// probe reads a cached thumbnail and checks that it decodes.
func (c *ThumbnailCache) probe(cachePath string) ([]byte, bool) {
	data, err := filesystem.ReadFileWithRetry(cachePath, filesystem.DefaultRetryConfig())
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Debug("Thumbnail cache read failed for %s: %v", cachePath, err)
		}
		return nil, false
	}

	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		logging.Warn("Cached thumbnail %s is not a valid image, regenerating: %v", cachePath, err)
		return nil, false
	}
	return data, true
}

// generate runs once per cache key at a time. It is not tied to any one
// request's context: once started it completes and populates the cache.
func (c *ThumbnailCache) generate(s *settings, originalPath, mime, cachePath string) ([]byte, error) {
	if cachePath != "" {
		if data, ok := c.probe(cachePath); ok {
			return data, nil
		}
	}

	info, err := filesystem.StatWithRetry(originalPath, filesystem.DefaultRetryConfig())
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues(generationStatus(err)).Inc()
		return nil, fmt.Errorf("stat original %s: %w", originalPath, err)
	}

	memoKey := fmt.Sprintf("%s|%d|%d", originalPath, info.Size(), info.ModTime().UnixNano())
	if prev, found := c.failures.Get(memoKey); found {
		return nil, prev.(error)
	}

	if err := c.sem.Acquire(context.Background(), 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)
	c.waitForMemory()

	metrics.ThumbnailGenerationsInFlight.Inc()
	defer metrics.ThumbnailGenerationsInFlight.Dec()

	logging.Debug("Thumbnail generating: %s", originalPath)

	data, err := c.encode(s, originalPath, mime)
	metrics.ThumbnailGenerationsTotal.WithLabelValues(generationStatus(err)).Inc()
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			c.failures.Set(memoKey, err, cache.DefaultExpiration)
		}
		logging.Warn("Thumbnail generation failed for %s: %v", originalPath, err)
		return nil, err
	}

	if cachePath != "" {
		if err := c.persist(s, cachePath, func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}); err != nil {
			// The thumbnail is still served; the next request retries the write.
			logging.Warn("Failed to cache thumbnail %s: %v", cachePath, err)
		} else {
			logging.Debug("Thumbnail cached: %s", cachePath)
		}
	}

	return data, nil
}

// render decodes, resizes and orients the original.
func (c *ThumbnailCache) render(s *settings, originalPath, mime string) (image.Image, error) {
	data, err := filesystem.ReadFileWithRetry(originalPath, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("read original %s: %w", originalPath, err)
	}

	img, err := s.resizer.Resize(data, mime, s.MaxWidth, s.MaxHeight)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			decodeErr.Path = originalPath
		}
		return nil, err
	}

	start := time.Now()
	orientation, err := ReadOrientation(bytes.NewReader(data), mime)
	switch {
	case errors.Is(err, ErrExifNotSupported):
	case err != nil:
		logging.Debug("No usable EXIF orientation for %s: %v", originalPath, err)
	default:
		img = ApplyOrientation(img, orientation)
	}
	observePhase("orient", start)

	return img, nil
}

func (c *ThumbnailCache) encode(s *settings, originalPath, mime string) ([]byte, error) {
	img, err := c.render(s, originalPath, mime)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, img, s.Quality); err != nil {
		return nil, err
	}
	observePhase("encode", start)

	return buf.Bytes(), nil
}

func (c *ThumbnailCache) persist(s *settings, cachePath string, fill func(io.Writer) error) error {
	start := time.Now()
	err := filesystem.WriteFileAtomic(cachePath, 0o644, fill)
	observePhase("persist", start)
	if err != nil {
		metrics.ThumbnailCacheWriteFailures.Inc()
	}
	return err
}
