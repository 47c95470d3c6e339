package metrics

import (
	"time"

	"simple-gallery/internal/logging"
)

// CacheStats describes the on-disk thumbnail cache.
type CacheStats struct {
	Files int
	Bytes int64
}

// CacheStatsProvider reports the current state of the thumbnail cache.
type CacheStatsProvider interface {
	CacheStats() (CacheStats, error)
}

// Collector periodically samples the thumbnail cache directory into gauges.
type Collector struct {
	provider CacheStatsProvider
	interval time.Duration
	stopChan chan struct{}
	done     chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider CacheStatsProvider, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Collector{
		provider: provider,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the collection loop and waits for it to exit.
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.done
}

func (c *Collector) collectLoop() {
	defer close(c.done)

	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}

	stats, err := c.provider.CacheStats()
	if err != nil {
		logging.Debug("Thumbnail cache stats unavailable: %v", err)
		return
	}

	ThumbnailCacheCount.Set(float64(stats.Files))
	ThumbnailCacheSize.Set(float64(stats.Bytes))

	logging.Debug("Metrics collected: cached thumbnails=%d, bytes=%d", stats.Files, stats.Bytes)
}
