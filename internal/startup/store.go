package startup

import (
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"simple-gallery/internal/logging"
	"simple-gallery/internal/metrics"
)

// Store holds the current Config and swaps it on reload. Readers always see
// a complete Config, either the old one or the new one.
type Store struct {
	loader  *Loader
	current atomic.Pointer[Config]

	mu          sync.Mutex
	subscribers []func(*Config)
	watching    bool
}

// NewStore creates a Store seeded with cfg. loader is used for reloads.
func NewStore(loader *Loader, cfg *Config) *Store {
	s := &Store{loader: loader}
	s.current.Store(cfg)
	return s
}

// Get returns the configuration currently in effect.
func (s *Store) Get() *Config {
	return s.current.Load()
}

// Subscribe registers fn to be called with every new Config after a
// successful reload.
func (s *Store) Subscribe(fn func(*Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Reload rereads all configuration sources. An invalid configuration is
// rejected and the current one stays in effect.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.loader.Load()
	if err != nil {
		metrics.ConfigReloadsTotal.WithLabelValues("error").Inc()
		logging.Error("Configuration reload rejected: %v", err)
		return err
	}

	s.current.Store(cfg)
	metrics.ConfigReloadsTotal.WithLabelValues("success").Inc()
	logging.Info("Configuration reloaded")

	for _, fn := range s.subscribers {
		fn(cfg)
	}
	return nil
}

// Watch reloads the configuration whenever the config file is written.
// It does nothing when no config file is in use.
func (s *Store) Watch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watching {
		return
	}
	v := s.loader.Viper()
	if v.ConfigFileUsed() == "" {
		logging.Debug("No config file in use, not watching for changes")
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logging.Info("Config file changed: %s", e.Name)
		_ = s.Reload()
	})
	v.WatchConfig()
	s.watching = true

	logging.Info("  Watching %s for changes", v.ConfigFileUsed())
}
