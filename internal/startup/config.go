package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"simple-gallery/internal/logging"
	"simple-gallery/internal/media"
	"simple-gallery/internal/mediatypes"
	"simple-gallery/internal/memory"
)

const (
	// DefaultConfigName is the config file looked up in the working
	// directory when no path is given.
	DefaultConfigName = "sgConfig"

	// EnvPrefix prefixes environment overrides, e.g. SG_THUMBS_CACHE.
	EnvPrefix = "SG"
)

// Config holds all application configuration. A Config is never modified
// after it is built; reloads produce a new value.
type Config struct {
	GalleryDir   string
	AllowFolders bool
	Types        mediatypes.Table

	CacheDir          string
	MaxWidth          int
	MaxHeight         int
	Quality           int
	Engine            media.Engine
	LegacyContentType bool
	Timeout           time.Duration
	Workers           int

	// MemoryLimit is the container memory limit in bytes, 0 when unknown.
	// MemoryRatio is the share of it given to the Go heap.
	MemoryLimit int64
	MemoryRatio float64

	Port            string
	MetricsEnabled  bool
	LogLevel        string
	LogHealthChecks bool

	// ConfigFile is the file the values were read from, "" when only
	// defaults and the environment were used.
	ConfigFile string
}

// ThumbnailOptions returns the thumbnail cache settings of c. Quality 0 is
// passed on as 1, the lowest quality the JPEG encoder produces.
func (c *Config) ThumbnailOptions() media.Options {
	quality := c.Quality
	if quality == 0 {
		quality = 1
	}
	return media.Options{
		CacheDir:          c.CacheDir,
		MaxWidth:          c.MaxWidth,
		MaxHeight:         c.MaxHeight,
		Quality:           quality,
		Engine:            c.Engine,
		LegacyContentType: c.LegacyContentType,
		Timeout:           c.Timeout,
		Types:             c.Types,
	}
}

// Volumes maps metric volume labels to the directories they cover.
func (c *Config) Volumes() map[string]string {
	return map[string]string{
		"gallery": c.GalleryDir,
		"cache":   c.CacheDir,
	}
}

// Loader reads configuration from defaults, an optional JSON file, a .env
// file and SG_ prefixed environment variables, in increasing precedence.
type Loader struct {
	v    *viper.Viper
	path string
}

// NewLoader prepares a Loader. path names the config file; when empty,
// sgConfig.json in the working directory is used if it exists.
func NewLoader(path string) *Loader {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}

	return &Loader{v: v, path: path}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("custom.dir", "./")
	v.SetDefault("features.allowfolders", true)
	v.SetDefault("files.supported", map[string][]string(mediatypes.DefaultTable()))

	v.SetDefault("thumbs.cache", "")
	v.SetDefault("thumbs.max_width", 200)
	v.SetDefault("thumbs.max_height", 200)
	v.SetDefault("thumbs.quality", 67)
	v.SetDefault("thumbs.engine", string(media.EngineImaging))
	v.SetDefault("thumbs.legacy_content_type", false)
	v.SetDefault("thumbs.timeout", "30s")
	v.SetDefault("thumbs.workers", 0)

	v.SetDefault("memory.limit", 0)
	v.SetDefault("memory.ratio", memory.DefaultMemoryRatio)

	v.SetDefault("server.port", "8080")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("log.level", "")
	v.SetDefault("log.healthchecks", true)
}

// Load reads the current configuration sources and builds a validated
// Config.
func (l *Loader) Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn("Failed to read .env file: %v", err)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logging.Debug("No %s.json found, using defaults and environment", DefaultConfigName)
	}

	return build(l.v)
}

// Viper exposes the underlying viper instance for file watching.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

func build(v *viper.Viper) (*Config, error) {
	var errs []error

	engine, err := media.ParseEngine(v.GetString("thumbs.engine"))
	if err != nil {
		errs = append(errs, err)
	}

	timeout, err := parseDuration(v.GetString("thumbs.timeout"))
	if err != nil {
		errs = append(errs, fmt.Errorf("thumbs.timeout: %w", err))
	}

	galleryDir, err := filepath.Abs(v.GetString("custom.dir"))
	if err != nil {
		errs = append(errs, fmt.Errorf("custom.dir: %w", err))
	}

	cacheDir := strings.TrimSpace(v.GetString("thumbs.cache"))
	if cacheDir != "" {
		if cacheDir, err = filepath.Abs(cacheDir); err != nil {
			errs = append(errs, fmt.Errorf("thumbs.cache: %w", err))
		}
	}

	types := mediatypes.Table(v.GetStringMapStringSlice("files.supported")).Normalize()
	if len(types) == 0 {
		errs = append(errs, errors.New("files.supported: no supported file types"))
	}

	cfg := &Config{
		GalleryDir:        galleryDir,
		AllowFolders:      v.GetBool("features.allowfolders"),
		Types:             types,
		CacheDir:          cacheDir,
		MaxWidth:          v.GetInt("thumbs.max_width"),
		MaxHeight:         v.GetInt("thumbs.max_height"),
		Quality:           v.GetInt("thumbs.quality"),
		Engine:            engine,
		LegacyContentType: v.GetBool("thumbs.legacy_content_type"),
		Timeout:           timeout,
		Workers:           v.GetInt("thumbs.workers"),
		MemoryLimit:       v.GetInt64("memory.limit"),
		MemoryRatio:       v.GetFloat64("memory.ratio"),
		Port:              strings.TrimSpace(v.GetString("server.port")),
		MetricsEnabled:    v.GetBool("metrics.enabled"),
		LogLevel:          strings.TrimSpace(v.GetString("log.level")),
		LogHealthChecks:   v.GetBool("log.healthchecks"),
		ConfigFile:        v.ConfigFileUsed(),
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	if c.MaxWidth <= 0 {
		errs = append(errs, fmt.Errorf("thumbs.max_width must be positive, got %d", c.MaxWidth))
	}
	if c.MaxHeight <= 0 {
		errs = append(errs, fmt.Errorf("thumbs.max_height must be positive, got %d", c.MaxHeight))
	}
	if c.Quality < 0 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("thumbs.quality must be between 0 and 100, got %d", c.Quality))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("thumbs.workers must not be negative, got %d", c.Workers))
	}
	if c.MemoryLimit < 0 {
		errs = append(errs, fmt.Errorf("memory.limit must not be negative, got %d", c.MemoryLimit))
	}
	if c.MemoryRatio <= 0 || c.MemoryRatio > 1 {
		errs = append(errs, fmt.Errorf("memory.ratio must be in (0, 1], got %v", c.MemoryRatio))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("server.port must not be empty"))
	}
	if c.LogLevel != "" {
		if _, ok := logging.ParseLevel(c.LogLevel); !ok {
			errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.LogLevel))
		}
	}
	return errs
}

// parseDuration accepts Go durations and plain seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("must be positive, got %s", s)
		}
		return d, nil
	}
	secs, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if secs <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return time.Duration(secs) * time.Second, nil
}

// LoadConfig loads the configuration for the server, logging the banner and
// the effective settings, and prepares the gallery and cache directories.
func LoadConfig(path string) (*Loader, *Config, error) {
	printBanner()
	logSystemInfo()

	loader := NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}

	LogConfig(cfg)

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := ensureDirectory(cfg.GalleryDir, "gallery"); err != nil {
		return nil, nil, fmt.Errorf("gallery directory error: %w", err)
	}
	logging.Info("  Gallery directory: %s", cfg.GalleryDir)

	if cfg.CacheDir == "" {
		logging.Info("  Thumbnail cache:   DISABLED (thumbs.cache not set)")
	} else if setupOptionalDir(cfg.CacheDir, "thumbnail cache") {
		logging.Info("  Thumbnail cache:   %s", cfg.CacheDir)
	} else {
		logging.Warn("  Thumbnails will be generated on every request")
	}

	return loader, cfg, nil
}

// LogConfig logs the effective configuration.
func LogConfig(cfg *Config) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if cfg.ConfigFile != "" {
		logging.Info("  Config file:                %s", cfg.ConfigFile)
	}
	logging.Info("  custom.dir:                 %s", cfg.GalleryDir)
	logging.Info("  features.allowfolders:      %v", cfg.AllowFolders)
	logging.Info("  files.supported:            %s", strings.Join(cfg.Types.SupportedExtensions(), ", "))
	logging.Info("  thumbs.cache:               %s", orDisabled(cfg.CacheDir))
	logging.Info("  thumbs.max_width/height:    %dx%d", cfg.MaxWidth, cfg.MaxHeight)
	logging.Info("  thumbs.quality:             %d", cfg.Quality)
	logging.Info("  thumbs.engine:              %s", cfg.Engine)
	logging.Info("  thumbs.legacy_content_type: %v", cfg.LegacyContentType)
	logging.Info("  thumbs.timeout:             %v", cfg.Timeout)
	logging.Info("  thumbs.workers:             %s", orAuto(cfg.Workers))
	if cfg.MemoryLimit > 0 {
		logging.Info("  memory.limit/ratio:         %d bytes x %.2f", cfg.MemoryLimit, cfg.MemoryRatio)
	}
	logging.Info("  server.port:                %s", cfg.Port)
	logging.Info("  metrics.enabled:            %v", cfg.MetricsEnabled)
	logging.Info("  log.level:                  %s", logging.GetLevel())
}

func orDisabled(s string) string {
	if s == "" {
		return "(disabled)"
	}
	return s
}

func orAuto(n int) string {
	if n <= 0 {
		return "auto"
	}
	return fmt.Sprint(n)
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			fileCount, dirCount := 0, 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", fileCount, dirCount)
		}
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
