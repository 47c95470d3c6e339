package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"simple-gallery/internal/media"
	"simple-gallery/internal/mediatypes"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "sgConfig.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoaderDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	wd, _ := os.Getwd()
	if cfg.GalleryDir != wd {
		t.Errorf("GalleryDir = %q, want %q", cfg.GalleryDir, wd)
	}
	if cfg.CacheDir != "" {
		t.Errorf("CacheDir = %q, want caching disabled", cfg.CacheDir)
	}
	if cfg.MaxWidth != 200 || cfg.MaxHeight != 200 || cfg.Quality != 67 {
		t.Errorf("thumbs = %dx%d q%d, want 200x200 q67", cfg.MaxWidth, cfg.MaxHeight, cfg.Quality)
	}
	if cfg.Engine != media.EngineImaging {
		t.Errorf("Engine = %q", cfg.Engine)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if !cfg.AllowFolders || !cfg.MetricsEnabled || cfg.LegacyContentType {
		t.Errorf("unexpected flags: %+v", cfg)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if got := cfg.Types.MimeTypeOf("a.JPG"); got != mediatypes.MimeJPEG {
		t.Errorf("Types.MimeTypeOf(a.JPG) = %q", got)
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile = %q, want none", cfg.ConfigFile)
	}
}

func TestLoaderReadsJSONFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, `{
		"custom": {"dir": "./photos"},
		"features": {"allowFolders": false},
		"files": {"supported": {"image/png": ["png"], "image/jpeg": [".JPG"]}},
		"thumbs": {"cache": "./cache", "max_width": 320, "max_height": 240, "quality": 80,
		           "engine": "nfnt", "timeout": 5, "legacy_content_type": true}
	}`)

	cfg, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !strings.HasSuffix(cfg.GalleryDir, "photos") {
		t.Errorf("GalleryDir = %q", cfg.GalleryDir)
	}
	if !filepath.IsAbs(cfg.CacheDir) || !strings.HasSuffix(cfg.CacheDir, "cache") {
		t.Errorf("CacheDir = %q, want absolute .../cache", cfg.CacheDir)
	}
	if cfg.AllowFolders {
		t.Error("allowFolders should be read case-insensitively")
	}
	if cfg.MaxWidth != 320 || cfg.MaxHeight != 240 || cfg.Quality != 80 {
		t.Errorf("thumbs = %dx%d q%d", cfg.MaxWidth, cfg.MaxHeight, cfg.Quality)
	}
	if cfg.Engine != media.EngineNfnt {
		t.Errorf("Engine = %q, want nfnt", cfg.Engine)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if !cfg.LegacyContentType {
		t.Error("LegacyContentType should be true")
	}
	if cfg.Types.IsImageFile("a.gif") {
		t.Error("gif should not be supported with a custom table")
	}
	if !cfg.Types.IsImageFile("a.jpg") {
		t.Error("jpg should be supported")
	}
	if cfg.ConfigFile == "" {
		t.Error("ConfigFile should name the file read")
	}

	opts := cfg.ThumbnailOptions()
	if opts.CacheDir != cfg.CacheDir || opts.Engine != media.EngineNfnt || opts.MaxWidth != 320 {
		t.Errorf("ThumbnailOptions() = %+v", opts)
	}
}

func TestLoaderAcceptsZeroQuality(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, `{"thumbs": {"quality": 0}}`)

	cfg, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Quality != 0 {
		t.Errorf("Quality = %d, want 0", cfg.Quality)
	}
	if got := cfg.ThumbnailOptions().Quality; got != 1 {
		t.Errorf("ThumbnailOptions().Quality = %d, want 1", got)
	}
}

func TestLoaderEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, `{"thumbs": {"quality": 80}}`)

	t.Setenv("SG_THUMBS_QUALITY", "90")
	t.Setenv("SG_THUMBS_CACHE", filepath.Join(dir, "env-cache"))
	t.Setenv("SG_SERVER_PORT", "9999")

	cfg, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Quality != 90 {
		t.Errorf("Quality = %d, want 90 from the environment", cfg.Quality)
	}
	if cfg.CacheDir != filepath.Join(dir, "env-cache") {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
}

func TestLoaderDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SG_THUMBS_MAX_WIDTH=123\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("SG_THUMBS_MAX_WIDTH") })

	cfg, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxWidth != 123 {
		t.Errorf("MaxWidth = %d, want 123 from .env", cfg.MaxWidth)
	}
}

func TestLoaderRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"quality too high", `{"thumbs": {"quality": 101}}`, "thumbs.quality"},
		{"negative quality", `{"thumbs": {"quality": -1}}`, "thumbs.quality"},
		{"zero width", `{"thumbs": {"max_width": 0}}`, "thumbs.max_width"},
		{"unknown engine", `{"thumbs": {"engine": "vips"}}`, "engine"},
		{"bad timeout", `{"thumbs": {"timeout": "soon"}}`, "thumbs.timeout"},
		{"negative timeout", `{"thumbs": {"timeout": "-1s"}}`, "thumbs.timeout"},
		{"bad log level", `{"log": {"level": "loud"}}`, "log.level"},
		{"empty types", `{"files": {"supported": {}}}`, "files.supported"},
		{"memory ratio", `{"memory": {"ratio": 2}}`, "memory.ratio"},
		{"negative memory limit", `{"memory": {"limit": -5}}`, "memory.limit"},
		{"broken json", `{"thumbs": `, "read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			path := writeConfig(t, dir, tt.body)

			_, err := NewLoader(path).Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoaderMissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := NewLoader("does-not-exist.json").Load(); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30s", 30 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"45", 45 * time.Second, false},
		{" 10 ", 10 * time.Second, false},
		{"0", 0, true},
		{"0s", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadConfigPreparesCacheDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cacheDir := filepath.Join(dir, "thumbs")
	writeConfig(t, dir, `{"thumbs": {"cache": "`+filepath.ToSlash(cacheDir)+`"}}`)

	_, cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if info, err := os.Stat(cfg.CacheDir); err != nil || !info.IsDir() {
		t.Errorf("cache dir not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.CacheDir, ".write-test")); !os.IsNotExist(err) {
		t.Error("write test file should be removed")
	}
}

func TestLoadConfigMissingGallery(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeConfig(t, dir, `{"custom": {"dir": "./nope"}}`)

	if _, _, err := LoadConfig(""); err == nil {
		t.Error("expected error for a missing gallery directory")
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	if info.Version == "" || info.GoVersion == "" || info.OS == "" || info.Arch == "" {
		t.Errorf("incomplete build info: %+v", info)
	}
}

func TestGetRoutes(t *testing.T) {
	r := mux.NewRouter()
	noop := func(w http.ResponseWriter, r *http.Request) {}
	r.HandleFunc("/", noop).Queries("m", "1").Methods(http.MethodGet).Name("thumbnail")
	r.HandleFunc("/health", noop).Methods(http.MethodGet, http.MethodHead)

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes: %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("got %d routes, want 3: %+v", len(routes), routes)
	}
	if routes[0].Name != "thumbnail" || len(routes[0].Queries) != 1 || routes[0].Queries[0] != "m=1" {
		t.Errorf("thumbnail route = %+v", routes[0])
	}
}
