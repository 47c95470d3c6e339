package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"simple-gallery/internal/gallery"
	"simple-gallery/internal/handlers"
	"simple-gallery/internal/media"
	"simple-gallery/internal/mediatypes"
	"simple-gallery/internal/startup"
)

func newTestHandlers(t *testing.T) (*handlers.Handlers, *media.ThumbnailCache, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	types := mediatypes.DefaultTable()
	thumbs, err := media.NewThumbnailCache(media.Options{Types: types}, 1)
	if err != nil {
		t.Fatal(err)
	}
	provider, err := gallery.New(root, types, true)
	if err != nil {
		t.Fatal(err)
	}
	return handlers.New(thumbs, provider, types), thumbs, root
}

func TestSetupRouter(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	tests := []struct {
		name    string
		metrics bool
		method  string
		target  string
		want    int
	}{
		{"livez", false, http.MethodGet, "/livez", http.StatusOK},
		{"livez head", false, http.MethodHead, "/livez", http.StatusOK},
		{"readyz", false, http.MethodGet, "/readyz", http.StatusOK},
		{"version", false, http.MethodGet, "/version", http.StatusOK},
		{"download", false, http.MethodGet, "/?m=2&f=a.jpg", http.StatusOK},
		{"no mode", false, http.MethodGet, "/", http.StatusNotFound},
		{"post not allowed", false, http.MethodPost, "/?m=1&f=a.jpg", http.StatusMethodNotAllowed},
		{"metrics disabled", false, http.MethodGet, "/metrics", http.StatusNotFound},
		{"metrics enabled", true, http.MethodGet, "/metrics", http.StatusOK},
		{"unknown path", false, http.MethodGet, "/index.php", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			setupRouter(h, tt.metrics).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.target, rec.Code, tt.want)
			}
		})
	}
}

func TestApplyConfig(t *testing.T) {
	h, thumbs, root := newTestHandlers(t)
	cacheDir := t.TempDir()

	cfg := &startup.Config{
		GalleryDir:   root,
		AllowFolders: false,
		Types:        mediatypes.DefaultTable(),
		CacheDir:     cacheDir,
		MaxWidth:     64,
		MaxHeight:    64,
		Quality:      50,
		Engine:       media.EngineNfnt,
		LogLevel:     "info",
	}
	applyConfig(cfg, thumbs, h)

	got := thumbs.Options()
	if got.CacheDir != cacheDir || got.MaxWidth != 64 || got.Engine != media.EngineNfnt {
		t.Errorf("thumbnail options not applied: %+v", got)
	}

	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "b.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	setupRouter(h, false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?m=2&f=sub/b.jpg", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nested download after disabling folders = %d, want 404", rec.Code)
	}

	// a broken gallery dir keeps the previous provider
	cfg.GalleryDir = filepath.Join(root, "missing")
	applyConfig(cfg, thumbs, h)
	rec = httptest.NewRecorder()
	setupRouter(h, false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?m=2&f=a.jpg", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("download after failed reload = %d, want 200", rec.Code)
	}
}
