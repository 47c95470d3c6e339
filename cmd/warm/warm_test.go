package warm

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"simple-gallery/internal/media"
	"simple-gallery/internal/mediatypes"
	"simple-gallery/internal/startup"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 300, 300))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newConfig(t *testing.T) *startup.Config {
	t.Helper()
	root := t.TempDir()
	img := pngBytes(t)

	files := map[string][]byte{
		"a.png":      img,
		"b.png":      img,
		"broken.png": []byte("nope"),
		"readme.txt": []byte("text"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(root, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return &startup.Config{
		GalleryDir:   root,
		AllowFolders: true,
		Types:        mediatypes.DefaultTable(),
		CacheDir:     t.TempDir(),
		MaxWidth:     100,
		MaxHeight:    100,
		Quality:      67,
		Engine:       media.EngineImaging,
		Timeout:      10 * time.Second,
	}
}

func TestRun(t *testing.T) {
	cfg := newConfig(t)

	report, err := Run(context.Background(), cfg, Options{Workers: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := Report{Total: 3, Generated: 2, Failed: 1}
	if report != want {
		t.Errorf("report = %+v, want %+v", report, want)
	}

	for _, name := range []string{"a.png.jpg", "b.png.jpg"} {
		if _, err := os.Stat(filepath.Join(cfg.CacheDir, name)); err != nil {
			t.Errorf("%s not cached: %v", name, err)
		}
	}

	report, err = Run(context.Background(), cfg, Options{Workers: 2})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	want = Report{Total: 3, Skipped: 2, Failed: 1}
	if report != want {
		t.Errorf("second report = %+v, want %+v", report, want)
	}
}

func TestRunSkipsUndecodableTypes(t *testing.T) {
	cfg := newConfig(t)
	cfg.Types = mediatypes.Table{
		mediatypes.MimePNG:  {"png"},
		mediatypes.MimeTIFF: {"tif"},
	}
	if err := os.WriteFile(filepath.Join(cfg.GalleryDir, "scan.tif"), []byte("II*\x00"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := Run(context.Background(), cfg, Options{Workers: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := Report{Total: 4, Generated: 2, Skipped: 1, Failed: 1}
	if report != want {
		t.Errorf("report = %+v, want %+v", report, want)
	}
	if _, err := os.Stat(filepath.Join(cfg.CacheDir, "scan.tif.jpg")); !os.IsNotExist(err) {
		t.Errorf("scan.tif should not be cached, stat err = %v", err)
	}
}

func TestRunDryRun(t *testing.T) {
	cfg := newConfig(t)

	report, err := Run(context.Background(), cfg, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Total != 3 || report.Generated != 0 {
		t.Errorf("report = %+v", report)
	}
	entries, _ := os.ReadDir(cfg.CacheDir)
	if len(entries) != 0 {
		t.Errorf("dry run wrote %d files", len(entries))
	}
}

func TestRunRequiresCache(t *testing.T) {
	cfg := newConfig(t)
	cfg.CacheDir = ""

	if _, err := Run(context.Background(), cfg, Options{}); !errors.Is(err, media.ErrCacheDisabled) {
		t.Errorf("err = %v, want ErrCacheDisabled", err)
	}
}

func TestRunCancelled(t *testing.T) {
	cfg := newConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, cfg, Options{Workers: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if report.Generated != 0 {
		t.Errorf("generated %d thumbnails after cancellation", report.Generated)
	}
}

func TestCommandFlags(t *testing.T) {
	path := ""
	cmd := Command(&path)

	if cmd.Use != "warm" {
		t.Errorf("Use = %q", cmd.Use)
	}
	for _, name := range []string{"workers", "dry-run"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s missing", name)
		}
	}
}
