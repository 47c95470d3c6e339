package startup

import (
	"testing"
)

func TestStoreReload(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, `{"thumbs": {"quality": 50}}`)

	loader := NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	store := NewStore(loader, cfg)

	var seen []int
	store.Subscribe(func(c *Config) { seen = append(seen, c.Quality) })

	writeConfig(t, dir, `{"thumbs": {"quality": 75}}`)
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := store.Get().Quality; got != 75 {
		t.Errorf("Quality = %d, want 75", got)
	}
	if cfg.Quality != 50 {
		t.Error("the previous Config must not be modified")
	}
	if len(seen) != 1 || seen[0] != 75 {
		t.Errorf("subscriber saw %v, want [75]", seen)
	}
}

func TestStoreReloadKeepsConfigOnError(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, `{"thumbs": {"quality": 50}}`)

	loader := NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	store := NewStore(loader, cfg)

	called := false
	store.Subscribe(func(*Config) { called = true })

	writeConfig(t, dir, `{"thumbs": {"quality": 500}}`)
	if err := store.Reload(); err == nil {
		t.Fatal("expected reload to fail")
	}
	if store.Get() != cfg {
		t.Error("a rejected reload must keep the current Config")
	}
	if called {
		t.Error("subscribers must not run for a rejected reload")
	}
}

func TestStoreWatchWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	loader := NewLoader("")
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	store := NewStore(loader, cfg)
	store.Watch()

	if store.watching {
		t.Error("Watch should be a no-op without a config file")
	}
}
