package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/citesearch/citesearch/internal/cache"
	"github.com/citesearch/citesearch/internal/config"
)

const fixtureBib = `@article{a2020, title={Alpha}, year={2020}}
@article{b2021, title={Beta}, year={2021}}
@article{c2022, title={Gamma}, year={2022}}
`

func fixtureSettings(t *testing.T) config.Settings {
	t.Helper()
	dir := t.TempDir()
	bibPath := filepath.Join(dir, "library.bib")
	if err := os.WriteFile(bibPath, []byte(fixtureBib), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg := config.Default()
	cfg.BibtexFile = bibPath
	cfg.CachePath = filepath.Join(dir, "cachedir")
	cfg.ReverseOrder = false
	return cfg
}

func loadKeys(t *testing.T, cfg config.Settings, req Request) []string {
	t.Helper()
	result, err := Load(cfg, req)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var keys []string
	for _, it := range result.Items {
		keys = append(keys, it.Key)
	}
	return keys
}

func TestLoad_ParsesAndCaches(t *testing.T) {
	cfg := fixtureSettings(t)

	result, err := Load(cfg, Request{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if result.FromCache {
		t.Error("first Load() served from cache")
	}
	if result.CacheWarning != "" {
		t.Errorf("CacheWarning = %q", result.CacheWarning)
	}
	if len(result.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(result.Items))
	}
	if _, err := os.Stat(cfg.CacheFilePath()); err != nil {
		t.Errorf("cache file not written: %v", err)
	}

	// Age the source so the cache is fresh, then reload.
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(cfg.BibtexFile, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	result, err = Load(cfg, Request{})
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if !result.FromCache {
		t.Error("second Load() did not use the fresh cache")
	}
	if len(result.Items) != 3 {
		t.Errorf("cached load returned %d items, want 3", len(result.Items))
	}
}

func TestLoad_ReverseOrder(t *testing.T) {
	cfg := fixtureSettings(t)
	cfg.ReverseOrder = true
	keys := loadKeys(t, cfg, Request{})
	want := []string{"c2022", "b2021", "a2020"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestLoad_SearchKeysBypassCache(t *testing.T) {
	cfg := fixtureSettings(t)
	keys := loadKeys(t, cfg, Request{SearchKeys: []string{"b2021"}})
	if len(keys) != 1 || keys[0] != "b2021" {
		t.Fatalf("keys = %v, want [b2021]", keys)
	}
	if _, err := os.Stat(cfg.CacheFilePath()); !os.IsNotExist(err) {
		t.Error("filtered load persisted a cache file")
	}
}

func TestLoad_BypassFlagSkipsCacheEntirely(t *testing.T) {
	cfg := fixtureSettings(t)

	// Prime a cache, then delete the trailing entry from the source.
	if _, err := Load(cfg, Request{}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := os.WriteFile(cfg.BibtexFile, []byte(`@article{a2020, title={Alpha}}`), 0644); err != nil {
		t.Fatalf("rewriting fixture: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(cfg.BibtexFile, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	// Cached load still sees three entries; bypass sees one.
	cached := loadKeys(t, cfg, Request{})
	if len(cached) != 3 {
		t.Fatalf("cached keys = %v, want stale cache of 3", cached)
	}
	fresh := loadKeys(t, cfg, Request{BypassCache: true})
	if len(fresh) != 1 {
		t.Fatalf("bypass keys = %v, want 1", fresh)
	}
}

func TestLoad_CorruptCacheFallsBackToReparse(t *testing.T) {
	cfg := fixtureSettings(t)
	if _, err := Load(cfg, Request{}); err != nil {
		t.Fatalf("priming Load() error = %v", err)
	}
	if err := os.WriteFile(cfg.CacheFilePath(), []byte("garbage"), 0644); err != nil {
		t.Fatalf("corrupting cache: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(cfg.BibtexFile, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	result, err := Load(cfg, Request{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if result.FromCache {
		t.Error("corrupt cache reported as cache hit")
	}
	if len(result.Items) != 3 {
		t.Errorf("got %d items after fallback reparse, want 3", len(result.Items))
	}
	// The fallback rewrote a valid cache.
	if _, err := cache.Read(cfg.CacheFilePath()); err != nil {
		t.Errorf("cache not rewritten after fallback: %v", err)
	}
}

func TestLoad_MissingSource(t *testing.T) {
	cfg := fixtureSettings(t)
	if err := os.Remove(cfg.BibtexFile); err != nil {
		t.Fatalf("removing fixture: %v", err)
	}
	if _, err := Load(cfg, Request{}); !errors.Is(err, config.ErrSourceMissing) {
		t.Errorf("Load() error = %v, want ErrSourceMissing", err)
	}
}

func TestLoad_NoCachePathStillLoads(t *testing.T) {
	cfg := fixtureSettings(t)
	cfg.CachePath = ""
	keys := loadKeys(t, cfg, Request{})
	if len(keys) != 3 {
		t.Fatalf("keys = %v, want 3 items without caching", keys)
	}
}

func TestNewReader_UnknownMode(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "mendeley"
	if _, err := NewReader(cfg); !errors.Is(err, config.ErrNotConfigured) {
		t.Errorf("NewReader() error = %v, want ErrNotConfigured", err)
	}
}
