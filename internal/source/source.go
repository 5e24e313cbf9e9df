// Package source selects the backing-store reader and applies the
// read-through cache policy around it.
package source

import (
	"errors"
	"fmt"

	"github.com/citesearch/citesearch/internal/bib"
	"github.com/citesearch/citesearch/internal/bibtex"
	"github.com/citesearch/citesearch/internal/cache"
	"github.com/citesearch/citesearch/internal/config"
	"github.com/citesearch/citesearch/internal/zotero"
)

// Reader is the contract every backing store implements: an ordered
// sequence of normalized items. Constructors fail fast when the store's
// locator is invalid.
type Reader interface {
	Load() ([]bib.Item, error)
}

// KeyFilterer is implemented by readers that can restrict a load to
// specific citation keys at the store level.
type KeyFilterer interface {
	LoadKeys(keys []string) ([]bib.Item, error)
}

// NewReader constructs the reader for the configured mode.
func NewReader(cfg config.Settings) (Reader, error) {
	switch cfg.Mode {
	case "bibtex":
		return bibtex.New(cfg)
	case "zotero":
		return zotero.New(cfg)
	}
	return nil, fmt.Errorf("%w: mode %q", config.ErrNotConfigured, cfg.Mode)
}

// Request describes one load. SearchKeys restricts the load to specific
// keys; BypassCache forces a reparse. Either disables the cache for the
// request, because a partial load must never be persisted as the
// complete item set.
type Request struct {
	SearchKeys  []string
	BypassCache bool
}

// Result carries the loaded items plus cache diagnostics. CacheWarning
// is set when a cache write failed and the session degraded to uncached;
// the load itself still succeeded.
type Result struct {
	Items        []bib.Item
	FromCache    bool
	CacheWarning string
}

// Load runs the load pipeline: serve from the cache when it is fresh,
// otherwise read the source, normalize, and rewrite the cache
// best-effort. A corrupt cache falls back to a full reparse.
func Load(cfg config.Settings, req Request) (Result, error) {
	cacheFile := cfg.CacheFilePath()
	useCache := cacheFile != "" && len(req.SearchKeys) == 0 && !req.BypassCache

	if useCache {
		current, err := cache.IsCurrent(cfg.SourcePath(), cacheFile)
		if err != nil {
			return Result{}, err
		}
		if current {
			items, err := cache.Read(cacheFile)
			if err == nil {
				return Result{Items: items, FromCache: true}, nil
			}
			if !errors.Is(err, cache.ErrCorrupt) {
				return Result{}, err
			}
			// Corrupt cache: reparse and rewrite below.
		}
	}

	reader, err := NewReader(cfg)
	if err != nil {
		return Result{}, err
	}

	var items []bib.Item
	if len(req.SearchKeys) > 0 {
		if kf, ok := reader.(KeyFilterer); ok {
			items, err = kf.LoadKeys(req.SearchKeys)
		} else {
			items, err = reader.Load()
			if err == nil {
				items = filterKeys(items, req.SearchKeys)
			}
		}
	} else {
		items, err = reader.Load()
	}
	if err != nil {
		return Result{}, err
	}

	if cfg.ReverseOrder {
		reverse(items)
	}

	result := Result{Items: items}
	if useCache {
		if err := cache.Write(cacheFile, items); err != nil {
			result.CacheWarning = err.Error()
		}
	}
	return result, nil
}

func reverse(items []bib.Item) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

func filterKeys(items []bib.Item, keys []string) []bib.Item {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var filtered []bib.Item
	for _, it := range items {
		if want[it.Key] {
			filtered = append(filtered, it)
		}
	}
	return filtered
}
