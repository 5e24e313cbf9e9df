package cache

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/citesearch/citesearch/internal/bib"
	"github.com/citesearch/citesearch/internal/config"
)

func sampleItems() []bib.Item {
	a := bib.Item{
		Key:         "Smith2020",
		Title:       "Neural Networks",
		Author:      "Smith & Doe",
		Date:        "2020",
		Collections: []string{"ML"},
	}
	a.Combine()
	b := bib.Item{Key: "Empty2021"} // everything else empty
	b.Combine()
	c := bib.Item{
		Key:      "Doe2019",
		URL:      "https://example.org/doe",
		File:     "/papers/doe.pdf",
		Abstract: "An abstract with unicode: αβγ.",
	}
	c.Combine()
	return []bib.Item{a, b, c}
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		items := sampleItems()[:n]
		path := filepath.Join(t.TempDir(), "cache")
		if err := Write(path, items); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		got, err := Read(path)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if len(got) != len(items) {
			t.Fatalf("Read() returned %d items, want %d", len(got), n)
		}
		for i := range items {
			if !reflect.DeepEqual(got[i], items[i]) {
				t.Errorf("item %d: got %+v, want %+v", i, got[i], items[i])
			}
		}
	}
}

func TestWrite_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache")
	if err := Write(path, sampleItems()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := Write(path, sampleItems()[:1]); err != nil {
		t.Fatalf("second Write() error = %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Read() returned %d items after overwrite, want 1", len(got))
	}
}

func TestWrite_UncreatablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	// Parent "directory" is a regular file, so the write must fail.
	err := Write(filepath.Join(blocker, "cache"), sampleItems())
	if !errors.Is(err, ErrWrite) {
		t.Errorf("Write() error = %v, want ErrWrite", err)
	}
}

func TestRead_Corruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache")
	if err := Write(path, sampleItems()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	good, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated header", good[:10]},
		{"bad magic", append([]byte("NOTCACHE"), good[8:]...)},
		{"flipped payload byte", flipLastByte(good)},
		{"empty file", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(dir, "bad-"+tt.name)
			if err := os.WriteFile(p, tt.data, 0644); err != nil {
				t.Fatalf("fixture: %v", err)
			}
			if _, err := Read(p); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Read() error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func flipLastByte(data []byte) []byte {
	out := append([]byte(nil), data...)
	out[len(out)-1] ^= 0xff
	return out
}

func TestIsCurrent(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "library.bib")
	cachePath := filepath.Join(dir, "cache")

	if err := os.WriteFile(source, []byte("@misc{a}"), 0644); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	// Cache absent: not current, no error.
	current, err := IsCurrent(source, cachePath)
	if err != nil {
		t.Fatalf("IsCurrent() error = %v", err)
	}
	if current {
		t.Error("IsCurrent() = true with no cache file")
	}

	// Cache newer than source: current.
	if err := Write(cachePath, sampleItems()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(source, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	current, err = IsCurrent(source, cachePath)
	if err != nil {
		t.Fatalf("IsCurrent() error = %v", err)
	}
	if !current {
		t.Error("IsCurrent() = false with cache newer than source")
	}

	// Source newer than cache: stale.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(source, future, future); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	current, err = IsCurrent(source, cachePath)
	if err != nil {
		t.Fatalf("IsCurrent() error = %v", err)
	}
	if current {
		t.Error("IsCurrent() = true with source newer than cache")
	}

	// Source missing: error.
	if _, err := IsCurrent(filepath.Join(dir, "gone.bib"), cachePath); !errors.Is(err, config.ErrSourceMissing) {
		t.Errorf("IsCurrent() error = %v, want ErrSourceMissing", err)
	}
}
