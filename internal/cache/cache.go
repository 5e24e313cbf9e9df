// Package cache persists normalized item sequences between searches so a
// large bibliography is not reparsed on every request.
package cache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	"github.com/citesearch/citesearch/internal/bib"
	"github.com/citesearch/citesearch/internal/config"
)

// File layout: magic, BLAKE2b-256 digest of the payload bytes, then the
// gob-encoded payload. The digest catches torn or corrupted writes; the
// payload version catches schema drift between releases.
const (
	magic          = "CSCACHE1"
	digestSize     = blake2b.Size256
	payloadVersion = 1
)

// Cache errors. A corrupt cache is recoverable: callers fall back to a
// full reparse of the source. A failed write degrades to an uncached
// session.
var (
	ErrCorrupt = errors.New("cache is corrupt")
	ErrWrite   = errors.New("cache write failed")
)

type payload struct {
	Version int
	Items   []bib.Item
}

// Write persists the full ordered item sequence at path, replacing any
// prior content. The file is written to a temp name and renamed so a
// concurrent reader never sees a half-written cache.
func Write(path string, items []bib.Item) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload{Version: payloadVersion, Items: items}); err != nil {
		return fmt.Errorf("%w: encoding: %v", ErrWrite, err)
	}
	digest := blake2b.Sum256(buf.Bytes())

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".citesearch-cache-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	defer os.Remove(tmp.Name())

	for _, chunk := range [][]byte{[]byte(magic), digest[:], buf.Bytes()} {
		if _, err := tmp.Write(chunk); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Read loads the item sequence stored at path. Any structural problem
// (bad magic, digest mismatch, undecodable payload, version drift)
// reports ErrCorrupt; items round-trip exactly as written.
func Read(path string) ([]bib.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	if len(data) < len(magic)+digestSize {
		return nil, fmt.Errorf("%w: truncated (%d bytes)", ErrCorrupt, len(data))
	}
	if string(data[:len(magic)]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	var stored [digestSize]byte
	copy(stored[:], data[len(magic):len(magic)+digestSize])
	body := data[len(magic)+digestSize:]
	if blake2b.Sum256(body) != stored {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	var p payload
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrCorrupt, err)
	}
	if p.Version != payloadVersion {
		return nil, fmt.Errorf("%w: payload version %d, want %d", ErrCorrupt, p.Version, payloadVersion)
	}
	return p.Items, nil
}

// IsCurrent reports whether the cache at cachePath may serve in place of
// reparsing sourcePath. A missing cache is simply not current; a missing
// source is an error (the backing store vanished).
//
// Freshness compares modification times: the source must be strictly
// older than the cache. The original design compared creation times,
// which under-invalidates on filesystems that preserve ctime across
// in-place edits; mtime is the stricter substitute.
func IsCurrent(sourcePath, cachePath string) (bool, error) {
	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		return false, fmt.Errorf("%w: %s", config.ErrSourceMissing, sourcePath)
	}
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false, nil // cache miss
	}
	return srcInfo.ModTime().Before(cacheInfo.ModTime()), nil
}
