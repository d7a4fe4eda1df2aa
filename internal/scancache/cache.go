// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scancache memoizes per-file scan results keyed by file
// identity and a modification fingerprint. A cached result is valid
// only while its stored fingerprint equals the file's current one;
// stale results are replaced wholesale, never merged across versions.
package scancache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/l3nkz/ycmtex/pkg/types"
)

// Result is the extraction output for one file. A source document
// fills References and Databases; a bibliographic database fills
// Citations.
type Result struct {
	References []types.ReferenceEntry
	Citations  []types.CitationEntry
	Databases  []string
	Warnings   []types.Warning
}

// ScanFunc extracts a Result from file content. It must be pure:
// rescanning the same content yields the same result.
type ScanFunc func(path, content string) Result

type cached struct {
	fp  types.Fingerprint
	res Result
}

// Cache memoizes scan results for the lifetime of the process. It is
// safe for concurrent use; scans of distinct files proceed in
// parallel, while a per-file lock keeps concurrent scans of the same
// file down to one.
type Cache struct {
	entries *lru.Cache[string, cached]

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a cache bounded to cfg.MaxEntries file results.
func New(cfg types.CacheConfig) (*Cache, error) {
	max := cfg.MaxEntries
	if max <= 0 {
		max = 512
	}
	entries, err := lru.New[string, cached](max)
	if err != nil {
		return nil, fmt.Errorf("creating scan cache: %w", err)
	}
	return &Cache{
		entries: entries,
		locks:   map[string]*sync.Mutex{},
	}, nil
}

// GetOrScan returns the cached result for path when its fingerprint is
// unchanged, otherwise reads the file, invokes scan, stores the new
// result under the new fingerprint and returns it. An unreadable file
// is an error; the caller decides whether that skips the file or
// fails the round.
func (c *Cache) GetOrScan(path string, scan ScanFunc) (Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{}, fmt.Errorf("resolving %s: %w", path, err)
	}

	lock := c.fileLock(abs)
	lock.Lock()
	defer lock.Unlock()

	fp, err := fingerprint(abs)
	if err != nil {
		return Result{}, err
	}

	if entry, ok := c.entries.Get(abs); ok && entry.fp == fp {
		return entry.res, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", abs, err)
	}

	res := scan(abs, string(data))
	c.entries.Add(abs, cached{fp: fp, res: res})
	return res, nil
}

// Invalidate forcibly evicts the entry for path, if any.
func (c *Cache) Invalidate(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	c.entries.Remove(abs)
}

// Purge drops every cached result.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Len returns the number of cached file results.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// fileLock returns the mutex guarding scans of one file, creating it
// on first use. Locks are never discarded; the map is bounded by the
// number of distinct files seen.
func (c *Cache) fileLock(abs string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[abs]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[abs] = lock
	}
	return lock
}

// fingerprint computes the change-detection signature for a file:
// modification time plus size. Cheap enough to recompute on every
// query, which is what makes keystroke-frequency rescans viable.
func fingerprint(abs string) (types.Fingerprint, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return types.Fingerprint{}, fmt.Errorf("stat %s: %w", abs, err)
	}
	return types.Fingerprint{
		ModTime: info.ModTime().UTC().Format(time.RFC3339Nano),
		Size:    info.Size(),
	}, nil
}
