// Package videocache is a keyed, persistent, mtime-aware cache mapping
// video file paths to whatever a caller's processing function computes
// for them (fingerprint + metadata, in this program). It is safe for
// concurrent use, batches disk writes, and tolerates the loose mtime
// granularity of network/FUSE filesystems.
package videocache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// mtimeStaleness is the tolerance, in seconds, applied when comparing a
// cached entry's recorded mtime against the file's current mtime.
// Needed because some filesystems (FUSE, network mounts) round mtimes
// to coarser granularity than the kernel reports at write time.
const mtimeStaleness = 2 * time.Second

// SaveThreshold is the default number of mutating operations between
// automatic background saves.
const SaveThreshold = 100

// Entry is one cached value alongside the source mtime it was computed
// from, used to detect staleness.
type Entry[T any] struct {
	ModTime time.Time
	Value   T
}

// ProcessingFunc computes the cached value for a path not yet present,
// or whose cached entry has gone stale.
type ProcessingFunc[T any] func(path string) T

// Cache is a generic, persistent, keyed cache of per-path values.
type Cache[T any] struct {
	path     string
	process  ProcessingFunc[T]
	mu       sync.RWMutex
	entries  map[string]Entry[T]
	modCount atomic.Uint32
	saveEach uint32

	// saveMu serializes Save(), including the tmp-file write/rename
	// sequence, so concurrent threshold crossings from Reconcile's
	// per-path goroutines can't write the same tmp path at once.
	saveMu sync.Mutex
}

// Open loads a cache from path if it exists (a missing file is not an
// error — an empty cache is returned), or creates a fresh empty cache.
func Open[T any](path string, process ProcessingFunc[T]) (*Cache[T], error) {
	c := &Cache[T]{
		path:     path,
		process:  process,
		entries:  make(map[string]Entry[T]),
		saveEach: SaveThreshold,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("videocache: read %s: %w", path, err)
	}

	var entries map[string]Entry[T]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		return nil, fmt.Errorf("videocache: decode %s: %w", path, err)
	}
	c.entries = entries
	return c, nil
}

// Len returns the number of cached entries.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Contains reports whether path has a cached entry, regardless of
// staleness.
func (c *Cache[T]) Contains(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[path]
	return ok
}

// Keys returns every cached path.
func (c *Cache[T]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// Fetch returns the cached value for path without recomputing it, even
// if stale. The bool reports whether path was cached at all.
func (c *Cache[T]) Fetch(path string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	return e.Value, ok
}

// Remove deletes path's cached entry, if any.
func (c *Cache[T]) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
	c.bumpAndMaybeSaveLocked()
}

// FetchOrInsert returns path's cached value if present and not stale
// relative to the file's current mtime; otherwise it runs the
// processing function, inserts the result, and returns it.
func (c *Cache[T]) FetchOrInsert(path string) (T, error) {
	fi, err := os.Stat(path)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("videocache: stat %s: %w", path, err)
	}

	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && !isStale(e.ModTime, fi.ModTime()) {
		return e.Value, nil
	}

	return c.ForceReload(path, fi.ModTime())
}

// ForceReload recomputes and inserts path's value unconditionally.
func (c *Cache[T]) ForceReload(path string, modTime time.Time) (T, error) {
	val := c.process(path)
	c.mu.Lock()
	c.entries[path] = Entry[T]{ModTime: modTime, Value: val}
	c.bumpAndMaybeSaveLocked()
	c.mu.Unlock()
	return val, nil
}

// isStale reports whether the cached and on-disk mtimes differ by more
// than mtimeStaleness.
func isStale(cached, onDisk time.Time) bool {
	d := cached.Sub(onDisk)
	if d < 0 {
		d = -d
	}
	return d > mtimeStaleness
}

func (c *Cache[T]) bumpAndMaybeSaveLocked() {
	n := c.modCount.Add(1)
	if c.saveEach != 0 && n%c.saveEach == 0 {
		go func() {
			if err := c.Save(); err != nil {
				slog.Warn("videocache: background save failed", "error", err)
			}
		}()
	}
}

// Save atomically persists the cache to its backing file: encode to a
// temp file in the same directory, fsync, then rename over the
// original, so a concurrent reader never observes a partial write.
// The whole body runs under saveMu, so concurrent callers (e.g.
// several background saves triggered by Reconcile crossing
// SaveThreshold at once) never write the same tmp path simultaneously.
func (c *Cache[T]) Save() error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.RLock()
	snapshot := make(map[string]Entry[T], len(c.entries))
	for k, v := range c.entries {
		snapshot[k] = v
	}
	c.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("videocache: mkdir %s: %w", filepath.Dir(c.path), err)
	}

	tmp := c.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("videocache: create %s: %w", tmp, err)
	}

	enc := gob.NewEncoder(f)
	if err := enc.Encode(snapshot); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("videocache: encode: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("videocache: sync: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("videocache: close: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("videocache: rename %s -> %s: %w", tmp, c.path, err)
	}
	return nil
}
