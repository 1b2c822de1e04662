package videocache

import (
	"sync"
)

// Reconcile brings the cache in line with a projected set of paths: it
// first drops any cached key that belongs to the projection (as judged
// by includes) but no longer exists on disk, then inserts or refreshes
// every path in paths. Errors from the insert phase are collected and
// returned together; a reconciliation error for one path never aborts
// the others.
func (c *Cache[T]) Reconcile(paths []string, includes func(path string) bool, onProgress ...func()) []error {
	var errs []error
	var mu sync.Mutex

	stale := c.staleKeys(includes)
	for _, k := range stale {
		c.Remove(k)
	}

	var report func()
	if len(onProgress) > 0 {
		report = onProgress[0]
	}

	var wg sync.WaitGroup
	for _, p := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			if _, err := c.FetchOrInsert(path); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			if report != nil {
				report()
			}
		}(p)
	}
	wg.Wait()

	return errs
}

// staleKeys returns cached keys that the projection includes but that
// no longer exist on disk.
func (c *Cache[T]) staleKeys(includes func(path string) bool) []string {
	keys := c.Keys()
	var stale []string
	for _, k := range keys {
		if !includes(k) {
			continue
		}
		if !pathExists(k) {
			stale = append(stale, k)
		}
	}
	return stale
}
