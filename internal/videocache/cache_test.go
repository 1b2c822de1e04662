package videocache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchOrInsertComputesOnce(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "a.mp4")
	require.NoError(t, os.WriteFile(videoPath, []byte("data"), 0o644))

	calls := 0
	cache, err := Open(filepath.Join(dir, "cache.bin"), func(path string) string {
		calls++
		return "processed:" + path
	})
	require.NoError(t, err)

	v1, err := cache.FetchOrInsert(videoPath)
	require.NoError(t, err)
	require.Equal(t, "processed:"+videoPath, v1)

	v2, err := cache.FetchOrInsert(videoPath)
	require.NoError(t, err)
	require.Equal(t, v1, v2)
	require.Equal(t, 1, calls)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "a.mp4")
	require.NoError(t, os.WriteFile(videoPath, []byte("data"), 0o644))
	cachePath := filepath.Join(dir, "cache.bin")

	cache, err := Open(cachePath, func(path string) string { return "v1" })
	require.NoError(t, err)
	_, err = cache.FetchOrInsert(videoPath)
	require.NoError(t, err)
	require.NoError(t, cache.Save())

	reloaded, err := Open(cachePath, func(path string) string { return "v2" })
	require.NoError(t, err)
	v, ok := reloaded.Fetch(videoPath)
	require.True(t, ok)
	require.Equal(t, "v1", v)
}

func TestMtimeStalenessBoundary(t *testing.T) {
	now := time.Now()

	require.False(t, isStale(now, now.Add(2*time.Second)))
	require.True(t, isStale(now, now.Add(3*time.Second)))
	require.False(t, isStale(now, now.Add(-2*time.Second)))
	require.True(t, isStale(now, now.Add(-3*time.Second)))
}

func TestMissingCacheFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	cache, err := Open(filepath.Join(dir, "missing.bin"), func(path string) string { return "" })
	require.NoError(t, err)
	require.Equal(t, 0, cache.Len())
}

func TestReconcileRemovesStaleAndInsertsNew(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.mp4")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))

	cache, err := Open(filepath.Join(dir, "cache.bin"), func(path string) string { return "ok" })
	require.NoError(t, err)

	gone := filepath.Join(dir, "gone.mp4")
	cache.mu.Lock()
	cache.entries[gone] = Entry[string]{ModTime: time.Now(), Value: "stale"}
	cache.mu.Unlock()

	includes := func(path string) bool { return filepath.Dir(path) == dir }
	errs := cache.Reconcile([]string{keep}, includes)
	require.Empty(t, errs)

	require.False(t, cache.Contains(gone))
	require.True(t, cache.Contains(keep))
}
