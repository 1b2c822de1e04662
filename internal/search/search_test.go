package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Farmadupe/vid-dup-finder/internal/fingerprint"
)

func fp(words ...uint64) fingerprint.Fingerprint {
	temporal := make([]uint64, 0, len(words)-1)
	for i := 0; i < len(words)-1; i++ {
		temporal = append(temporal, words[i]^words[i+1])
	}
	return fingerprint.Fingerprint{FrameCount: len(words), SpatialHash: words, TemporalHash: temporal}
}

func testItems() []Item {
	return []Item{
		{Path: "a", Hash: fp(1, 2, 3)},
		{Path: "b", Hash: fp(1, 2, 3)}, // identical to a
		{Path: "c", Hash: fp(0xFF, 0xAA, 0x55)},
	}
}

func TestBKTreeFindsExactMatch(t *testing.T) {
	items := testItems()
	b := New(KindBKTree, items, true)

	results := b.Search([]Item{items[0]}, fingerprint.Distance{}, false)
	require.Len(t, results, 1)

	var paths []string
	for _, m := range results[0] {
		paths = append(paths, m.Path)
	}
	require.Contains(t, paths, "a")
	require.Contains(t, paths, "b")
	require.NotContains(t, paths, "c")
}

func TestLinearFindsExactMatch(t *testing.T) {
	items := testItems()
	b := New(KindLinear, items, true)

	results := b.Search([]Item{items[0]}, fingerprint.Distance{}, false)
	var paths []string
	for _, m := range results[0] {
		paths = append(paths, m.Path)
	}
	require.Contains(t, paths, "a")
	require.Contains(t, paths, "b")
}

func TestConsumeAtMostOnce(t *testing.T) {
	items := testItems()
	b := New(KindBKTree, items, true)

	tol := fingerprint.Distance{Spatial: 1 << 20, Temporal: 1 << 20}
	first := b.Search([]Item{items[0]}, tol, true)
	second := b.Search([]Item{items[0]}, tol, true)

	require.NotEmpty(t, first[0])
	require.Empty(t, second[0])
}

func TestFetchUnmatchedAfterConsume(t *testing.T) {
	items := testItems()
	b := New(KindLinear, items, true)
	require.Equal(t, 3, b.Len())

	tol := fingerprint.Distance{}
	b.Search([]Item{items[0]}, tol, true)

	unmatched := b.FetchUnmatched()
	var paths []string
	for _, m := range unmatched {
		paths = append(paths, m.Path)
	}
	require.NotContains(t, paths, "a")
	require.NotContains(t, paths, "b")
	require.Contains(t, paths, "c")
}
