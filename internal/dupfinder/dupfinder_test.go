package dupfinder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Farmadupe/vid-dup-finder/internal/fingerprint"
	"github.com/Farmadupe/vid-dup-finder/internal/probe"
	"github.com/Farmadupe/vid-dup-finder/internal/search"
)

func fp(words ...uint64) fingerprint.Fingerprint {
	temporal := make([]uint64, 0, len(words)-1)
	for i := 0; i < len(words)-1; i++ {
		temporal = append(temporal, words[i]^words[i+1])
	}
	return fingerprint.Fingerprint{FrameCount: len(words), SpatialHash: words, TemporalHash: temporal}
}

func statsOf(paths map[string]float64) StatsLookup {
	return func(path string) probe.Metadata {
		return probe.Metadata{DurationSecs: paths[path]}
	}
}

func TestFindAllPartitionsDuplicates(t *testing.T) {
	items := []search.Item{
		{Path: "a", Hash: fp(1, 2, 3)},
		{Path: "b", Hash: fp(1, 2, 3)},
		{Path: "c", Hash: fp(9, 9, 9)},
	}
	backend := search.New(search.KindBKTree, items, true)

	groups := FindAll(backend, fingerprint.Distance{}, statsOf(nil))
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Duplicates, 2)
}

func TestFindWithRefsProducesOneGroupPerReference(t *testing.T) {
	refs := []search.Item{{Path: "ref1", Hash: fp(1, 2, 3)}}
	refBackend := search.New(search.KindBKTree, refs, true)

	newItems := []search.Item{
		{Path: "new1", Hash: fp(1, 2, 3)},
		{Path: "new2", Hash: fp(1, 2, 3)}, // duplicate path object, different name
		{Path: "unrelated", Hash: fp(200, 200, 200)},
	}

	groups := FindWithRefs(refBackend, newItems, fingerprint.Distance{}, statsOf(nil), true)
	require.Len(t, groups, 1)
	require.Equal(t, "ref1", groups[0].Reference)
	require.Len(t, groups[0].Duplicates, 2)
}

func TestFindWithRefsConsumesCandidateAcrossReferences(t *testing.T) {
	// Two references share the same hash; a single candidate matches
	// both. It must be consumed by whichever reference is searched
	// first and must not also appear in the second reference's group.
	refs := []search.Item{
		{Path: "ref1", Hash: fp(1, 2, 3)},
		{Path: "ref2", Hash: fp(1, 2, 3)},
	}
	refBackend := search.New(search.KindBKTree, refs, true)

	newItems := []search.Item{
		{Path: "cand", Hash: fp(1, 2, 3)},
	}

	groups := FindWithRefs(refBackend, newItems, fingerprint.Distance{}, statsOf(nil), true)
	require.Len(t, groups, 1)

	total := 0
	for _, g := range groups {
		total += len(g.Duplicates)
	}
	require.Equal(t, 1, total, "candidate must be consumed by only one reference")
}
