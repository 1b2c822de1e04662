package matchgroup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Farmadupe/vid-dup-finder/internal/fingerprint"
	"github.com/Farmadupe/vid-dup-finder/internal/probe"
)

func fp(words ...uint64) fingerprint.Fingerprint {
	temporal := make([]uint64, 0, len(words)-1)
	for i := 0; i < len(words)-1; i++ {
		temporal = append(temporal, words[i]^words[i+1])
	}
	return fingerprint.Fingerprint{FrameCount: len(words), SpatialHash: words, TemporalHash: temporal}
}

func memberOf(path string, hash fingerprint.Fingerprint, dur float64) Member {
	return Member{Path: path, Hash: hash, Stats: probe.Metadata{DurationSecs: dur}}
}

func TestAffirmedSplitsByDuration(t *testing.T) {
	g := Group{Duplicates: []Member{
		memberOf("a.mp4", fp(1), 100),
		memberOf("b.mp4", fp(1), 101), // matches a (within 5%)
		memberOf("c.mp4", fp(1), 200), // does not match a
		memberOf("d.mp4", fp(1), 202), // matches c
	}}

	affirmed := Affirmed(g)
	require.Len(t, affirmed, 2)
	for _, sg := range affirmed {
		require.Len(t, sg.Duplicates, 2)
	}
}

func TestAffirmedDropsSingletons(t *testing.T) {
	g := Group{Duplicates: []Member{
		memberOf("a.mp4", fp(1), 100),
		memberOf("b.mp4", fp(1), 9999), // no match for anything
	}}
	affirmed := Affirmed(g)
	require.Empty(t, affirmed)
}

func TestAffirmedReferenceFiltersByReferenceDuration(t *testing.T) {
	g := Group{
		Reference:      "ref.mp4",
		ReferenceStats: probe.Metadata{DurationSecs: 100},
		Duplicates: []Member{
			memberOf("a.mp4", fp(1), 101), // matches reference
			memberOf("b.mp4", fp(1), 500), // does not match reference
			memberOf("c.mp4", fp(1), 99),  // matches reference
		},
	}

	affirmed := Affirmed(g)
	require.Len(t, affirmed, 1)
	require.Equal(t, "ref.mp4", affirmed[0].Reference)
	require.Len(t, affirmed[0].Duplicates, 2)
	for _, d := range affirmed[0].Duplicates {
		require.NotEqual(t, "b.mp4", d.Path)
	}
}

func TestAffirmedReferenceKeepsSingleSurvivor(t *testing.T) {
	// A reference group only needs one surviving duplicate to remain
	// valid -- reference + 1 duplicate is already a group of size 2.
	g := Group{
		Reference:      "ref.mp4",
		ReferenceStats: probe.Metadata{DurationSecs: 100},
		Duplicates: []Member{
			memberOf("a.mp4", fp(1), 101),
			memberOf("b.mp4", fp(1), 500),
		},
	}

	affirmed := Affirmed(g)
	require.Len(t, affirmed, 1)
	require.Len(t, affirmed[0].Duplicates, 1)
	require.Equal(t, "a.mp4", affirmed[0].Duplicates[0].Path)
}

func TestCartesianProductNoReference(t *testing.T) {
	g := Group{Duplicates: []Member{
		memberOf("a.mp4", fp(1, 2, 3), 100),
		memberOf("b.mp4", fp(1, 2, 3), 101),
		memberOf("c.mp4", fp(1, 2, 3), 102),
	}}
	pairs := CartesianProduct(g, fingerprint.Distance{})
	require.Len(t, pairs, 3) // 3-choose-2, all identical hashes within tolerance
	for _, p := range pairs {
		require.Len(t, p.Duplicates, 2)
	}
}

func TestCartesianProductNoReferenceFiltersByFingerprintDistance(t *testing.T) {
	g := Group{Duplicates: []Member{
		memberOf("a.mp4", fp(1, 2, 3), 100),
		memberOf("b.mp4", fp(1, 2, 3), 101),   // same hash as a: survives
		memberOf("c.mp4", fp(9, 9, 9), 100.5), // duration matches a/b, hash does not
	}}
	pairs := CartesianProduct(g, fingerprint.Distance{})
	require.Len(t, pairs, 1)
	require.Equal(t, "a.mp4", pairs[0].Duplicates[0].Path)
	require.Equal(t, "b.mp4", pairs[0].Duplicates[1].Path)
}

func TestCartesianProductWithReference(t *testing.T) {
	g := Group{Reference: "ref.mp4", Duplicates: []Member{
		memberOf("a.mp4", fp(1), 100),
		memberOf("b.mp4", fp(1), 100),
	}}
	pairs := CartesianProduct(g, fingerprint.Distance{})
	require.Len(t, pairs, 2)
	for _, p := range pairs {
		require.Equal(t, "ref.mp4", p.Reference)
		require.Len(t, p.Duplicates, 1)
	}
}

func TestWithReferenceSortsByPathLength(t *testing.T) {
	g := WithReference("ref.mp4", fp(1), probe.Metadata{DurationSecs: 1}, []Member{
		memberOf("a-very-long-name.mp4", fp(1), 1),
		memberOf("a.mp4", fp(1), 1),
	})
	require.Equal(t, "a.mp4", g.Duplicates[0].Path)
}
