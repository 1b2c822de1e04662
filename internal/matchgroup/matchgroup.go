// Package matchgroup post-processes raw similarity-search matches into
// reportable duplicate groups: grouping by independent duration
// evidence, and expanding multi-member chains into pairwise results.
package matchgroup

import (
	"sort"

	"github.com/Farmadupe/vid-dup-finder/internal/fingerprint"
	"github.com/Farmadupe/vid-dup-finder/internal/probe"
)

// Member is one path participating in a match group, alongside the
// fingerprint and metadata used for affirmation, pairwise expansion,
// and quality ranking.
type Member struct {
	Path  string
	Hash  fingerprint.Fingerprint
	Stats probe.Metadata
}

// Group is a set of paths believed to be duplicates of one another. If
// Reference is non-empty, the group was produced by a reference-mode
// search and Duplicates holds the candidates matched against it;
// ReferenceHash/ReferenceStats describe the reference itself.
type Group struct {
	Reference      string
	ReferenceHash  fingerprint.Fingerprint
	ReferenceStats probe.Metadata
	Duplicates     []Member
}

// WithReference builds a Group from a reference path and its matched
// duplicates, sorted by path length (shortest first), matching the
// reference implementation's tie-breaking convention.
func WithReference(reference string, referenceHash fingerprint.Fingerprint, referenceStats probe.Metadata, duplicates []Member) Group {
	sorted := append([]Member(nil), duplicates...)
	sort.Slice(sorted, func(i, j int) bool {
		return len(sorted[i].Path) < len(sorted[j].Path)
	})
	return Group{Reference: reference, ReferenceHash: referenceHash, ReferenceStats: referenceStats, Duplicates: sorted}
}

// Affirmed corroborates a raw match group by independent duration
// evidence. With a reference, every duplicate is compared directly
// against the reference's own duration (not against each other), and
// duplicates outside +/-5% are dropped; the reference needs only one
// surviving duplicate to remain a valid group. Without a reference, the
// no-reference chain algorithm applies and singleton sub-groups (no
// duration corroboration found) are dropped.
func Affirmed(g Group) []Group {
	if g.Reference != "" {
		return affirmReference(g)
	}

	subgroups := affirmAll(g.Duplicates)

	var out []Group
	for _, sg := range subgroups {
		if len(sg) < 2 {
			continue
		}
		out = append(out, Group{Duplicates: sg})
	}
	return out
}

// affirmReference drops duplicates whose duration is not within 5% of
// the reference's own duration, matching match_group.rs's
// affirmed_reference. A single surviving duplicate is enough for the
// group to remain valid.
func affirmReference(g Group) []Group {
	var kept []Member
	for _, d := range g.Duplicates {
		if g.ReferenceStats.IsMatch(d.Stats) {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return []Group{{
		Reference:      g.Reference,
		ReferenceHash:  g.ReferenceHash,
		ReferenceStats: g.ReferenceStats,
		Duplicates:     kept,
	}}
}

// affirmAll groups candidates with no privileged reference: the first
// candidate seeds a sub-group, subsequent candidates join the first
// sub-group whose seed duration matches, or seed a new sub-group.
func affirmAll(candidates []Member) [][]Member {
	var groups [][]Member
	for _, c := range candidates {
		placed := false
		for i, g := range groups {
			if g[0].Stats.IsMatch(c.Stats) {
				groups[i] = append(groups[i], c)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []Member{c})
		}
	}
	return groups
}

// DupsWithLowestPngSize returns every duplicate in a no-reference group
// except the one with the largest PNGSize, treating that member as the
// probable higher-quality source. Informational only -- supplemented
// from the reference implementation's dups_with_lowest_pngsize, dropped
// by the distilled spec but cheap to keep for reporting.
func DupsWithLowestPngSize(g Group, pngSize func(path string) int) []Member {
	if g.Reference != "" || len(g.Duplicates) == 0 {
		return nil
	}
	maxIdx := 0
	maxSize := pngSize(g.Duplicates[0].Path)
	for i, m := range g.Duplicates[1:] {
		if s := pngSize(m.Path); s > maxSize {
			maxSize = s
			maxIdx = i + 1
		}
	}
	out := make([]Member, 0, len(g.Duplicates)-1)
	for i, m := range g.Duplicates {
		if i != maxIdx {
			out = append(out, m)
		}
	}
	return out
}

// CartesianProduct expands a >2-member group into pairwise groups. For
// a reference-mode group, that is one 2-member group per duplicate
// against the (shared) reference. For a no-reference group, it is
// every 2-combination of duplicates whose recomputed fingerprint
// distance is still within tol, matching match_group.rs's
// cartesian_product (which keys on a_hash.distance(&b_hash), not
// duration -- duration is Affirmed's criterion).
func CartesianProduct(g Group, tol fingerprint.Distance) []Group {
	if g.Reference != "" {
		out := make([]Group, 0, len(g.Duplicates))
		for _, d := range g.Duplicates {
			out = append(out, Group{Reference: g.Reference, ReferenceHash: g.ReferenceHash, ReferenceStats: g.ReferenceStats, Duplicates: []Member{d}})
		}
		return out
	}

	var out []Group
	for i := 0; i < len(g.Duplicates); i++ {
		for j := i + 1; j < len(g.Duplicates); j++ {
			a, b := g.Duplicates[i], g.Duplicates[j]
			d, err := fingerprint.Between(a.Hash, b.Hash)
			if err == nil && d.WithinTolerance(tol) {
				out = append(out, Group{Duplicates: []Member{a, b}})
			}
		}
	}
	return out
}
