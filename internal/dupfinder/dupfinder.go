// Package dupfinder drives the two top-level duplicate-finding
// operations over a seeded similarity search backend: an exhaustive
// no-reference search, and a reference-set search.
package dupfinder

import (
	"github.com/Farmadupe/vid-dup-finder/internal/fingerprint"
	"github.com/Farmadupe/vid-dup-finder/internal/matchgroup"
	"github.com/Farmadupe/vid-dup-finder/internal/probe"
	"github.com/Farmadupe/vid-dup-finder/internal/search"
)

// chunkSize bounds how many unmatched items are pulled from the
// backend per round of FindAll, keeping peak memory for the
// in-progress match set bounded on very large corpora.
const chunkSize = 5000

// StatsLookup resolves a path's metadata, used for duration
// affirmation after a structural match is found.
type StatsLookup func(path string) probe.Metadata

// FindAll exhaustively partitions a seeded backend's own contents into
// duplicate groups: repeatedly pull a chunk of not-yet-consumed items,
// search each (consuming matches as they're found), and keep any group
// with more than one member. Stops when no unmatched items remain.
func FindAll(b *search.Backend, tol fingerprint.Distance, stats StatsLookup) []matchgroup.Group {
	var out []matchgroup.Group

	for {
		unmatched := b.FetchUnmatched()
		if len(unmatched) == 0 {
			break
		}
		if len(unmatched) > chunkSize {
			unmatched = unmatched[:chunkSize]
		}

		results := b.Search(unmatched, tol, true)
		for _, matches := range results {
			if len(matches) <= 1 {
				continue
			}
			members := make([]matchgroup.Member, len(matches))
			for i, m := range matches {
				members[i] = matchgroup.Member{Path: m.Path, Hash: m.Hash, Stats: stats(m.Path)}
			}
			out = append(out, matchgroup.Group{Duplicates: members})
		}
	}

	return out
}

// FindWithRefs seeds a deduplicated set of new hashes into their own
// backend, then queries it once per reference with consume=true, so a
// candidate that matches one reference is tainted and cannot also
// satisfy a later reference. Produces at most one reference group per
// reference item.
func FindWithRefs(refBackend *search.Backend, newItems []search.Item, tol fingerprint.Distance, stats StatsLookup, deterministic bool) []matchgroup.Group {
	seen := make(map[string]search.Item, len(newItems))
	for _, it := range newItems {
		seen[it.Path] = it
	}
	deduped := make([]search.Item, 0, len(seen))
	for _, it := range seen {
		deduped = append(deduped, it)
	}

	candBackend := search.New(search.KindBKTree, deduped, deterministic)

	refs := refBackend.FetchUnmatched()
	results := candBackend.Search(refs, tol, true)

	var out []matchgroup.Group
	for i, ref := range refs {
		if len(results[i]) == 0 {
			continue
		}
		out = append(out, toReferenceGroup(ref, results[i], stats))
	}
	return out
}

func toReferenceGroup(reference search.Item, matches []search.Item, stats StatsLookup) matchgroup.Group {
	members := make([]matchgroup.Member, len(matches))
	for i, m := range matches {
		members[i] = matchgroup.Member{Path: m.Path, Hash: m.Hash, Stats: stats(m.Path)}
	}
	return matchgroup.WithReference(reference.Path, reference.Hash, stats(reference.Path), members)
}
