package main

import (
	"log/slog"
	"strconv"

	"github.com/Farmadupe/vid-dup-finder/internal/fileset"
	"github.com/Farmadupe/vid-dup-finder/internal/fingerprint"
	"github.com/Farmadupe/vid-dup-finder/internal/matchgroup"
	"github.com/Farmadupe/vid-dup-finder/internal/output"
	"github.com/Farmadupe/vid-dup-finder/internal/probe"
	"github.com/Farmadupe/vid-dup-finder/internal/search"
	"github.com/Farmadupe/vid-dup-finder/internal/thumbnail"
	"github.com/Farmadupe/vid-dup-finder/internal/videocache"
)

// updateCache reconciles the cache with fs.Sources's current contents
// via the fileset's Includes predicate, reporting progress against the
// number of paths being reconciled.
func updateCache(cache *videocache.Cache[fingerprint.Entry], fs fileset.FileSet) error {
	paths, err := fs.EnumerateFromFS()
	if err != nil {
		return err
	}

	prog := output.NewProgress("hashing", len(paths))
	defer prog.Stop()

	for _, err := range cache.Reconcile(paths, fs.Includes, func() { prog.Add(1) }) {
		// non-fatal: one unreadable file shouldn't abort the whole run
		logNonFatal(err)
	}
	return nil
}

// itemsFromCache builds search.Item values from cached, successfully
// hashed entries among paths. Entries that failed processing
// (NotVideo/ShortVideo/ProcessingError) are skipped.
func itemsFromCache(cache *videocache.Cache[fingerprint.Entry], paths []string) []search.Item {
	items := make([]search.Item, 0, len(paths))
	for _, p := range paths {
		e, ok := cache.Fetch(p)
		if !ok || e.Kind != fingerprint.KindVideo {
			continue
		}
		items = append(items, search.Item{Path: p, Hash: e.Hash})
	}
	return items
}

func logNonFatal(err error) {
	slog.Warn("non-fatal error", "error", err)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

// expand affirms a raw match group by duration evidence and, for
// chains of more than two members, expands it into pairwise groups
// whose fingerprint distance is recomputed against tol.
func expand(g matchgroup.Group, tol fingerprint.Distance) []matchgroup.Group {
	affirmed := matchgroup.Affirmed(g)
	var out []matchgroup.Group
	for _, a := range affirmed {
		if len(a.Duplicates) > 2 {
			out = append(out, matchgroup.CartesianProduct(a, tol)...)
		} else {
			out = append(out, a)
		}
	}
	return out
}

func toView(g matchgroup.Group) output.GroupView {
	paths := make([]string, len(g.Duplicates))
	for i, m := range g.Duplicates {
		paths[i] = m.Path
	}

	view := output.GroupView{Reference: g.Reference, Duplicates: paths}
	if g.Reference == "" && len(g.Duplicates) > 1 {
		lower := matchgroup.DupsWithLowestPngSize(g, probe.PNGSize)
		view.LikelyLowerQuality = make([]string, len(lower))
		for i, m := range lower {
			view.LikelyLowerQuality[i] = m.Path
		}
	}
	return view
}

func setDifference(all, matched []string) []string {
	in := make(map[string]struct{}, len(matched))
	for _, m := range matched {
		in[m] = struct{}{}
	}
	var out []string
	for _, p := range all {
		if _, ok := in[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func writeThumbnails(dir string, groups []output.GroupView) {
	for i, g := range groups {
		paths := append([]string{}, g.Duplicates...)
		if g.Reference != "" {
			paths = append([]string{g.Reference}, paths...)
		}
		name := groupThumbnailName(i)
		if err := thumbnail.WriteGroup(dir, name, paths); err != nil {
			logNonFatal(err)
		}
	}
}

func groupThumbnailName(i int) string {
	return "group-" + itoa(i) + ".png"
}
