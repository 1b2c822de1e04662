// Package search provides bounded-distance similarity search over a
// set of seeded fingerprints, with two interchangeable backends (a
// BK-tree and a linear scan) behind one Backend type, and "consume"
// semantics so a seeded item matches at most once per search.
package search

import (
	"runtime"
	"sync"

	"github.com/Farmadupe/vid-dup-finder/internal/fingerprint"
)

// Item is one seeded entry: a path and the fingerprint to search
// against.
type Item struct {
	Path string
	Hash fingerprint.Fingerprint
}

// core is the minimal set of operations a concrete search structure
// must provide; Backend composes it with ordering behavior.
type core interface {
	seed(items []Item)
	searchOne(q Item, tol fingerprint.Distance, consume bool) []Item
	fetchUnmatched() []Item
	len() int
}

// Kind selects which concrete search structure a Backend wraps.
type Kind int

const (
	// KindBKTree uses a metric tree that exploits the triangle
	// inequality to prune most of the seeded set per query.
	KindBKTree Kind = iota
	// KindLinear scans every seeded entry per query. Simpler, and
	// sometimes faster for small seeded sets where tree overhead
	// dominates.
	KindLinear
)

// Backend is a seeded similarity-search structure. Replaces the
// reference implementation's four-way enum (tree/linear crossed with
// deterministic/parallel) with one struct composing a core
// implementation and an ordering flag -- the same observable behavior
// without 4x code duplication.
type Backend struct {
	core          core
	deterministic bool
}

// New builds a Backend of the given kind, seeded with items. When
// deterministic is true, Search processes queries strictly in the
// order given, on the calling goroutine; otherwise queries are
// dispatched to a worker pool and results may complete out of order.
func New(kind Kind, items []Item, deterministic bool) *Backend {
	var c core
	switch kind {
	case KindBKTree:
		c = newBKTree()
	default:
		c = newLinear()
	}
	c.seed(items)
	return &Backend{core: c, deterministic: deterministic}
}

// Len returns the number of seeded entries still held by the backend
// (including ones already consumed by a prior search).
func (b *Backend) Len() int {
	return b.core.len()
}

// FetchUnmatched returns every seeded item not yet consumed by a
// search performed with consume=true.
func (b *Backend) FetchUnmatched() []Item {
	return b.core.fetchUnmatched()
}

// Search runs one query per item in queries, returning the seeded
// items within tol of each query, in the same order as queries. When
// consume is true, a matched seeded entry is tainted so it cannot
// satisfy a later query in this or any subsequent Search call.
func (b *Backend) Search(queries []Item, tol fingerprint.Distance, consume bool) [][]Item {
	if b.deterministic {
		out := make([][]Item, len(queries))
		for i, q := range queries {
			out[i] = b.core.searchOne(q, tol, consume)
		}
		return out
	}

	out := make([][]Item, len(queries))
	workers := runtime.GOMAXPROCS(0)
	if workers > len(queries) {
		workers = len(queries)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, len(queries))
	for i := range queries {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = b.core.searchOne(queries[i], tol, consume)
			}
		}()
	}
	wg.Wait()
	return out
}
