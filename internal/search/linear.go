package search

import (
	"sync"
	"sync/atomic"

	"github.com/Farmadupe/vid-dup-finder/internal/fingerprint"
)

// linearEntry wraps a seeded Item with a taint flag for consume
// semantics.
type linearEntry struct {
	item  Item
	taken atomic.Bool
}

// linear is the simplest possible search backend: every query is
// compared against every seeded entry. Grounded on the reference
// implementation's search_vec.rs.
type linear struct {
	mu      sync.RWMutex
	entries []*linearEntry
}

func newLinear() *linear {
	return &linear{}
}

func (l *linear) seed(items []Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, it := range items {
		l.entries = append(l.entries, &linearEntry{item: it})
	}
}

func (l *linear) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *linear) fetchUnmatched() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Item
	for _, e := range l.entries {
		if !e.taken.Load() {
			out = append(out, e.item)
		}
	}
	return out
}

func (l *linear) searchOne(q Item, tol fingerprint.Distance, consume bool) []Item {
	l.mu.RLock()
	entries := l.entries
	l.mu.RUnlock()

	var out []Item
	for _, e := range entries {
		d, err := fingerprint.Between(e.item.Hash, q.Hash)
		if err != nil || !d.WithinTolerance(tol) {
			continue
		}
		if !consume || e.taken.CompareAndSwap(false, true) {
			out = append(out, e.item)
		}
	}
	return out
}
