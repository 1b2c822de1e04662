package search

import (
	"sync"
	"sync/atomic"

	"github.com/Farmadupe/vid-dup-finder/internal/fingerprint"
)

// bkNode is one node of the tree, keyed by its combined scalar distance
// to its parent (Distance.Value()).
type bkNode struct {
	item     Item
	taken    atomic.Bool
	children map[uint32]*bkNode
}

// bkTree is a metric tree over fingerprint.Distance.Value(), exploiting
// the triangle inequality to prune subtrees whose parent-distance lies
// outside [qd-tol, qd+tol] for the query's distance qd to the parent.
// Grounded on the reference implementation's bk_tree.rs.
type bkTree struct {
	mu   sync.Mutex // guards insertion into the tree shape, not taken flags
	root *bkNode
	n    int
}

func newBKTree() *bkTree {
	return &bkTree{}
}

func (t *bkTree) seed(items []Item) {
	for _, it := range items {
		t.insert(it)
	}
}

func (t *bkTree) insert(it Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n++

	node := &bkNode{item: it, children: make(map[uint32]*bkNode)}
	if t.root == nil {
		t.root = node
		return
	}

	cur := t.root
	for {
		d, err := fingerprint.Between(cur.item.Hash, it.Hash)
		if err != nil {
			// incomparable (shouldn't happen once both entries
			// have at least one spatial word); use key 0 of the
			// current node as a fallback bucket.
			d = fingerprint.Distance{}
		}
		key := d.Value()
		next, ok := cur.children[key]
		if !ok {
			cur.children[key] = node
			return
		}
		cur = next
	}
}

func (t *bkTree) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n
}

func (t *bkTree) fetchUnmatched() []Item {
	t.mu.Lock()
	root := t.root
	t.mu.Unlock()

	var out []Item
	var walk func(n *bkNode)
	walk = func(n *bkNode) {
		if n == nil {
			return
		}
		if !n.taken.Load() {
			out = append(out, n.item)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)
	return out
}

func (t *bkTree) searchOne(q Item, tol fingerprint.Distance, consume bool) []Item {
	t.mu.Lock()
	root := t.root
	t.mu.Unlock()

	var out []Item
	tolVal := tol.Value()

	var walk func(n *bkNode)
	walk = func(n *bkNode) {
		if n == nil {
			return
		}
		d, err := fingerprint.Between(n.item.Hash, q.Hash)
		if err == nil && d.WithinTolerance(tol) {
			if !consume || n.taken.CompareAndSwap(false, true) {
				out = append(out, n.item)
			}
		}

		qd := d.Value()
		lo := int64(qd) - int64(tolVal)
		hi := int64(qd) + int64(tolVal)
		for key, child := range n.children {
			if int64(key) >= lo && int64(key) <= hi {
				walk(child)
			}
		}
	}
	walk(root)
	return out
}
