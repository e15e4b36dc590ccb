package segtree

import "fmt"

// noChild marks a leaf in the node arena.
const noChild = -1

// node is a segment tree node covering leaves [lo, hi]. The summary fields
// already include pending; pending is the part not yet pushed to children.
type node struct {
	lo, hi      int32
	left, right int32

	minOvp  int64
	maxOvp  int64
	pending int64

	// span is the total length of the leaves below this node.
	span float64
	// minLen is the length of the leaves whose count equals minOvp.
	minLen float64
	// covered is the length of the leaves with a count >= 1.
	covered float64
}

func (n *node) isLeaf() bool {
	return n.left == noChild
}

// tree is an array-backed segment tree with lazy range-add over the
// elementary intervals of a CoordinateIndex.
type tree struct {
	nodes  []node
	coords *CoordinateIndex
}

// newTree builds a balanced tree over every elementary interval of coords.
// All counts start at zero.
func newTree(coords *CoordinateIndex) *tree {
	leaves := coords.Leaves()

	t := &tree{
		nodes:  make([]node, 0, 2*leaves-1),
		coords: coords,
	}

	t.build(0, leaves-1)

	return t
}

// build appends the subtree for [lo, hi] in pre-order and returns its index.
func (t *tree) build(lo, hi int) int32 {
	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{lo: int32(lo), hi: int32(hi), left: noChild, right: noChild})

	if lo == hi {
		start, end := t.coords.Span(lo)
		n := &t.nodes[idx]
		n.span = end - start
		n.minLen = n.span

		return idx
	}

	mid := lo + (hi-lo)/2
	left := t.build(lo, mid)
	right := t.build(mid+1, hi)

	n := &t.nodes[idx]
	n.left, n.right = left, right
	t.pull(idx)

	return idx
}

// leaves returns the number of elementary intervals.
func (t *tree) leaves() int {
	return t.coords.Leaves()
}

// checkRange validates a leaf index range.
func (t *tree) checkRange(lo, hi int) error {
	if lo > hi || lo < 0 || hi >= t.leaves() {
		return fmt.Errorf("%w: [%d, %d] with %d leaves", ErrInvalidRange, lo, hi, t.leaves())
	}

	return nil
}

// apply adds delta to every leaf below idx without descending.
func (t *tree) apply(idx int32, delta int64) {
	n := &t.nodes[idx]
	n.minOvp += delta
	n.maxOvp += delta
	n.covered = coveredLength(n.minOvp, n.span, n.minLen)

	if !n.isLeaf() {
		n.pending += delta
	}
}

// push moves the pending delta of idx into its children.
func (t *tree) push(idx int32) {
	n := &t.nodes[idx]
	if n.pending == 0 || n.isLeaf() {
		return
	}

	delta := n.pending
	n.pending = 0

	t.apply(n.left, delta)
	t.apply(n.right, delta)
}

// pull recomputes the summary of idx from its children.
func (t *tree) pull(idx int32) {
	n := &t.nodes[idx]
	l, r := &t.nodes[n.left], &t.nodes[n.right]

	n.maxOvp = max(l.maxOvp, r.maxOvp)
	n.minOvp = min(l.minOvp, r.minOvp)

	n.minLen = 0
	if l.minOvp == n.minOvp {
		n.minLen += l.minLen
	}

	if r.minOvp == n.minOvp {
		n.minLen += r.minLen
	}

	n.span = l.span + r.span
	n.covered = coveredLength(n.minOvp, n.span, n.minLen)
}

// coveredLength derives the covered length of a subtree. Counts never go
// negative, so a zero minimum means exactly minLen is uncovered.
func coveredLength(minOvp int64, span, minLen float64) float64 {
	if minOvp >= 1 {
		return span
	}

	return span - minLen
}

// RangeUpdate adds delta to the overlap count of every leaf in [lo, hi].
func (t *tree) RangeUpdate(lo, hi int, delta int64) error {
	if err := t.checkRange(lo, hi); err != nil {
		return err
	}

	if delta != 0 {
		t.update(0, int32(lo), int32(hi), delta)
	}

	return nil
}

func (t *tree) update(idx, lo, hi int32, delta int64) {
	n := &t.nodes[idx]
	if hi < n.lo || n.hi < lo {
		return
	}

	if lo <= n.lo && n.hi <= hi {
		t.apply(idx, delta)

		return
	}

	t.push(idx)

	left, right := n.left, n.right
	t.update(left, lo, hi, delta)
	t.update(right, lo, hi, delta)
	t.pull(idx)
}

// QueryMinMax returns the minimum and maximum overlap count over [lo, hi].
func (t *tree) QueryMinMax(lo, hi int) (minOvp, maxOvp int64, err error) {
	if err = t.checkRange(lo, hi); err != nil {
		return 0, 0, err
	}

	first := true

	t.visit(0, int32(lo), int32(hi), func(n *node) {
		if first {
			minOvp, maxOvp = n.minOvp, n.maxOvp
			first = false

			return
		}

		minOvp = min(minOvp, n.minOvp)
		maxOvp = max(maxOvp, n.maxOvp)
	})

	return minOvp, maxOvp, nil
}

// QueryCoverage returns the covered length of the leaves in [lo, hi].
func (t *tree) QueryCoverage(lo, hi int) (float64, error) {
	if err := t.checkRange(lo, hi); err != nil {
		return 0, err
	}

	var covered float64

	t.visit(0, int32(lo), int32(hi), func(n *node) {
		covered += n.covered
	})

	return covered, nil
}

// visit calls fn on the maximal nodes that tile [lo, hi], left to right,
// pushing pending deltas on the way down.
func (t *tree) visit(idx, lo, hi int32, fn func(n *node)) {
	n := &t.nodes[idx]
	if hi < n.lo || n.hi < lo {
		return
	}

	if lo <= n.lo && n.hi <= hi {
		fn(n)

		return
	}

	t.push(idx)

	left, right := n.left, n.right
	t.visit(left, lo, hi, fn)
	t.visit(right, lo, hi, fn)
}

// Root returns the cached summary of the whole tree.
func (t *tree) Root() Stats {
	root := &t.nodes[0]

	return Stats{
		Length: root.covered,
		MaxOvp: root.maxOvp,
		MinOvp: root.minOvp,
	}
}

// Counts returns the overlap count of every leaf.
func (t *tree) Counts() []int64 {
	counts := make([]int64, t.leaves())
	t.collectCounts(0, counts)

	return counts
}

func (t *tree) collectCounts(idx int32, counts []int64) {
	n := &t.nodes[idx]
	if n.maxOvp == n.minOvp {
		for i := n.lo; i <= n.hi; i++ {
			counts[i] = n.minOvp
		}

		return
	}

	t.push(idx)

	left, right := n.left, n.right
	t.collectCounts(left, counts)
	t.collectCounts(right, counts)
}
