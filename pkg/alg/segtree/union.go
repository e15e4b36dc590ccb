package segtree

// extractUnion returns the covered parts of leaves [lo, hi] as merged runs.
func (t *tree) extractUnion(lo, hi int) (*IntervalSet, error) {
	if err := t.checkRange(lo, hi); err != nil {
		return nil, err
	}

	var set IntervalSet

	t.collectUnion(0, int32(lo), int32(hi), &set)

	return &set, nil
}

func (t *tree) collectUnion(idx, lo, hi int32, set *IntervalSet) {
	n := &t.nodes[idx]
	if hi < n.lo || n.hi < lo || n.maxOvp <= 0 {
		return
	}

	if lo <= n.lo && n.hi <= hi && n.minOvp >= 1 {
		set.appendMerged(t.nodeSpan(n))

		return
	}

	if n.isLeaf() {
		// A leaf with maxOvp > 0 has minOvp > 0 and was emitted above.
		return
	}

	t.push(idx)

	left, right := n.left, n.right
	t.collectUnion(left, lo, hi, set)
	t.collectUnion(right, lo, hi, set)
}

// nodeSpan returns the coordinate range covered by n.
func (t *tree) nodeSpan(n *node) Interval {
	start, _ := t.coords.Span(int(n.lo))
	_, end := t.coords.Span(int(n.hi))

	return Interval{Start: start, End: end}
}

// clip restricts the first and last members of s to [start, end].
func (s *IntervalSet) clip(start, end float64) {
	if len(s.intervals) == 0 {
		return
	}

	first := &s.intervals[0]
	first.Start = max(first.Start, start)

	last := &s.intervals[len(s.intervals)-1]
	last.End = min(last.End, end)

	if last.Start >= last.End {
		s.intervals = s.intervals[:len(s.intervals)-1]
	}

	if len(s.intervals) > 0 && s.intervals[0].Start >= s.intervals[0].End {
		s.intervals = s.intervals[1:]
	}
}
