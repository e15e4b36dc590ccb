package segtree

// Stats is a snapshot of the aggregates cached at the root of the tree.
type Stats struct {
	// Length is the total length of elementary intervals with a count >= 1.
	Length float64 `json:"length"  yaml:"length"`
	// MaxOvp is the largest overlap count of any elementary interval.
	MaxOvp int64 `json:"max_ovp" yaml:"max_ovp"`
	// MinOvp is the smallest overlap count of any elementary interval.
	MinOvp int64 `json:"min_ovp" yaml:"min_ovp"`
}

// LeafCount is the overlap count of one elementary interval.
type LeafCount struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end"   yaml:"end"`
	Count int64   `json:"count" yaml:"count"`
}
