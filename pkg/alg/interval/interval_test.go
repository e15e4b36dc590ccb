package interval

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	randomOps      = 2000
	randomKeySpace = 64
	randomQueries  = 200
)

// ledger is the shape the segment engine stores: float bounds tagged by id.
type ledger = Tree[float64, int64]

// checkInvariants verifies the red-black properties, parent links and the
// maxHigh augmentation, and returns the number of nodes.
func checkInvariants[K cmp.Ordered, V comparable](t *testing.T, tree *Tree[K, V]) int {
	t.Helper()

	if tree.root == nil {
		return 0
	}

	require.Equal(t, black, tree.root.color, "root must be black")
	require.Nil(t, tree.root.parent)

	var walk func(n *node[K, V]) (blackHeight, count int)

	walk = func(n *node[K, V]) (int, int) {
		if n == nil {
			return 1, 0
		}

		if n.color == red {
			require.Equal(t, black, nodeColor(n.left), "red node with red left child")
			require.Equal(t, black, nodeColor(n.right), "red node with red right child")
		}

		want := n.interval.High

		for _, child := range []*node[K, V]{n.left, n.right} {
			if child == nil {
				continue
			}

			require.Same(t, n, child.parent, "broken parent link")
			want = max(want, child.maxHigh)
		}

		if n.left != nil {
			require.LessOrEqual(t, compareIntervals(n.left.interval, n.interval), 0, "left child out of order")
		}

		if n.right != nil {
			require.GreaterOrEqual(t, compareIntervals(n.right.interval, n.interval), 0, "right child out of order")
		}

		require.Equal(t, want, n.maxHigh, "stale maxHigh")

		lh, lc := walk(n.left)
		rh, rc := walk(n.right)
		require.Equal(t, lh, rh, "unequal black heights")

		if n.color == black {
			lh++
		}

		return lh, lc + rc + 1
	}

	_, count := walk(tree.root)

	return count
}

func TestNew_Empty(t *testing.T) {
	t.Parallel()

	tree := New[float64, int64]()

	assert.Equal(t, 0, tree.Len())
	assert.Nil(t, tree.QueryOverlap(0, 100))
	assert.False(t, tree.Delete(0, 1, 0))
}

func TestQueryOverlap_ClosedBounds(t *testing.T) {
	t.Parallel()

	tree := New[float64, int64]()
	tree.Insert(1, 2, 0)
	tree.Insert(2, 3, 1)
	tree.Insert(3.5, 5, 2)
	tree.Insert(2.5, 2.5, 3)

	tests := []struct {
		name      string
		low, high float64
		want      []int64
	}{
		{"touching endpoint matches both sides", 2, 2, []int64{0, 1}},
		{"zero-width member", 2.5, 2.5, []int64{1, 3}},
		{"gap", 3.1, 3.4, nil},
		{"everything", -1, 10, []int64{0, 1, 2, 3}},
		{"right of all", 5.5, 6, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var got []int64
			for _, iv := range tree.QueryOverlap(tc.low, tc.high) {
				got = append(got, iv.Value)
			}

			slices.Sort(got)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestQueryOverlap_InfiniteBounds(t *testing.T) {
	t.Parallel()

	tree := New[float64, int64]()
	tree.Insert(-3, -1, 0)
	tree.Insert(4, 9, 1)

	results := tree.QueryOverlap(math.Inf(-1), math.Inf(1))
	assert.Len(t, results, 2)
}

func TestDelete_MatchesValue(t *testing.T) {
	t.Parallel()

	tree := New[float64, int64]()
	tree.Insert(1, 4, 7)
	tree.Insert(1, 4, 8)

	assert.False(t, tree.Delete(1, 4, 9), "same bounds, different id")
	assert.False(t, tree.Delete(1, 5, 7), "same id, different bounds")
	require.True(t, tree.Delete(1, 4, 7))

	results := tree.QueryOverlap(2, 2)
	require.Len(t, results, 1)
	assert.Equal(t, int64(8), results[0].Value)
	assert.Equal(t, 1, tree.Len())
}

func TestDelete_Duplicates(t *testing.T) {
	t.Parallel()

	tree := New[float64, int64]()
	for range 3 {
		tree.Insert(0, 1, 5)
	}

	for want := 2; want >= 0; want-- {
		require.True(t, tree.Delete(0, 1, 5))
		assert.Equal(t, want, tree.Len())
		checkInvariants(t, tree)
	}

	assert.False(t, tree.Delete(0, 1, 5))
}

func TestMaxHigh_ShrinksAfterDelete(t *testing.T) {
	t.Parallel()

	tree := New[float64, int64]()
	tree.Insert(0, 100, 0)

	for i := range 20 {
		tree.Insert(float64(i), float64(i)+1, int64(i+1))
	}

	require.True(t, tree.Delete(0, 100, 0))
	checkInvariants(t, tree)

	assert.Empty(t, tree.QueryOverlap(50, 60), "removed wide interval must not be found")
}

func TestGeneric_IntegerKeys(t *testing.T) {
	t.Parallel()

	tree := New[uint32, string]()
	tree.Insert(10, 20, "a")
	tree.Insert(15, 25, "b")

	got := tree.QueryOverlap(21, 21)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Value)
}

// TestRandomized_AgainstBruteForce interleaves inserts and deletes and checks
// every overlap query against a linear scan.
func TestRandomized_AgainstBruteForce(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(3, 5))

	var (
		tree  ledger
		model []Interval[float64, int64]
	)

	for op := range randomOps {
		if len(model) > 0 && rng.IntN(3) == 0 {
			victim := rng.IntN(len(model))
			iv := model[victim]

			require.True(t, tree.Delete(iv.Low, iv.High, iv.Value))

			model = slices.Delete(model, victim, victim+1)
		} else {
			low := float64(rng.IntN(randomKeySpace))
			high := low + float64(rng.IntN(randomKeySpace/4))
			iv := Interval[float64, int64]{Low: low, High: high, Value: int64(op)}

			tree.Insert(iv.Low, iv.High, iv.Value)

			model = append(model, iv)
		}

		if op%100 == 0 {
			require.Equal(t, len(model), checkInvariants(t, &tree))
		}
	}

	require.Equal(t, len(model), tree.Len())
	require.Equal(t, len(model), checkInvariants(t, &tree))

	for range randomQueries {
		low := float64(rng.IntN(randomKeySpace))
		high := low + float64(rng.IntN(randomKeySpace/2))

		var want []Interval[float64, int64]

		for _, iv := range model {
			if iv.Low <= high && iv.High >= low {
				want = append(want, iv)
			}
		}

		assert.ElementsMatch(t, want, tree.QueryOverlap(low, high))
	}
}
