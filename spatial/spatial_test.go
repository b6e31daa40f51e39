package spatial

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/navcrowd/core"
)

func randomItems(n int, seed int64) []Item {
	rng := rand.New(rand.NewSource(seed))
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{ID: core.Entity(i + 1), Pos: core.Vec2{rng.Float64() * 100, rng.Float64() * 100}}
	}
	return items
}

func bruteForce(items []Item, pos core.Vec2, radius float64, exclude core.Entity) []Neighbor {
	var out []Neighbor
	for _, it := range items {
		if it.ID == exclude {
			continue
		}
		if d := it.Pos.Sub(pos).LenSqr(); d <= radius*radius {
			out = append(out, Neighbor{Item: it, DistSq: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistSq < out[j].DistSq })
	return out
}

func TestKDTreeMatchesBruteForce(t *testing.T) {
	items := randomItems(500, 42)
	tree := NewKDTree(0)
	tree.Build(items)
	require.Equal(t, 500, tree.Len())

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		pos := core.Vec2{rng.Float64() * 100, rng.Float64() * 100}
		radius := 2 + rng.Float64()*15
		exclude := core.Entity(rng.Intn(500) + 1)

		want := bruteForce(items, pos, radius, exclude)
		got := tree.QueryNeighbors(pos, radius, 1000, exclude)
		require.Len(t, got, len(want))
		for k := range got {
			assert.InDelta(t, want[k].DistSq, got[k].DistSq, 1e-12)
			assert.NotEqual(t, exclude, got[k].ID)
		}
	}
}

func TestKDTreeRadiusSortAndLimit(t *testing.T) {
	tree := NewKDTree(2)
	var items []Item
	for i := 0; i < 10; i++ {
		items = append(items, Item{ID: core.Entity(i + 1), Pos: core.Vec2{float64(i), 0}})
	}
	tree.Build(items)

	got := tree.QueryNeighbors(core.Vec2{0, 0}, 4.5, 3, 0)
	require.Len(t, got, 3)
	assert.Equal(t, []core.Entity{1, 2, 3}, []core.Entity{got[0].ID, got[1].ID, got[2].ID})

	got = tree.QueryNeighbors(core.Vec2{0, 0}, 4.5, 10, 1)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].DistSq, got[i].DistSq)
	}
	assert.Equal(t, core.Entity(5), got[3].ID)
	assert.InDelta(t, 16.0, got[3].DistSq, 1e-12)

	assert.Empty(t, tree.QueryNeighbors(core.Vec2{50, 50}, 1, 5, 0))
	assert.Empty(t, tree.QueryNeighbors(core.Vec2{0, 0}, 5, 0, 0))
}

func TestKDTreeEmptyAndRebuild(t *testing.T) {
	tree := NewKDTree(0)
	assert.Empty(t, tree.QueryNeighbors(core.Vec2{}, 10, 5, 0))

	tree.Build(randomItems(50, 1))
	tree.Build([]Item{{ID: 9, Pos: core.Vec2{1, 1}}})
	got := tree.QueryNeighbors(core.Vec2{0, 0}, 10, 5, 0)
	require.Len(t, got, 1)
	assert.Equal(t, core.Entity(9), got[0].ID)
}

func TestSegmentIndex(t *testing.T) {
	idx := NewSegmentIndex()
	require.NoError(t, idx.Insert(Segment{ID: 0, A: core.Vec2{0, 0}, B: core.Vec2{10, 0}}))
	require.NoError(t, idx.Insert(Segment{ID: 1, A: core.Vec2{0, 5}, B: core.Vec2{10, 5}}))
	require.NoError(t, idx.Insert(Segment{ID: 2, A: core.Vec2{20, 0}, B: core.Vec2{20, 10}}))
	assert.Equal(t, 3, idx.Len())

	hits := idx.Query(core.Vec2{5, 1}, 5)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].DistSq, 1e-12)
	assert.Equal(t, 1, hits[1].ID)

	assert.Empty(t, idx.Query(core.Vec2{15, 20}, 2))
}

func TestDistSqPointSegment(t *testing.T) {
	a, b := core.Vec2{0, 0}, core.Vec2{4, 0}
	assert.InDelta(t, 4.0, DistSqPointSegment(a, b, core.Vec2{2, 2}), 1e-12)
	assert.InDelta(t, 2.0, DistSqPointSegment(a, b, core.Vec2{-1, 1}), 1e-12)
	assert.InDelta(t, 1.0, DistSqPointSegment(a, b, core.Vec2{5, 0}), 1e-12)
	assert.InDelta(t, 2.0, DistSqPointSegment(a, a, core.Vec2{1, 1}), 1e-12)
}
