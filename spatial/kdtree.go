// Package spatial provides the neighbour queries used by local avoidance: a
// KD-tree over agent positions rebuilt every frame, and an R-tree over static
// obstacle segments.
package spatial

import (
	"math"
	"slices"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/parameter"
)

// Item is an indexed point
type Item struct {
	ID  core.Entity
	Pos core.Vec2
}

// Neighbor is a query hit
type Neighbor struct {
	Item
	DistSq float64
}

type kdNode struct {
	begin, end  int
	left, right int32 // Child node indices, -1 for leaves
	minX, maxX  float64
	minY, maxY  float64
}

// KDTree is a 2D tree with bounding boxes on every node
type KDTree struct {
	items    []Item
	nodes    []kdNode
	leafSize int
}

// NewKDTree creates an empty tree; leafSize <= 0 uses the default
func NewKDTree(leafSize int) *KDTree {
	if leafSize <= 0 {
		leafSize = parameter.KDTreeLeafSize
	}
	return &KDTree{leafSize: leafSize}
}

// Len returns the number of indexed items
func (t *KDTree) Len() int { return len(t.items) }

// Build replaces the tree contents. items is copied.
func (t *KDTree) Build(items []Item) {
	t.items = append(t.items[:0], items...)
	t.nodes = t.nodes[:0]
	if len(t.items) == 0 {
		return
	}
	t.build(0, len(t.items), 0)
}

func (t *KDTree) build(begin, end, depth int) int32 {
	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, kdNode{begin: begin, end: end, left: -1, right: -1})

	n := kdNode{
		begin: begin, end: end, left: -1, right: -1,
		minX: math.Inf(1), maxX: math.Inf(-1),
		minY: math.Inf(1), maxY: math.Inf(-1),
	}
	for _, it := range t.items[begin:end] {
		n.minX, n.maxX = min(n.minX, it.Pos[0]), max(n.maxX, it.Pos[0])
		n.minY, n.maxY = min(n.minY, it.Pos[1]), max(n.maxY, it.Pos[1])
	}

	if end-begin > t.leafSize {
		axis := depth % 2
		insertionSort(t.items[begin:end], axis)
		mid := (begin + end) / 2
		n.left = t.build(begin, mid, depth+1)
		n.right = t.build(mid, end, depth+1)
	}
	t.nodes[idx] = n
	return idx
}

// insertionSort orders items along axis; stable on ties
func insertionSort(items []Item, axis int) {
	for i := 1; i < len(items); i++ {
		cur := items[i]
		j := i - 1
		for j >= 0 && items[j].Pos[axis] > cur.Pos[axis] {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = cur
	}
}

// boxDistSq is the squared distance from p to the node's bounding box
func (n *kdNode) boxDistSq(p core.Vec2) float64 {
	dx := max(n.minX-p[0], 0, p[0]-n.maxX)
	dy := max(n.minY-p[1], 0, p[1]-n.maxY)
	return dx*dx + dy*dy
}

// QueryNeighbors returns up to maxResults items within radius of pos,
// nearest first. exclude skips one id; zero excludes nothing.
func (t *KDTree) QueryNeighbors(pos core.Vec2, radius float64, maxResults int, exclude core.Entity) []Neighbor {
	return t.QueryInto(nil, pos, radius, maxResults, exclude)
}

// QueryInto is QueryNeighbors appending into buf[:0]
func (t *KDTree) QueryInto(buf []Neighbor, pos core.Vec2, radius float64, maxResults int, exclude core.Entity) []Neighbor {
	out := buf[:0]
	if len(t.nodes) == 0 || maxResults <= 0 || radius < 0 {
		return out
	}
	q := query{pos: pos, rangeSq: radius * radius, max: maxResults, exclude: exclude, out: out}
	t.query(0, &q)
	return q.out
}

type query struct {
	pos     core.Vec2
	rangeSq float64
	max     int
	exclude core.Entity
	out     []Neighbor
}

// insert keeps out sorted and at most max long; once full the search range
// shrinks to the farthest kept hit
func (q *query) insert(it Item, d float64) {
	if len(q.out) == q.max {
		if d >= q.out[len(q.out)-1].DistSq {
			return
		}
		q.out = q.out[:len(q.out)-1]
	}
	i, _ := slices.BinarySearchFunc(q.out, d, func(n Neighbor, d float64) int {
		if n.DistSq <= d {
			return -1
		}
		return 1
	})
	q.out = slices.Insert(q.out, i, Neighbor{Item: it, DistSq: d})
	if len(q.out) == q.max {
		q.rangeSq = q.out[len(q.out)-1].DistSq
	}
}

func (t *KDTree) query(idx int32, q *query) {
	n := &t.nodes[idx]
	if n.left < 0 {
		for _, it := range t.items[n.begin:n.end] {
			if q.exclude != 0 && it.ID == q.exclude {
				continue
			}
			if d := it.Pos.Sub(q.pos).LenSqr(); d <= q.rangeSq {
				q.insert(it, d)
			}
		}
		return
	}
	l, r := &t.nodes[n.left], &t.nodes[n.right]
	dl, dr := l.boxDistSq(q.pos), r.boxDistSq(q.pos)
	first, second := n.left, n.right
	if dr < dl {
		first, second = n.right, n.left
		dl, dr = dr, dl
	}
	if dl <= q.rangeSq {
		t.query(first, q)
	}
	if dr <= q.rangeSq {
		t.query(second, q)
	}
}
