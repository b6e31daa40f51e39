package orca

import (
	"fmt"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/spatial"
)

// ObstacleVertex is one corner of a static obstacle ring. The edge owned by a
// vertex runs from Point to the Point of Next.
type ObstacleVertex struct {
	Point     core.Vec2
	Direction core.Vec2 // Unit vector toward Next
	Next      int
	Previous  int
	Convex    bool
	ID        int // Owning obstacle
}

// ObstacleSet holds static obstacle rings and indexes their edges for range queries.
// Solid obstacles are wound counterclockwise; a clockwise ring bounds a region
// agents stay inside.
type ObstacleSet struct {
	vertices  []ObstacleVertex
	index     *spatial.SegmentIndex
	obstacles int
}

// NewObstacleSet creates an empty set
func NewObstacleSet() *ObstacleSet {
	return &ObstacleSet{index: spatial.NewSegmentIndex()}
}

// Len returns the number of obstacles
func (s *ObstacleSet) Len() int { return s.obstacles }

// Vertex returns the vertex at index i
func (s *ObstacleSet) Vertex(i int) *ObstacleVertex { return &s.vertices[i] }

// Vertices returns all vertices; the slice must not be modified
func (s *ObstacleSet) Vertices() []ObstacleVertex { return s.vertices }

// AddPolygon links the points into a ring and returns the obstacle id.
// Two points form a single two-sided segment.
func (s *ObstacleSet) AddPolygon(points []core.Vec2) (int, error) {
	n := len(points)
	if n < 2 {
		return 0, fmt.Errorf("%w: got %d", ErrDegenerateObstacle, n)
	}
	for i, p := range points {
		if p == points[(i+1)%n] {
			return 0, fmt.Errorf("%w: repeated vertex %d", ErrDegenerateObstacle, i)
		}
	}
	id := s.obstacles
	first := len(s.vertices)
	for i, p := range points {
		next := points[(i+1)%n]
		prev := points[(i+n-1)%n]
		v := ObstacleVertex{
			Point:     p,
			Direction: next.Sub(p).Normalize(),
			Next:      first + (i+1)%n,
			Previous:  first + (i+n-1)%n,
			Convex:    n == 2 || leftOf(prev, p, next) >= 0,
			ID:        id,
		}
		s.vertices = append(s.vertices, v)
	}
	for i := first; i < len(s.vertices); i++ {
		v := &s.vertices[i]
		if err := s.index.Insert(spatial.Segment{ID: i, A: v.Point, B: s.vertices[v.Next].Point}); err != nil {
			s.vertices = s.vertices[:first]
			return 0, err
		}
	}
	s.obstacles++
	return id, nil
}

// AddRect adds an axis-aligned box, wound counterclockwise
func (s *ObstacleSet) AddRect(minX, minY, maxX, maxY float64) (int, error) {
	return s.AddPolygon([]core.Vec2{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY},
	})
}

// FromGrid builds one box per horizontal run of blocked cells. Cells are
// centred on their integer coordinates.
func FromGrid(g *navmap.GridMap) (*ObstacleSet, error) {
	s := NewObstacleSet()
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); {
			if g.Walkable(x, y) {
				x++
				continue
			}
			start := x
			for x < g.Width() && !g.Walkable(x, y) {
				x++
			}
			fx0, fx1, fy := float64(start)-0.5, float64(x)-0.5, float64(y)
			if _, err := s.AddRect(fx0, fy-0.5, fx1, fy+0.5); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// Query returns indices of vertices whose edge lies within rng of pos and
// faces it, nearest first
func (s *ObstacleSet) Query(pos core.Vec2, rng float64, buf []int) []int {
	buf = buf[:0]
	for _, hit := range s.index.Query(pos, rng) {
		v := &s.vertices[hit.ID]
		if leftOf(v.Point, s.vertices[v.Next].Point, pos) < 0 {
			buf = append(buf, hit.ID)
		}
	}
	return buf
}

// leftOf is positive when c lies left of the directed line a->b
func leftOf(a, b, c core.Vec2) float64 {
	return core.Det(a.Sub(c), b.Sub(a))
}
