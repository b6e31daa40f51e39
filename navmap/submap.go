package navmap

import "github.com/lixenwraith/navcrowd/core"

// SubMap restricts a grid to a rectangle; cells outside are unwalkable.
// Node ids are shared with the parent grid.
type SubMap struct {
	grid *GridMap
	area core.Area
}

// NewSubMap wraps grid, clamping area to its bounds
func NewSubMap(grid *GridMap, area core.Area) *SubMap {
	return &SubMap{grid: grid, area: area.Clamp(grid.width, grid.height)}
}

// Area returns the clamped rectangle
func (s *SubMap) Area() core.Area { return s.area }

// Grid returns the parent grid
func (s *SubMap) Grid() *GridMap { return s.grid }

// NodeAt returns the grid node when (x, y) lies inside the area
func (s *SubMap) NodeAt(x, y int) (Node, bool) {
	if !s.area.Contains(x, y) {
		return Node{ID: InvalidNode}, false
	}
	return s.grid.NodeAt(x, y)
}

// Node returns the parent grid's node
func (s *SubMap) Node(id NodeID) Node { return s.grid.Node(id) }

// Walkable reports whether (x, y) is inside the area and walkable
func (s *SubMap) Walkable(x, y int) bool {
	return s.area.Contains(x, y) && s.grid.Walkable(x, y)
}

// Neighbors appends grid neighbours that stay inside the area
func (s *SubMap) Neighbors(id NodeID, buf []NodeID) []NodeID {
	start := len(buf)
	buf = s.grid.Neighbors(id, buf)
	out := buf[:start]
	for _, n := range buf[start:] {
		p := s.grid.PointOf(n)
		if s.area.Contains(p.X, p.Y) {
			out = append(out, n)
		}
	}
	return out
}

// Heuristic delegates to the parent grid
func (s *SubMap) Heuristic(a, b NodeID) float64 { return s.grid.Heuristic(a, b) }

// MovementCost delegates to the parent grid
func (s *SubMap) MovementCost(from, to NodeID) float64 { return s.grid.MovementCost(from, to) }

// NodeCount is the parent grid's id space
func (s *SubMap) NodeCount() int { return s.grid.NodeCount() }
