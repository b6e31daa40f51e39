package navmap

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/parameter"
)

// Direction vectors: N, E, S, W, NE, SE, SW, NW
// Cardinals first so 4-connected grids use the first four
var DirVectors = [8][2]int{
	{0, -1}, {1, 0}, {0, 1}, {-1, 0},
	{1, -1}, {1, 1}, {-1, 1}, {-1, -1},
}

// GridOptions configures connectivity and costs
type GridOptions struct {
	Diagonal     bool           // 8-connected when true
	AvoidCorners bool           // Reject diagonals that clip a blocked orthogonal cell
	DiagonalCost float64        // Multiplier for diagonal steps, √2 if zero
	Heuristic    core.Heuristic // Octile (8-dir) or Manhattan (4-dir) if nil
}

// DefaultGridOptions returns 8-connected movement without corner cutting
func DefaultGridOptions() GridOptions {
	return GridOptions{
		Diagonal:     true,
		AvoidCorners: true,
		DiagonalCost: parameter.GridDiagonalCost,
	}
}

// GridMap is a rectangular cell map with per-cell walkability and cost
type GridMap struct {
	width, height int
	walkable      []bool
	cost          []float64
	opts          GridOptions
	version       uint64
}

// NewGridMap creates a fully walkable grid with unit costs
func NewGridMap(width, height int, opts GridOptions) (*GridMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if opts.DiagonalCost == 0 {
		opts.DiagonalCost = parameter.GridDiagonalCost
	}
	if opts.Heuristic == nil {
		if opts.Diagonal {
			opts.Heuristic = core.Octile
		} else {
			opts.Heuristic = core.Manhattan
		}
	}
	size := width * height
	g := &GridMap{
		width:    width,
		height:   height,
		walkable: make([]bool, size),
		cost:     make([]float64, size),
		opts:     opts,
	}
	for i := range g.walkable {
		g.walkable[i] = true
		g.cost[i] = 1
	}
	return g, nil
}

// FromStrings builds a grid from text rows: '#' is a wall, '.' or ' ' floor,
// '1'..'9' floor with that cost
func FromStrings(rows []string, opts GridOptions) (*GridMap, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrInvalidDimensions
	}
	width := len(rows[0])
	g, err := NewGridMap(width, len(rows), opts)
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedRows, y, len(row), width)
		}
		for x, c := range row {
			i := y*width + x
			switch {
			case c == '#':
				g.walkable[i] = false
			case c >= '1' && c <= '9':
				g.cost[i] = float64(c - '0')
			}
		}
	}
	return g, nil
}

// Width returns the number of columns
func (g *GridMap) Width() int { return g.width }

// Height returns the number of rows
func (g *GridMap) Height() int { return g.height }

// Options returns the grid configuration
func (g *GridMap) Options() GridOptions { return g.opts }

// Version increments on every walkability or cost change
func (g *GridMap) Version() uint64 { return g.version }

// NodeCount returns width*height
func (g *GridMap) NodeCount() int { return g.width * g.height }

// InBounds reports whether (x, y) is inside the grid
func (g *GridMap) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// Index returns the flat cell index, -1 when out of bounds
func (g *GridMap) Index(x, y int) int {
	if !g.InBounds(x, y) {
		return -1
	}
	return y*g.width + x
}

// IDOf returns the node id of (x, y) without bounds checking
func (g *GridMap) IDOf(x, y int) NodeID {
	return NodeID(y*g.width + x)
}

// PointOf returns the cell of a node id
func (g *GridMap) PointOf(id NodeID) core.Point {
	return core.Point{X: int(id) % g.width, Y: int(id) / g.width}
}

// Walkable reports whether (x, y) is inside the grid and not blocked
func (g *GridMap) Walkable(x, y int) bool {
	return g.InBounds(x, y) && g.walkable[y*g.width+x]
}

// CellCost returns the cost multiplier of (x, y), 0 out of bounds
func (g *GridMap) CellCost(x, y int) float64 {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.cost[y*g.width+x]
}

// SetWalkable toggles a cell
func (g *GridMap) SetWalkable(x, y int, walkable bool) error {
	if !g.InBounds(x, y) {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, x, y)
	}
	i := y*g.width + x
	if g.walkable[i] != walkable {
		g.walkable[i] = walkable
		g.version++
	}
	return nil
}

// SetCost sets the movement multiplier for entering (x, y)
func (g *GridMap) SetCost(x, y int, cost float64) error {
	if !g.InBounds(x, y) {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, x, y)
	}
	if cost < 1 {
		return fmt.Errorf("%w: %.3f at (%d,%d)", ErrInvalidCost, cost, x, y)
	}
	g.cost[y*g.width+x] = cost
	g.version++
	return nil
}

// FillArea sets walkability for every cell in the area, clamped to the grid
func (g *GridMap) FillArea(area core.Area, walkable bool) {
	area = area.Clamp(g.width, g.height)
	for y := area.MinY; y <= area.MaxY; y++ {
		for x := area.MinX; x <= area.MaxX; x++ {
			_ = g.SetWalkable(x, y, walkable)
		}
	}
}

// UniformCost reports whether every walkable cell has cost 1
func (g *GridMap) UniformCost() bool {
	for i, c := range g.cost {
		if g.walkable[i] && c != 1 {
			return false
		}
	}
	return true
}

// NodeAt returns the node at (x, y)
func (g *GridMap) NodeAt(x, y int) (Node, bool) {
	if !g.InBounds(x, y) {
		return Node{ID: InvalidNode}, false
	}
	return g.Node(g.IDOf(x, y)), true
}

// Node returns the node with the given id; panics on an invalid id
func (g *GridMap) Node(id NodeID) Node {
	if id < 0 || int(id) >= len(g.walkable) {
		panic(fmt.Sprintf("navmap: node id %d out of range [0,%d)", id, len(g.walkable)))
	}
	return Node{
		ID:       id,
		Position: g.PointOf(id),
		Cost:     g.cost[id],
		Walkable: g.walkable[id],
	}
}

// CanStep reports whether a single step from (x, y) by (dx, dy) is legal
func (g *GridMap) CanStep(x, y, dx, dy int) bool {
	nx, ny := x+dx, y+dy
	if !g.Walkable(nx, ny) {
		return false
	}
	if dx != 0 && dy != 0 {
		if !g.opts.Diagonal {
			return false
		}
		if g.opts.AvoidCorners && (!g.Walkable(x+dx, y) || !g.Walkable(x, y+dy)) {
			return false
		}
	}
	return true
}

// Neighbors appends walkable neighbours honouring connectivity and the corner rule
func (g *GridMap) Neighbors(id NodeID, buf []NodeID) []NodeID {
	x, y := int(id)%g.width, int(id)/g.width
	dirs := 4
	if g.opts.Diagonal {
		dirs = 8
	}
	for d := 0; d < dirs; d++ {
		dx, dy := DirVectors[d][0], DirVectors[d][1]
		if g.CanStep(x, y, dx, dy) {
			buf = append(buf, g.IDOf(x+dx, y+dy))
		}
	}
	return buf
}

// Heuristic applies the configured distance function between two cells
func (g *GridMap) Heuristic(a, b NodeID) float64 {
	pa, pb := g.PointOf(a), g.PointOf(b)
	return g.opts.Heuristic(float64(pb.X-pa.X), float64(pb.Y-pa.Y))
}

// MovementCost is the destination cost, scaled by DiagonalCost on diagonal steps
func (g *GridMap) MovementCost(from, to NodeID) float64 {
	pa, pb := g.PointOf(from), g.PointOf(to)
	c := g.cost[to]
	if pa.X != pb.X && pa.Y != pb.Y {
		return c * g.opts.DiagonalCost
	}
	return c
}

// StepCost returns the cost of a step between two adjacent cells
func (g *GridMap) StepCost(a, b core.Point) float64 {
	return g.MovementCost(g.IDOf(a.X, a.Y), g.IDOf(b.X, b.Y))
}

// PathCost sums step costs along a dense path
func (g *GridMap) PathCost(path []core.Point) float64 {
	var cost float64
	for i := 1; i < len(path); i++ {
		cost += g.StepCost(path[i-1], path[i])
	}
	return cost
}

// String renders the grid with '#' for walls
func (g *GridMap) String() string {
	var sb strings.Builder
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.walkable[y*g.width+x] {
				sb.WriteByte('.')
			} else {
				sb.WriteByte('#')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
