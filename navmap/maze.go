package navmap

import (
	"fmt"
	"math/rand"

	"github.com/lixenwraith/navcrowd/core"
)

// MazeConfig shapes a generated maze
type MazeConfig struct {
	// Braiding is the chance in [0,1] that a dead end is joined to a neighbour.
	// Zero yields a perfect maze with exactly one route between two rooms.
	Braiding float64 `yaml:"braiding"`
	// Corridor is the passage width in grid cells
	Corridor int `yaml:"corridor"`
}

var (
	mazeJumps = [4]core.Point{{X: 0, Y: -2}, {X: 0, Y: 2}, {X: -2, Y: 0}, {X: 2, Y: 0}}
	mazeSteps = [4]core.Point{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}
)

// maze is the logical layout: rooms on odd coordinates, walls between them
type maze struct {
	cols, rows int
	open       []bool
}

func (m *maze) in(x, y int) bool { return x >= 0 && y >= 0 && x < m.cols && y < m.rows }

// isOpen treats out of bounds as wall
func (m *maze) isOpen(x, y int) bool { return m.in(x, y) && m.open[y*m.cols+x] }

func (m *maze) set(x, y int) { m.open[y*m.cols+x] = true }

// NewMaze carves a recursive-backtracker maze into a width x height grid.
// Each logical cell becomes a Corridor x Corridor block; leftover cells on
// the right and bottom edges stay blocked.
func NewMaze(width, height int, opts GridOptions, cfg MazeConfig, rng *rand.Rand) (*GridMap, error) {
	g, err := NewGridMap(width, height, opts)
	if err != nil {
		return nil, err
	}
	c := max(cfg.Corridor, 1)
	m := &maze{cols: oddFloor(width / c), rows: oddFloor(height / c)}
	if m.cols < 3 || m.rows < 3 {
		return nil, fmt.Errorf("%w: %dx%d at corridor %d", ErrMazeTooSmall, width, height, c)
	}
	m.open = make([]bool, m.cols*m.rows)

	m.carve(rng)
	if cfg.Braiding > 0 {
		m.braid(cfg.Braiding, rng)
	}

	for i := range g.walkable {
		g.walkable[i] = false
	}
	for y := 0; y < m.rows; y++ {
		for x := 0; x < m.cols; x++ {
			if m.open[y*m.cols+x] {
				g.FillArea(core.Area{MinX: x * c, MinY: y * c, MaxX: x*c + c - 1, MaxY: y*c + c - 1}, true)
			}
		}
	}
	g.version = 0
	return g, nil
}

// MazeRoom returns the grid cell at the top-left of logical room (i, j)
func MazeRoom(i, j int, cfg MazeConfig) core.Point {
	c := max(cfg.Corridor, 1)
	return core.Point{X: (2*i + 1) * c, Y: (2*j + 1) * c}
}

// carve runs the backtracker from room (1,1) leaving a one-cell wall border
func (m *maze) carve(rng *rand.Rand) {
	stack := []core.Point{{X: 1, Y: 1}}
	m.set(1, 1)
	var candidates []core.Point
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		candidates = candidates[:0]
		for _, d := range mazeJumps {
			nx, ny := cur.X+d.X, cur.Y+d.Y
			if nx > 0 && nx < m.cols-1 && ny > 0 && ny < m.rows-1 && !m.isOpen(nx, ny) {
				candidates = append(candidates, d)
			}
		}
		if len(candidates) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		d := candidates[rng.Intn(len(candidates))]
		m.set(cur.X+d.X/2, cur.Y+d.Y/2)
		m.set(cur.X+d.X, cur.Y+d.Y)
		stack = append(stack, core.Point{X: cur.X + d.X, Y: cur.Y + d.Y})
	}
}

// braid opens a wall next to dead-end rooms with the given probability,
// skipping walls whose removal would leave a 2x2 open block or a free-standing pillar
func (m *maze) braid(probability float64, rng *rand.Rand) {
	var candidates []core.Point
	for y := 1; y < m.rows-1; y += 2 {
		for x := 1; x < m.cols-1; x += 2 {
			if !m.isOpen(x, y) {
				continue
			}
			exits := 0
			for _, d := range mazeSteps {
				if m.isOpen(x+d.X, y+d.Y) {
					exits++
				}
			}
			if exits != 1 || rng.Float64() >= probability {
				continue
			}

			candidates = candidates[:0]
			for _, d := range mazeJumps {
				wx, wy := x+d.X/2, y+d.Y/2
				if m.isOpen(x+d.X, y+d.Y) && !m.isOpen(wx, wy) && m.canOpen(wx, wy) {
					candidates = append(candidates, core.Point{X: wx, Y: wy})
				}
			}
			if len(candidates) > 0 {
				w := candidates[rng.Intn(len(candidates))]
				m.set(w.X, w.Y)
			}
		}
	}
}

// canOpen reports whether opening (x, y) keeps the layout free of 2x2
// open blocks and isolated wall cells
func (m *maze) canOpen(x, y int) bool {
	for _, q := range [4][2]int{{-1, -1}, {0, -1}, {-1, 0}, {0, 0}} {
		ox, oy := x+q[0], y+q[1]
		n := 0
		for _, c := range [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
			cx, cy := ox+c[0], oy+c[1]
			if (cx == x && cy == y) || m.isOpen(cx, cy) {
				n++
			}
		}
		if n == 4 {
			return false
		}
	}

	for _, d := range mazeSteps {
		nx, ny := x+d.X, y+d.Y
		if !m.in(nx, ny) || m.isOpen(nx, ny) {
			continue
		}
		walls := 0
		for _, d2 := range mazeSteps {
			wx, wy := nx+d2.X, ny+d2.Y
			if wx == x && wy == y {
				continue
			}
			if m.in(wx, wy) && !m.isOpen(wx, wy) {
				walls++
			}
		}
		if walls == 0 {
			return false
		}
	}
	return true
}

// oddFloor rounds n down to an odd number
func oddFloor(n int) int {
	if n%2 == 0 {
		return n - 1
	}
	return n
}
