package search

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
)

// JPS is Jump Point Search for 8-connected grids that forbid corner cutting.
// Costs are octile distances; per-cell costs are not considered during the
// search, the reported cost is the grid cost of the interpolated path.
type JPS struct {
	grid    *navmap.GridMap
	opts    Options
	st      *gridState
	version uint32
	goal    core.Point
	nbuf    []core.Point
}

// NewJPS creates a jump point searcher
func NewJPS(grid *navmap.GridMap, opts Options) (*JPS, error) {
	if grid == nil {
		return nil, ErrNilMap
	}
	gopts := grid.Options()
	if !gopts.Diagonal || !gopts.AvoidCorners {
		return nil, ErrJPSRequiresDiagonal
	}
	return &JPS{
		grid: grid,
		opts: opts.normalized(),
		st:   newGridState(grid.NodeCount()),
		nbuf: make([]core.Point, 0, 8),
	}, nil
}

// FindPath searches from start to end and returns a unit-step path
func (j *JPS) FindPath(start, end core.Point) Result {
	if !j.grid.Walkable(start.X, start.Y) || !j.grid.Walkable(end.X, end.Y) {
		return NotFound(0)
	}
	if start == end {
		res := Trivial(start)
		res.JumpPoints = []core.Point{start}
		return res
	}

	j.version++
	if j.version == 0 {
		j.st.wipe()
		j.version = 1
	}
	v := j.version
	j.goal = end
	st := j.st
	st.open.Clear()

	s := j.cell(start)
	e := j.cell(end)
	st.touch(s, v)
	st.g[s] = 0
	st.h[s] = j.octile(start, end)
	st.f[s] = st.h[s]
	st.flags[s] = flagOpened
	st.open.Push(s)

	searched := 0
	for !st.open.Empty() {
		cur, _ := st.open.Pop()
		searched++
		if searched > j.opts.MaxNodes {
			j.opts.Logger.Debug("jps node budget exhausted", zap.Int("max_nodes", j.opts.MaxNodes))
			return NotFound(searched)
		}
		if cur == e {
			return j.build(cur, searched)
		}
		st.flags[cur] |= flagClosed
		j.identifySuccessors(cur, v)
	}
	return NotFound(searched)
}

func (j *JPS) cell(p core.Point) int32 { return int32(j.grid.IDOf(p.X, p.Y)) }

func (j *JPS) octile(a, b core.Point) float64 {
	dx, dy := core.Abs(b.X-a.X), core.Abs(b.Y-a.Y)
	lo, hi := min(dx, dy), max(dx, dy)
	return float64(hi-lo) + float64(lo)*j.grid.Options().DiagonalCost
}

func (j *JPS) build(goal int32, searched int) Result {
	cells := reversed(j.st.chain(goal))
	sparse := make([]core.Point, len(cells))
	for i, c := range cells {
		sparse[i] = j.grid.PointOf(navmap.NodeID(c))
	}
	path := Interpolate(sparse)
	return Result{
		Found:         true,
		Path:          path,
		Cost:          j.grid.PathCost(path),
		NodesSearched: searched,
		JumpPoints:    sparse,
	}
}

func (j *JPS) identifySuccessors(cur int32, v uint32) {
	st := j.st
	p := j.grid.PointOf(navmap.NodeID(cur))
	for _, n := range j.prunedNeighbors(cur, p) {
		jp, ok := j.jump(n.X, n.Y, n.X-p.X, n.Y-p.Y)
		if !ok {
			continue
		}
		jc := j.cell(jp)
		st.touch(jc, v)
		if st.flags[jc]&flagClosed != 0 {
			continue
		}
		tentative := st.g[cur] + j.octile(p, jp)
		if st.flags[jc]&flagOpened == 0 {
			st.g[jc] = tentative
			st.h[jc] = j.octile(jp, j.goal)
			st.f[jc] = tentative + st.h[jc]
			st.parent[jc] = cur
			st.flags[jc] |= flagOpened
			st.open.Push(jc)
		} else if tentative < st.g[jc] {
			st.g[jc] = tentative
			st.f[jc] = tentative + st.h[jc]
			st.parent[jc] = cur
			st.open.Update(jc)
		}
	}
}

// prunedNeighbors returns the natural and forced neighbours given the
// direction of travel from the parent
func (j *JPS) prunedNeighbors(cur int32, p core.Point) []core.Point {
	out := j.nbuf[:0]
	parent := j.st.parent[cur]
	if parent < 0 {
		for _, d := range navmap.DirVectors {
			if j.grid.CanStep(p.X, p.Y, d[0], d[1]) {
				out = append(out, p.Add(d[0], d[1]))
			}
		}
		j.nbuf = out
		return out
	}

	pp := j.grid.PointOf(navmap.NodeID(parent))
	dx, dy := core.Sign(p.X-pp.X), core.Sign(p.Y-pp.Y)
	x, y := p.X, p.Y
	w := j.grid.Walkable

	switch {
	case dx != 0 && dy != 0:
		vert, horiz := w(x, y+dy), w(x+dx, y)
		if vert {
			out = append(out, core.Point{X: x, Y: y + dy})
		}
		if horiz {
			out = append(out, core.Point{X: x + dx, Y: y})
		}
		if vert && horiz {
			out = append(out, core.Point{X: x + dx, Y: y + dy})
		}
	case dx != 0:
		next, up, down := w(x+dx, y), w(x, y-1), w(x, y+1)
		if next {
			out = append(out, core.Point{X: x + dx, Y: y})
			if up {
				out = append(out, core.Point{X: x + dx, Y: y - 1})
			}
			if down {
				out = append(out, core.Point{X: x + dx, Y: y + 1})
			}
		}
		if up {
			out = append(out, core.Point{X: x, Y: y - 1})
		}
		if down {
			out = append(out, core.Point{X: x, Y: y + 1})
		}
	default:
		next, left, right := w(x, y+dy), w(x-1, y), w(x+1, y)
		if next {
			out = append(out, core.Point{X: x, Y: y + dy})
			if left {
				out = append(out, core.Point{X: x - 1, Y: y + dy})
			}
			if right {
				out = append(out, core.Point{X: x + 1, Y: y + dy})
			}
		}
		if left {
			out = append(out, core.Point{X: x - 1, Y: y})
		}
		if right {
			out = append(out, core.Point{X: x + 1, Y: y})
		}
	}
	j.nbuf = out
	return out
}

// jump walks from (x, y) in direction (dx, dy) until it finds the goal, a
// cell with a forced neighbour, or a blocked cell
func (j *JPS) jump(x, y, dx, dy int) (core.Point, bool) {
	w := j.grid.Walkable
	for {
		if !w(x, y) {
			return core.Point{}, false
		}
		if x == j.goal.X && y == j.goal.Y {
			return j.goal, true
		}
		switch {
		case dx != 0 && dy != 0:
			if _, ok := j.jump(x+dx, y, dx, 0); ok {
				return core.Point{X: x, Y: y}, true
			}
			if _, ok := j.jump(x, y+dy, 0, dy); ok {
				return core.Point{X: x, Y: y}, true
			}
			if !w(x+dx, y) || !w(x, y+dy) {
				return core.Point{}, false
			}
		case dx != 0:
			if (w(x, y-1) && !w(x-dx, y-1)) || (w(x, y+1) && !w(x-dx, y+1)) {
				return core.Point{X: x, Y: y}, true
			}
		default:
			if (w(x-1, y) && !w(x-1, y-dy)) || (w(x+1, y) && !w(x+1, y-dy)) {
				return core.Point{X: x, Y: y}, true
			}
		}
		x += dx
		y += dy
	}
}
