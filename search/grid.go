package search

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/pqueue"
)

const (
	flagOpened uint8 = 1 << iota
	flagClosed
)

// gridState is one direction of a grid search in flat per-cell arrays.
// A cell is initialised only when stamp[i] equals the current search version.
type gridState struct {
	g, h, f   []float64
	flags     []uint8
	parent    []int32
	heapIndex []int
	stamp     []uint32
	open      *pqueue.Heap[int32]
}

func newGridState(size int) *gridState {
	s := &gridState{
		g:         make([]float64, size),
		h:         make([]float64, size),
		f:         make([]float64, size),
		flags:     make([]uint8, size),
		parent:    make([]int32, size),
		heapIndex: make([]int, size),
		stamp:     make([]uint32, size),
	}
	s.open = pqueue.New(
		func(a, b int32) bool {
			if s.f[a] != s.f[b] {
				return s.f[a] < s.f[b]
			}
			return s.h[a] < s.h[b]
		},
		func(i int32) *int { return &s.heapIndex[i] },
	)
	return s
}

func (s *gridState) wipe() {
	clear(s.stamp)
}

// touch initialises cell i for the given version if needed
func (s *gridState) touch(i int32, version uint32) {
	if s.stamp[i] == version {
		return
	}
	s.stamp[i] = version
	s.g[i] = math.Inf(1)
	s.h[i] = 0
	s.f[i] = math.Inf(1)
	s.flags[i] = 0
	s.parent[i] = -1
	s.heapIndex[i] = -1
}

func (s *gridState) seen(i int32, version uint32) bool {
	return s.stamp[i] == version && s.flags[i] != 0
}

func (s *gridState) topF() float64 {
	top, ok := s.open.Peek()
	if !ok {
		return math.Inf(1)
	}
	return s.f[top]
}

// chain returns cell indices from i back to the root
func (s *gridState) chain(i int32) []int32 {
	var out []int32
	for c := i; c >= 0; c = s.parent[c] {
		out = append(out, c)
	}
	return out
}

// GridPathfinder is A* specialised for GridMap using flat arrays that are
// reset lazily through a version stamp
type GridPathfinder struct {
	grid    *navmap.GridMap
	opts    Options
	fwd     *gridState
	bwd     *gridState
	version uint32
	nbuf    []navmap.NodeID
}

// NewGridPathfinder creates a grid pathfinder; nil grid yields ErrNilMap
func NewGridPathfinder(grid *navmap.GridMap, opts Options) (*GridPathfinder, error) {
	if grid == nil {
		return nil, ErrNilMap
	}
	size := grid.NodeCount()
	return &GridPathfinder{
		grid: grid,
		opts: opts.normalized(),
		fwd:  newGridState(size),
		bwd:  newGridState(size),
		nbuf: make([]navmap.NodeID, 0, 8),
	}, nil
}

// Grid returns the searched grid
func (p *GridPathfinder) Grid() *navmap.GridMap { return p.grid }

func (p *GridPathfinder) nextVersion() uint32 {
	p.version++
	if p.version == 0 {
		p.fwd.wipe()
		p.bwd.wipe()
		p.version = 1
	}
	return p.version
}

func (p *GridPathfinder) endpoints(start, end core.Point) (int32, int32, bool) {
	if !p.grid.Walkable(start.X, start.Y) || !p.grid.Walkable(end.X, end.Y) {
		return 0, 0, false
	}
	return int32(p.grid.IDOf(start.X, start.Y)), int32(p.grid.IDOf(end.X, end.Y)), true
}

// FindPath runs a unidirectional A* search
func (p *GridPathfinder) FindPath(start, end core.Point) Result {
	s, e, ok := p.endpoints(start, end)
	if !ok {
		return NotFound(0)
	}
	if s == e {
		return Trivial(start)
	}
	v := p.nextVersion()
	st := p.fwd
	st.open.Clear()
	p.seed(st, s, e, v)

	searched := 0
	for !st.open.Empty() {
		cur, _ := st.open.Pop()
		searched++
		if searched > p.opts.MaxNodes {
			p.opts.Logger.Debug("grid search node budget exhausted", zap.Int("max_nodes", p.opts.MaxNodes))
			return NotFound(searched)
		}
		if cur == e {
			path := p.cellsToPoints(reversed(st.chain(cur)))
			return Result{Found: true, Path: path, Cost: st.g[cur], NodesSearched: searched}
		}
		st.flags[cur] |= flagClosed
		p.expand(st, cur, e, v, false, nil)
	}
	return NotFound(searched)
}

// FindPathBidirectional alternates forward and backward expansions and
// stops once neither frontier can improve the best meeting cost
func (p *GridPathfinder) FindPathBidirectional(start, end core.Point) Result {
	s, e, ok := p.endpoints(start, end)
	if !ok {
		return NotFound(0)
	}
	if s == e {
		return Trivial(start)
	}
	v := p.nextVersion()
	p.fwd.open.Clear()
	p.bwd.open.Clear()
	p.seed(p.fwd, s, e, v)
	p.seed(p.bwd, e, s, v)

	m := meeting{cost: math.Inf(1), cell: -1}
	searched := 0
	for !p.fwd.open.Empty() && !p.bwd.open.Empty() {
		if p.fwd.topF() >= m.cost || p.bwd.topF() >= m.cost {
			break
		}
		for _, dir := range [2]struct {
			st, other *gridState
			goal      int32
			backward  bool
		}{{p.fwd, p.bwd, e, false}, {p.bwd, p.fwd, s, true}} {
			cur, ok := dir.st.open.Pop()
			if !ok {
				break
			}
			searched++
			dir.st.flags[cur] |= flagClosed
			if dir.other.seen(cur, v) {
				m.offer(cur, dir.st.g[cur]+dir.other.g[cur])
			}
			p.expand(dir.st, cur, dir.goal, v, dir.backward, &meetingWatch{other: dir.other, m: &m})
		}
		if searched > p.opts.MaxNodes {
			p.opts.Logger.Debug("bidirectional search node budget exhausted", zap.Int("max_nodes", p.opts.MaxNodes))
			return NotFound(searched)
		}
	}
	if m.cell < 0 {
		return NotFound(searched)
	}

	cells := reversed(p.fwd.chain(m.cell))
	back := p.bwd.chain(m.cell)
	cells = append(cells, back[1:]...)
	return Result{Found: true, Path: p.cellsToPoints(cells), Cost: m.cost, NodesSearched: searched}
}

type meeting struct {
	cost float64
	cell int32
}

func (m *meeting) offer(cell int32, cost float64) {
	if cost < m.cost {
		m.cost = cost
		m.cell = cell
	}
}

type meetingWatch struct {
	other *gridState
	m     *meeting
}

func (p *GridPathfinder) seed(st *gridState, root, goal int32, v uint32) {
	st.touch(root, v)
	st.g[root] = 0
	st.h[root] = p.grid.Heuristic(navmap.NodeID(root), navmap.NodeID(goal))
	st.f[root] = st.h[root]
	st.flags[root] = flagOpened
	st.open.Push(root)
}

// expand relaxes the neighbours of cur. Backward expansion charges the
// reversed edge cost, i.e. the cost of stepping from the neighbour into cur.
func (p *GridPathfinder) expand(st *gridState, cur, goal int32, v uint32, backward bool, watch *meetingWatch) {
	p.nbuf = p.grid.Neighbors(navmap.NodeID(cur), p.nbuf[:0])
	for _, nid := range p.nbuf {
		n := int32(nid)
		st.touch(n, v)
		if st.flags[n]&flagClosed != 0 {
			continue
		}
		var step float64
		if backward {
			step = p.grid.MovementCost(nid, navmap.NodeID(cur))
		} else {
			step = p.grid.MovementCost(navmap.NodeID(cur), nid)
		}
		tentative := st.g[cur] + step
		if st.flags[n]&flagOpened == 0 {
			st.g[n] = tentative
			st.h[n] = p.grid.Heuristic(nid, navmap.NodeID(goal))
			st.f[n] = tentative + st.h[n]
			st.parent[n] = cur
			st.flags[n] |= flagOpened
			st.open.Push(n)
		} else if tentative < st.g[n] {
			st.g[n] = tentative
			st.f[n] = tentative + st.h[n]
			st.parent[n] = cur
			st.open.Update(n)
		} else {
			continue
		}
		if watch != nil && watch.other.seen(n, v) {
			watch.m.offer(n, st.g[n]+watch.other.g[n])
		}
	}
}

func (p *GridPathfinder) cellsToPoints(cells []int32) []core.Point {
	path := make([]core.Point, len(cells))
	for i, c := range cells {
		path[i] = p.grid.PointOf(navmap.NodeID(c))
	}
	return path
}

func reversed(s []int32) []int32 {
	slices.Reverse(s)
	return s
}
