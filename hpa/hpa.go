package hpa

import (
	"context"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/pqueue"
	"github.com/lixenwraith/navcrowd/search"
)

var tracer trace.Tracer = otel.Tracer("github.com/lixenwraith/navcrowd/hpa")

// Pathfinder answers queries through the cluster abstraction
type Pathfinder struct {
	grid *navmap.GridMap
	cfg  Config
	log  *zap.Logger

	cols, rows int
	clusters   []Cluster
	nodes      []AbstractNode
	free       []int32
	byCell     map[navmap.NodeID]int32
	boundaries map[boundaryKey][]entrance

	state *abstractState
}

// New builds the abstraction for grid
func New(grid *navmap.GridMap, cfg Config) (*Pathfinder, error) {
	if grid == nil {
		return nil, ErrNilGrid
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxLocalNodes <= 0 {
		cfg.MaxLocalNodes = grid.NodeCount()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pathfinder{
		grid:  grid,
		cfg:   cfg,
		log:   log,
		state: newAbstractState(),
	}
	p.Preprocess(context.Background())
	return p, nil
}

// Grid returns the underlying grid
func (p *Pathfinder) Grid() *navmap.GridMap { return p.grid }

// Config returns the active configuration
func (p *Pathfinder) Config() Config { return p.cfg }

// Preprocess discards the abstraction and rebuilds it from the grid
func (p *Pathfinder) Preprocess(ctx context.Context) {
	_, span := tracer.Start(ctx, "hpa.Preprocess")
	defer span.End()

	cs := p.cfg.ClusterSize
	p.cols = (p.grid.Width() + cs - 1) / cs
	p.rows = (p.grid.Height() + cs - 1) / cs
	p.clusters = make([]Cluster, 0, p.cols*p.rows)
	p.nodes = p.nodes[:0]
	p.free = p.free[:0]
	p.byCell = make(map[navmap.NodeID]int32)
	p.boundaries = make(map[boundaryKey][]entrance)
	p.state.reset()

	for cy := 0; cy < p.rows; cy++ {
		for cx := 0; cx < p.cols; cx++ {
			area := core.Rect(cx*cs, cy*cs, cs, cs).Clamp(p.grid.Width(), p.grid.Height())
			p.clusters = append(p.clusters, Cluster{
				ID:    len(p.clusters),
				Area:  area,
				intra: make(map[edgeKey]EdgeValue),
				local: search.NewAStar(navmap.NewSubMap(p.grid, area), search.Options{
					MaxNodes: p.cfg.MaxLocalNodes,
					Logger:   p.log,
				}),
			})
		}
	}

	for id := range p.clusters {
		for _, nb := range p.forwardNeighbors(id) {
			p.buildBoundary(boundaryKey{a: id, b: nb})
		}
	}
	for id := range p.clusters {
		p.buildIntraEdges(id)
	}

	st := p.Stats()
	span.SetAttributes(
		attribute.Int("hpa.clusters", st.Clusters),
		attribute.Int("hpa.nodes", st.AbstractNodes),
		attribute.Int("hpa.edges", st.Edges),
	)
	p.log.Info("hpa abstraction built",
		zap.Int("clusters", st.Clusters),
		zap.Int("nodes", st.AbstractNodes),
		zap.Int("edges", st.Edges),
		zap.Int("cached_paths", st.CachedPaths),
		zap.Bool("lazy", p.cfg.LazyIntraEdges))
}

func (p *Pathfinder) clusterAt(pos core.Point) int {
	cs := p.cfg.ClusterSize
	return (pos.Y/cs)*p.cols + pos.X/cs
}

// forwardNeighbors returns the right and lower neighbours of a cluster
func (p *Pathfinder) forwardNeighbors(id int) []int {
	out := make([]int, 0, 2)
	cx, cy := id%p.cols, id/p.cols
	if cx+1 < p.cols {
		out = append(out, id+1)
	}
	if cy+1 < p.rows {
		out = append(out, id+p.cols)
	}
	return out
}

// boundaryKeys returns the keys of all four boundaries of a cluster
func (p *Pathfinder) boundaryKeys(id int) []boundaryKey {
	out := make([]boundaryKey, 0, 4)
	cx, cy := id%p.cols, id/p.cols
	if cx > 0 {
		out = append(out, boundaryKey{a: id - 1, b: id})
	}
	if cy > 0 {
		out = append(out, boundaryKey{a: id - p.cols, b: id})
	}
	for _, nb := range p.forwardNeighbors(id) {
		out = append(out, boundaryKey{a: id, b: nb})
	}
	return out
}

// entrancePositions spreads entrances over the span [start, end]
func (p *Pathfinder) entrancePositions(start, end int) []int {
	length := end - start + 1
	maxW := p.cfg.MaxEntranceWidth
	if length <= maxW {
		return []int{start + (length-1)/2}
	}
	count := (length + maxW - 1) / maxW
	out := make([]int, 0, count)
	if p.cfg.AnchorEntranceEnds {
		count = max(count, 2)
		for i := 0; i < count; i++ {
			off := int(math.Round(float64(i*(length-1)) / float64(count-1)))
			out = append(out, start+off)
		}
		return out
	}
	for i := 0; i < count; i++ {
		out = append(out, start+(2*i+1)*length/(2*count))
	}
	return out
}

// buildBoundary scans the shared edge of clusters key.a and key.b, where b is
// right of or below a, and creates entrances for every walkable span
func (p *Pathfinder) buildBoundary(key boundaryKey) {
	ca, cb := p.clusters[key.a].Area, p.clusters[key.b].Area
	vertical := ca.MaxX+1 == cb.MinX

	// cross returns the pair of facing cells at offset i along the boundary
	cross := func(i int) (core.Point, core.Point) {
		if vertical {
			return core.Point{X: ca.MaxX, Y: i}, core.Point{X: cb.MinX, Y: i}
		}
		return core.Point{X: i, Y: ca.MaxY}, core.Point{X: i, Y: cb.MinY}
	}
	lo, hi := ca.MinX, ca.MaxX
	if vertical {
		lo, hi = ca.MinY, ca.MaxY
	}

	var ents []entrance
	spanStart := -1
	for i := lo; i <= hi+1; i++ {
		open := false
		if i <= hi {
			a, b := cross(i)
			open = p.grid.Walkable(a.X, a.Y) && p.grid.Walkable(b.X, b.Y)
		}
		switch {
		case open && spanStart < 0:
			spanStart = i
		case !open && spanStart >= 0:
			for _, pos := range p.entrancePositions(spanStart, i-1) {
				a, b := cross(pos)
				na, nb := p.ensureEntranceNode(a), p.ensureEntranceNode(b)
				p.addEdge(na, nb, true, p.grid.StepCost(a, b))
				p.addEdge(nb, na, true, p.grid.StepCost(b, a))
				ents = append(ents, entrance{a: na, b: nb})
			}
			spanStart = -1
		}
	}
	if len(ents) > 0 {
		p.boundaries[key] = ents
	}
}

// clearBoundary drops the entrances of a boundary and frees nodes that no
// longer serve any entrance
func (p *Pathfinder) clearBoundary(key boundaryKey) {
	for _, e := range p.boundaries[key] {
		p.removeEdgesTo(e.a, e.b, true)
		p.removeEdgesTo(e.b, e.a, true)
	}
	for _, e := range p.boundaries[key] {
		for _, id := range [2]int32{e.a, e.b} {
			if p.nodes[id].alive && !p.hasInterEdges(id) {
				p.freeNode(id)
			}
		}
	}
	delete(p.boundaries, key)
}

// buildIntraEdges rebuilds every intra edge of a cluster
func (p *Pathfinder) buildIntraEdges(cid int) {
	c := &p.clusters[cid]
	clear(c.intra)
	for _, id := range c.Nodes {
		n := p.node(id)
		kept := n.Edges[:0]
		for _, e := range n.Edges {
			if e.Inter {
				kept = append(kept, e)
			}
		}
		n.Edges = kept
	}

	for i, a := range c.Nodes {
		for _, b := range c.Nodes[i+1:] {
			if p.cfg.LazyIntraEdges {
				est := p.grid.Heuristic(p.nodes[a].Concrete, p.nodes[b].Concrete)
				c.intra[edgeKey{a, b}] = EdgePending{Estimate: est}
				c.intra[edgeKey{b, a}] = EdgePending{Estimate: est}
			} else if ec := p.computeIntra(c, a, b); math.IsInf(ec.Cost, 1) {
				continue
			}
			p.addEdge(a, b, false, 0)
			p.addEdge(b, a, false, 0)
		}
	}
}

// computeIntra runs the local search between two nodes of c and caches both
// directions
func (p *Pathfinder) computeIntra(c *Cluster, a, b int32) EdgeComputed {
	res := c.local.FindPath(p.nodes[a].Position, p.nodes[b].Position)
	if !res.Found {
		unreachable := EdgeComputed{Cost: math.Inf(1)}
		c.intra[edgeKey{a, b}] = unreachable
		c.intra[edgeKey{b, a}] = unreachable
		return unreachable
	}
	fwd := EdgeComputed{Cost: res.Cost, Path: res.Path}
	rev := make([]core.Point, len(res.Path))
	for i, pt := range res.Path {
		rev[len(rev)-1-i] = pt
	}
	c.intra[edgeKey{a, b}] = fwd
	c.intra[edgeKey{b, a}] = EdgeComputed{Cost: p.grid.PathCost(rev), Path: rev}
	return fwd
}

// intraEdge returns the resolved intra edge from a to b, searching pending ones
func (p *Pathfinder) intraEdge(cid int, a, b int32) EdgeComputed {
	c := &p.clusters[cid]
	switch v := c.intra[edgeKey{a, b}].(type) {
	case EdgeComputed:
		return v
	case EdgePending:
		return p.computeIntra(c, a, b)
	default:
		return EdgeComputed{Cost: math.Inf(1)}
	}
}

// abstractState holds per-node search fields indexed by abstract node id
type abstractState struct {
	g, h, f   []float64
	parent    []int32
	heapIndex []int
	stamp     []uint32
	closed    []bool
	version   uint32
	open      *pqueue.Heap[int32]
}

func newAbstractState() *abstractState {
	s := &abstractState{}
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

func (s *abstractState) reset() {
	s.open.Clear()
	s.g, s.h, s.f = s.g[:0], s.h[:0], s.f[:0]
	s.parent, s.heapIndex = s.parent[:0], s.heapIndex[:0]
	s.stamp, s.closed = s.stamp[:0], s.closed[:0]
}

func (s *abstractState) grow(n int) {
	for len(s.g) < n {
		s.g = append(s.g, 0)
		s.h = append(s.h, 0)
		s.f = append(s.f, 0)
		s.parent = append(s.parent, -1)
		s.heapIndex = append(s.heapIndex, -1)
		s.stamp = append(s.stamp, 0)
		s.closed = append(s.closed, false)
	}
}

func (s *abstractState) next() uint32 {
	s.version++
	if s.version == 0 {
		clear(s.stamp)
		s.version = 1
	}
	return s.version
}

func (s *abstractState) touch(i int32, v uint32) {
	if s.stamp[i] == v {
		return
	}
	s.stamp[i] = v
	s.g[i] = math.Inf(1)
	s.h[i] = 0
	s.f[i] = math.Inf(1)
	s.parent[i] = -1
	s.heapIndex[i] = -1
	s.closed[i] = false
}
