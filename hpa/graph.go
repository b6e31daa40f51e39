package hpa

import (
	"slices"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/search"
)

// EdgeValue is the cost state of an edge: EdgeComputed or EdgePending.
// Only EdgeComputed carries an authoritative cost.
type EdgeValue interface {
	edgeValue()
}

// EdgeComputed holds a resolved edge. Cost is +Inf and Path nil when the
// endpoints are not connected inside the cluster.
type EdgeComputed struct {
	Cost float64
	Path []core.Point
}

// EdgePending is an intra-cluster edge whose path has not been searched yet
type EdgePending struct {
	Estimate float64
}

func (EdgeComputed) edgeValue() {}
func (EdgePending) edgeValue()  {}

// Edge links two abstract nodes. Intra-cluster values live in the owning
// cluster's cache so both directions resolve together.
type Edge struct {
	To    int32
	Inter bool
	Cost  float64 // Inter-cluster step cost; unused for intra edges
}

// AbstractNode is an entrance cell, or a temporary query endpoint
type AbstractNode struct {
	ID        int32
	Position  core.Point
	Cluster   int
	Concrete  navmap.NodeID
	Edges     []Edge
	temporary bool
	alive     bool
}

type edgeKey struct{ from, to int32 }

// Cluster is a rectangular region with its entrance nodes and intra-edge cache
type Cluster struct {
	ID    int
	Area  core.Area
	Nodes []int32
	intra map[edgeKey]EdgeValue
	local *search.AStar
}

// boundaryKey identifies the shared edge of two adjacent clusters, a < b
type boundaryKey struct{ a, b int }

// entrance is one crossing point: abstract node ids on each side
type entrance struct{ a, b int32 }

// Stats summarises the abstraction
type Stats struct {
	Clusters      int
	AbstractNodes int
	Edges         int
	CachedPaths   int
	PendingEdges  int
}

func (p *Pathfinder) node(id int32) *AbstractNode { return &p.nodes[id] }

// allocNode returns a fresh abstract node id, reusing freed slots
func (p *Pathfinder) allocNode(pos core.Point, cluster int, temporary bool) int32 {
	var id int32
	if n := len(p.free); n > 0 {
		id = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		id = int32(len(p.nodes))
		p.nodes = append(p.nodes, AbstractNode{})
		p.state.grow(len(p.nodes))
	}
	p.nodes[id] = AbstractNode{
		ID:        id,
		Position:  pos,
		Cluster:   cluster,
		Concrete:  p.grid.IDOf(pos.X, pos.Y),
		temporary: temporary,
		alive:     true,
	}
	return id
}

func (p *Pathfinder) freeNode(id int32) {
	n := p.node(id)
	if !n.temporary {
		delete(p.byCell, n.Concrete)
	}
	c := &p.clusters[n.Cluster]
	c.Nodes = slices.DeleteFunc(c.Nodes, func(x int32) bool { return x == id })
	*n = AbstractNode{ID: id}
	p.free = append(p.free, id)
}

// ensureEntranceNode returns the abstract node at pos, creating it if needed
func (p *Pathfinder) ensureEntranceNode(pos core.Point) int32 {
	cell := p.grid.IDOf(pos.X, pos.Y)
	if id, ok := p.byCell[cell]; ok {
		return id
	}
	cid := p.clusterAt(pos)
	id := p.allocNode(pos, cid, false)
	p.byCell[cell] = id
	p.clusters[cid].Nodes = append(p.clusters[cid].Nodes, id)
	return id
}

func (p *Pathfinder) addEdge(from, to int32, inter bool, cost float64) {
	n := p.node(from)
	for i := range n.Edges {
		if n.Edges[i].To == to && n.Edges[i].Inter == inter {
			n.Edges[i].Cost = cost
			return
		}
	}
	n.Edges = append(n.Edges, Edge{To: to, Inter: inter, Cost: cost})
}

func (p *Pathfinder) removeEdgesTo(from, to int32, inter bool) {
	n := p.node(from)
	n.Edges = slices.DeleteFunc(n.Edges, func(e Edge) bool { return e.To == to && e.Inter == inter })
}

func (p *Pathfinder) hasInterEdges(id int32) bool {
	for _, e := range p.node(id).Edges {
		if e.Inter {
			return true
		}
	}
	return false
}

// Stats reports sizes of the abstract graph
func (p *Pathfinder) Stats() Stats {
	s := Stats{Clusters: len(p.clusters)}
	for i := range p.nodes {
		n := &p.nodes[i]
		if !n.alive || n.temporary {
			continue
		}
		s.AbstractNodes++
		s.Edges += len(n.Edges)
	}
	for i := range p.clusters {
		for _, v := range p.clusters[i].intra {
			switch v := v.(type) {
			case EdgeComputed:
				if v.Path != nil {
					s.CachedPaths++
				}
			case EdgePending:
				s.PendingEdges++
			}
		}
	}
	return s
}

// Clusters exposes the cluster table for inspection
func (p *Pathfinder) Clusters() []Cluster { return p.clusters }

// Node returns an abstract node by id
func (p *Pathfinder) Node(id int32) AbstractNode { return p.nodes[id] }
