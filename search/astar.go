package search

import (
	"slices"

	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/pqueue"
)

// Node is an arena entry of a generic search
type Node struct {
	ID        navmap.NodeID
	G, H, F   float64
	Parent    int32 // Arena index of the parent, -1 at the root
	HeapIndex int
	Opened    bool
	Closed    bool
}

// Arena holds search nodes and the id -> slot index used by A* and the
// incremental sessions. Reset makes it reusable without reallocating.
type Arena struct {
	Nodes []Node
	index map[navmap.NodeID]int32
}

// NewArena creates an empty arena
func NewArena() *Arena {
	return &Arena{
		Nodes: make([]Node, 0, 256),
		index: make(map[navmap.NodeID]int32, 256),
	}
}

// Reset drops every node
func (a *Arena) Reset() {
	a.Nodes = a.Nodes[:0]
	clear(a.index)
}

// Lookup returns the slot of id if it was visited
func (a *Arena) Lookup(id navmap.NodeID) (int32, bool) {
	i, ok := a.index[id]
	return i, ok
}

// Get returns the slot of id, creating a fresh node when first seen
func (a *Arena) Get(id navmap.NodeID) int32 {
	if i, ok := a.index[id]; ok {
		return i
	}
	i := int32(len(a.Nodes))
	a.Nodes = append(a.Nodes, Node{ID: id, Parent: -1, HeapIndex: -1})
	a.index[id] = i
	return i
}

// Len returns the number of visited nodes
func (a *Arena) Len() int { return len(a.Nodes) }

// NewOpenList builds a heap over arena slots ordered by f, then h
func (a *Arena) NewOpenList() *pqueue.Heap[int32] {
	return pqueue.New(
		func(x, y int32) bool {
			nx, ny := &a.Nodes[x], &a.Nodes[y]
			if nx.F != ny.F {
				return nx.F < ny.F
			}
			return nx.H < ny.H
		},
		func(i int32) *int { return &a.Nodes[i].HeapIndex },
	)
}

// Trace walks parents from slot to the root and returns the node ids root-first
func (a *Arena) Trace(slot int32) []navmap.NodeID {
	var ids []navmap.NodeID
	for i := slot; i >= 0; i = a.Nodes[i].Parent {
		ids = append(ids, a.Nodes[i].ID)
	}
	slices.Reverse(ids)
	return ids
}

// AStar is the canonical A* over any navmap.Map
type AStar struct {
	m     navmap.Map
	opts  Options
	arena *Arena
	open  *pqueue.Heap[int32]
	nbuf  []navmap.NodeID
}

// NewAStar creates an A* pathfinder bound to m
func NewAStar(m navmap.Map, opts Options) *AStar {
	a := &AStar{
		m:     m,
		opts:  opts.normalized(),
		arena: NewArena(),
		nbuf:  make([]navmap.NodeID, 0, 8),
	}
	a.open = a.arena.NewOpenList()
	return a
}

// Map returns the searched map
func (a *AStar) Map() navmap.Map { return a.m }

// FindPath runs a complete search from start to end
func (a *AStar) FindPath(start, end core.Point) Result {
	startNode, ok := a.m.NodeAt(start.X, start.Y)
	if !ok || !startNode.Walkable {
		return NotFound(0)
	}
	endNode, ok := a.m.NodeAt(end.X, end.Y)
	if !ok || !endNode.Walkable {
		return NotFound(0)
	}
	if startNode.ID == endNode.ID {
		return Trivial(start)
	}
	res := a.FindNodes(startNode.ID, endNode.ID)
	if res.Found {
		// Keep the caller's endpoints for maps whose nodes cover several cells
		res.Path[0] = start
		res.Path[len(res.Path)-1] = end
	}
	return res
}

// FindNodes searches between two node ids; path points are node positions
func (a *AStar) FindNodes(startID, endID navmap.NodeID) Result {
	ids, cost, searched := a.SearchNodes(startID, endID)
	if ids == nil {
		return NotFound(searched)
	}
	path := make([]core.Point, len(ids))
	for i, id := range ids {
		path[i] = a.m.Node(id).Position
	}
	return Result{
		Found:         true,
		Path:          path,
		Cost:          cost,
		NodesSearched: searched,
	}
}

// SearchNodes runs the search and returns the node corridor from start to
// end, or nil when no path exists within the node budget
func (a *AStar) SearchNodes(startID, endID navmap.NodeID) ([]navmap.NodeID, float64, int) {
	a.open.Clear()
	a.arena.Reset()

	s := a.arena.Get(startID)
	sn := &a.arena.Nodes[s]
	sn.H = a.m.Heuristic(startID, endID)
	sn.F = sn.H
	sn.Opened = true
	a.open.Push(s)

	searched := 0
	for !a.open.Empty() {
		cur, _ := a.open.Pop()
		searched++
		if searched > a.opts.MaxNodes {
			a.opts.Logger.Debug("astar node budget exhausted",
				zap.Int("max_nodes", a.opts.MaxNodes))
			return nil, 0, searched
		}

		cn := &a.arena.Nodes[cur]
		if cn.ID == endID {
			return a.arena.Trace(cur), cn.G, searched
		}
		cn.Closed = true
		curID, curG := cn.ID, cn.G

		a.nbuf = a.m.Neighbors(curID, a.nbuf[:0])
		for _, nid := range a.nbuf {
			slot := a.arena.Get(nid)
			nb := &a.arena.Nodes[slot]
			if nb.Closed {
				continue
			}
			tentative := curG + a.m.MovementCost(curID, nid)
			if !nb.Opened {
				nb.G = tentative
				nb.H = a.m.Heuristic(nid, endID)
				nb.F = nb.G + nb.H
				nb.Parent = cur
				nb.Opened = true
				a.open.Push(slot)
			} else if tentative < nb.G {
				nb.G = tentative
				nb.F = nb.G + nb.H
				nb.Parent = cur
				a.open.Update(slot)
			}
		}
	}
	return nil, 0, searched
}
