package hpa

import (
	"math"

	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/search"
)

// FindPath returns a concrete path from start to end
func (p *Pathfinder) FindPath(start, end core.Point) search.Result {
	if !p.grid.Walkable(start.X, start.Y) || !p.grid.Walkable(end.X, end.Y) {
		return search.NotFound(0)
	}
	if start == end {
		return search.Trivial(start)
	}

	searched := 0
	sc, ec := p.clusterAt(start), p.clusterAt(end)
	if sc == ec {
		res := p.clusters[sc].local.FindPath(start, end)
		if res.Found {
			return res
		}
		// The cluster alone may not connect them; try leaving and re-entering
		searched = res.NodesSearched
	}

	sID, sTemp := p.insertEndpoint(start, true)
	eID, eTemp := p.insertEndpoint(end, false)

	ids, cost, n := p.searchAbstract(sID, eID)
	searched += n

	var res search.Result
	if ids != nil {
		res = search.Result{
			Found:         true,
			Path:          p.refine(ids),
			Cost:          cost,
			NodesSearched: searched,
		}
	} else {
		res = search.NotFound(searched)
	}

	if eTemp {
		p.retire(eID)
	}
	if sTemp {
		p.retire(sID)
	}
	p.log.Debug("hpa query",
		zap.Bool("found", res.Found),
		zap.Int("abstract_nodes", n),
		zap.Int("path_len", len(res.Path)))
	return res
}

// insertEndpoint returns the abstract node at pos, wiring a temporary one to
// every node of its cluster when pos is not an entrance. Outgoing controls
// the direction of the temporary edges.
func (p *Pathfinder) insertEndpoint(pos core.Point, outgoing bool) (int32, bool) {
	if id, ok := p.byCell[p.grid.IDOf(pos.X, pos.Y)]; ok {
		return id, false
	}
	cid := p.clusterAt(pos)
	id := p.allocNode(pos, cid, true)
	c := &p.clusters[cid]
	for _, other := range c.Nodes {
		op := p.nodes[other].Position
		if outgoing {
			res := c.local.FindPath(pos, op)
			if !res.Found {
				continue
			}
			c.intra[edgeKey{id, other}] = EdgeComputed{Cost: res.Cost, Path: res.Path}
			p.addEdge(id, other, false, 0)
		} else {
			res := c.local.FindPath(op, pos)
			if !res.Found {
				continue
			}
			c.intra[edgeKey{other, id}] = EdgeComputed{Cost: res.Cost, Path: res.Path}
			p.addEdge(other, id, false, 0)
		}
	}
	return id, true
}

// retire unlinks a temporary node and drops it from the open list if queued
func (p *Pathfinder) retire(id int32) {
	p.state.open.Remove(id)
	n := p.node(id)
	c := &p.clusters[n.Cluster]
	for _, other := range c.Nodes {
		p.removeEdgesTo(other, id, false)
		delete(c.intra, edgeKey{id, other})
		delete(c.intra, edgeKey{other, id})
	}
	p.freeNode(id)
}

// searchAbstract runs A* over the abstract graph, resolving pending intra
// edges as they are relaxed
func (p *Pathfinder) searchAbstract(start, goal int32) ([]int32, float64, int) {
	st := p.state
	v := st.next()
	st.open.Clear()

	goalCell := p.nodes[goal].Concrete
	st.touch(start, v)
	st.g[start] = 0
	st.h[start] = p.grid.Heuristic(p.nodes[start].Concrete, goalCell)
	st.f[start] = st.h[start]
	st.open.Push(start)

	searched := 0
	for !st.open.Empty() {
		cur, _ := st.open.Pop()
		searched++
		if cur == goal {
			var ids []int32
			for i := cur; i >= 0; i = st.parent[i] {
				ids = append(ids, i)
			}
			for l, r := 0, len(ids)-1; l < r; l, r = l+1, r-1 {
				ids[l], ids[r] = ids[r], ids[l]
			}
			return ids, st.g[goal], searched
		}
		st.closed[cur] = true

		n := &p.nodes[cur]
		for _, e := range n.Edges {
			st.touch(e.To, v)
			if st.closed[e.To] {
				continue
			}
			cost := e.Cost
			if !e.Inter {
				cost = p.intraEdge(n.Cluster, cur, e.To).Cost
			}
			if math.IsInf(cost, 1) {
				continue
			}
			tentative := st.g[cur] + cost
			if tentative >= st.g[e.To] {
				continue
			}
			first := math.IsInf(st.g[e.To], 1)
			st.g[e.To] = tentative
			if first {
				st.h[e.To] = p.grid.Heuristic(p.nodes[e.To].Concrete, goalCell)
			}
			st.f[e.To] = tentative + st.h[e.To]
			st.parent[e.To] = cur
			if st.open.Contains(e.To) {
				st.open.Update(e.To)
			} else {
				st.open.Push(e.To)
			}
		}
	}
	return nil, 0, searched
}

// refine splices concrete sub-paths along an abstract path
func (p *Pathfinder) refine(ids []int32) []core.Point {
	path := []core.Point{p.nodes[ids[0]].Position}
	for i := 1; i < len(ids); i++ {
		from, to := &p.nodes[ids[i-1]], &p.nodes[ids[i]]
		if from.Cluster != to.Cluster {
			path = append(path, to.Position)
			continue
		}
		sub := p.intraEdge(from.Cluster, from.ID, to.ID).Path
		if len(sub) > 1 {
			path = append(path, sub[1:]...)
		}
	}
	return path
}
