// Package navmesh implements a polygon navigation mesh. Polygons are joined
// by portals on shared edges; paths are found with A* over polygons and
// straightened with the simple stupid funnel algorithm.
//
// Coordinates use a y-up convention: polygons are stored counter-clockwise
// (positive signed area) and portals are oriented left/right relative to the
// direction of travel.
package navmesh

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/search"
)

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
	vertexEpsilon    = 1e-6
)

// Portal is the shared edge towards a neighbour, seen from inside the owner
// facing the neighbour
type Portal struct {
	Neighbor    navmap.NodeID
	Left, Right core.Vec2
}

// Polygon is one convex walkable cell of the mesh
type Polygon struct {
	ID       navmap.NodeID
	Vertices []core.Vec2
	Center   core.Vec2
	Portals  []Portal

	ring  orb.Ring
	bound orb.Bound
	rect  rtreego.Rect
}

// Bounds implements rtreego.Spatial
func (p *Polygon) Bounds() rtreego.Rect { return p.rect }

// Neighbors returns the ids of adjacent polygons
func (p *Polygon) Neighbors() []navmap.NodeID {
	out := make([]navmap.NodeID, len(p.Portals))
	for i, pt := range p.Portals {
		out[i] = pt.Neighbor
	}
	return out
}

// portalTo returns the portal leading to id
func (p *Polygon) portalTo(id navmap.NodeID) (Portal, bool) {
	for _, pt := range p.Portals {
		if pt.Neighbor == id {
			return pt, true
		}
	}
	return Portal{}, false
}

// Mesh is a set of polygons with portal adjacency
type Mesh struct {
	polys []*Polygon
	tree  *rtreego.Rtree
	astar *search.AStar
	log   *zap.Logger
}

// New creates an empty mesh; nil logger disables logging
func New(logger *zap.Logger) *Mesh {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mesh{
		tree: rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren),
		log:  logger,
	}
	m.astar = search.NewAStar(m, search.Options{MaxNodes: math.MaxInt, Logger: logger})
	return m
}

// AddPolygon adds a convex polygon and returns its id. Clockwise input is
// reversed.
func (m *Mesh) AddPolygon(vertices []core.Vec2) (navmap.NodeID, error) {
	if len(vertices) < 3 {
		return navmap.InvalidNode, fmt.Errorf("%w: %d vertices", ErrDegeneratePolygon, len(vertices))
	}
	verts := append([]core.Vec2(nil), vertices...)
	ring := make(orb.Ring, 0, len(verts)+1)
	for _, v := range verts {
		ring = append(ring, orb.Point{v[0], v[1]})
	}
	ring = append(ring, ring[0])

	area := planar.Area(ring)
	if math.Abs(area) < vertexEpsilon {
		return navmap.InvalidNode, fmt.Errorf("%w: zero area", ErrDegeneratePolygon)
	}
	if ring.Orientation() == orb.CW {
		ring.Reverse()
		for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
			verts[i], verts[j] = verts[j], verts[i]
		}
	}
	centroid, _ := planar.CentroidArea(orb.Polygon{ring})

	bound := ring.Bound()
	rect, err := rtreego.NewRect(
		rtreego.Point{bound.Min[0], bound.Min[1]},
		[]float64{max(bound.Max[0]-bound.Min[0], vertexEpsilon), max(bound.Max[1]-bound.Min[1], vertexEpsilon)},
	)
	if err != nil {
		return navmap.InvalidNode, fmt.Errorf("%w: %v", ErrDegeneratePolygon, err)
	}

	p := &Polygon{
		ID:       navmap.NodeID(len(m.polys)),
		Vertices: verts,
		Center:   core.Vec2{centroid[0], centroid[1]},
		ring:     ring,
		bound:    bound,
		rect:     rect,
	}
	m.polys = append(m.polys, p)
	m.tree.Insert(p)
	return p.ID, nil
}

// Polygon returns a polygon by id
func (m *Mesh) Polygon(id navmap.NodeID) (*Polygon, error) {
	if id < 0 || int(id) >= len(m.polys) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPolygon, id)
	}
	return m.polys[id], nil
}

// Len returns the number of polygons
func (m *Mesh) Len() int { return len(m.polys) }

// Connect adds a portal between a and b along the segment p1-p2. The
// segment is oriented from the polygon centres.
func (m *Mesh) Connect(a, b navmap.NodeID, p1, p2 core.Vec2) error {
	pa, err := m.Polygon(a)
	if err != nil {
		return err
	}
	pb, err := m.Polygon(b)
	if err != nil {
		return err
	}
	if a == b {
		return fmt.Errorf("%w: %d", ErrSelfConnection, a)
	}
	left, right := p1, p2
	if core.Det(pb.Center.Sub(pa.Center), p1.Sub(pa.Center)) < 0 {
		left, right = p2, p1
	}
	m.link(pa, pb, left, right)
	return nil
}

// link stores the portal on both sides; left/right are as seen from a
func (m *Mesh) link(a, b *Polygon, left, right core.Vec2) {
	if _, ok := a.portalTo(b.ID); ok {
		return
	}
	a.Portals = append(a.Portals, Portal{Neighbor: b.ID, Left: left, Right: right})
	b.Portals = append(b.Portals, Portal{Neighbor: a.ID, Left: right, Right: left})
}

func sameVertex(a, b core.Vec2) bool {
	return math.Abs(a[0]-b[0]) < vertexEpsilon && math.Abs(a[1]-b[1]) < vertexEpsilon
}

// AutoConnect links every pair of polygons sharing an identical edge and
// returns the number of portals created
func (m *Mesh) AutoConnect() int {
	created := 0
	for _, a := range m.polys {
		// Touching rectangles do not intersect in the tree, so pad the query
		q, err := rtreego.NewRect(
			rtreego.Point{a.bound.Min[0] - vertexEpsilon, a.bound.Min[1] - vertexEpsilon},
			[]float64{a.bound.Max[0] - a.bound.Min[0] + 2*vertexEpsilon, a.bound.Max[1] - a.bound.Min[1] + 2*vertexEpsilon},
		)
		if err != nil {
			continue
		}
		for _, c := range m.tree.SearchIntersect(q) {
			b := c.(*Polygon)
			if b.ID <= a.ID {
				continue
			}
			if _, ok := a.portalTo(b.ID); ok {
				continue
			}
			if left, right, ok := sharedEdge(a, b); ok {
				m.link(a, b, left, right)
				created++
			}
		}
	}
	m.log.Debug("navmesh auto-connect", zap.Int("portals", created), zap.Int("polygons", len(m.polys)))
	return created
}

// sharedEdge finds an edge of a that b walks in the opposite direction.
// Leaving a through its CCW edge v[i]->v[i+1], v[i+1] is on the left.
func sharedEdge(a, b *Polygon) (core.Vec2, core.Vec2, bool) {
	na, nb := len(a.Vertices), len(b.Vertices)
	for i := 0; i < na; i++ {
		u0, u1 := a.Vertices[i], a.Vertices[(i+1)%na]
		for j := 0; j < nb; j++ {
			w0, w1 := b.Vertices[j], b.Vertices[(j+1)%nb]
			if sameVertex(u0, w1) && sameVertex(u1, w0) {
				return u1, u0, true
			}
		}
	}
	return core.Vec2{}, core.Vec2{}, false
}

// Locate returns the polygon containing p; ties go to the lowest id
func (m *Mesh) Locate(p core.Vec2) (navmap.NodeID, bool) {
	pt := orb.Point{p[0], p[1]}
	found := navmap.InvalidNode
	for _, c := range m.tree.SearchIntersect(rtreego.Point{p[0], p[1]}.ToRect(vertexEpsilon)) {
		poly := c.(*Polygon)
		if found != navmap.InvalidNode && poly.ID > found {
			continue
		}
		if planar.RingContains(poly.ring, pt) {
			found = poly.ID
		}
	}
	return found, found != navmap.InvalidNode
}

// NodeAt locates the polygon under the cell (x, y)
func (m *Mesh) NodeAt(x, y int) (navmap.Node, bool) {
	id, ok := m.Locate(core.Vec2{float64(x), float64(y)})
	if !ok {
		return navmap.Node{ID: navmap.InvalidNode}, false
	}
	return m.Node(id), true
}

// Node returns a polygon as a map node positioned at its rounded centre;
// panics on an unknown id
func (m *Mesh) Node(id navmap.NodeID) navmap.Node {
	if id < 0 || int(id) >= len(m.polys) {
		panic(fmt.Sprintf("navmesh: polygon id %d out of range [0,%d)", id, len(m.polys)))
	}
	return navmap.Node{
		ID:       id,
		Position: core.PointOf(m.polys[id].Center),
		Cost:     1,
		Walkable: true,
	}
}

// Neighbors appends the polygons reachable through portals
func (m *Mesh) Neighbors(id navmap.NodeID, buf []navmap.NodeID) []navmap.NodeID {
	for _, pt := range m.polys[id].Portals {
		buf = append(buf, pt.Neighbor)
	}
	return buf
}

// Heuristic is the distance between polygon centres
func (m *Mesh) Heuristic(a, b navmap.NodeID) float64 {
	return m.polys[b].Center.Sub(m.polys[a].Center).Len()
}

// MovementCost is the distance between polygon centres
func (m *Mesh) MovementCost(from, to navmap.NodeID) float64 {
	return m.Heuristic(from, to)
}

// Walkable reports whether (x, y) lies on the mesh
func (m *Mesh) Walkable(x, y int) bool {
	_, ok := m.Locate(core.Vec2{float64(x), float64(y)})
	return ok
}

// NodeCount returns the number of polygons
func (m *Mesh) NodeCount() int { return len(m.polys) }
