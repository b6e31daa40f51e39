package navmesh

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
)

// Path is the result of a mesh query
type Path struct {
	Found         bool
	Polygons      []navmap.NodeID // Corridor from the start polygon to the end polygon
	Points        []core.Vec2     // Straightened waypoints including both endpoints
	Length        float64
	NodesSearched int
}

// FindPath searches the polygon graph and straightens the corridor
func (m *Mesh) FindPath(start, end core.Vec2) Path {
	sp, ok := m.Locate(start)
	if !ok {
		return Path{}
	}
	ep, ok := m.Locate(end)
	if !ok {
		return Path{}
	}
	if sp == ep {
		pts := []core.Vec2{start, end}
		return Path{Found: true, Polygons: []navmap.NodeID{sp}, Points: pts, Length: polylineLength(pts)}
	}

	corridor, _, searched := m.astar.SearchNodes(sp, ep)
	if corridor == nil {
		m.log.Debug("navmesh path not found", zap.Int64("from", int64(sp)), zap.Int64("to", int64(ep)))
		return Path{NodesSearched: searched}
	}
	pts := m.StringPull(start, end, corridor)
	return Path{
		Found:         true,
		Polygons:      corridor,
		Points:        pts,
		Length:        polylineLength(pts),
		NodesSearched: searched,
	}
}

// Portals returns the oriented portals along a corridor, bracketed by the
// degenerate start and end portals
func (m *Mesh) Portals(start, end core.Vec2, corridor []navmap.NodeID) (lefts, rights []core.Vec2) {
	lefts = append(lefts, start)
	rights = append(rights, start)
	for i := 0; i+1 < len(corridor); i++ {
		pt, ok := m.polys[corridor[i]].portalTo(corridor[i+1])
		if !ok {
			continue
		}
		lefts = append(lefts, pt.Left)
		rights = append(rights, pt.Right)
	}
	lefts = append(lefts, end)
	rights = append(rights, end)
	return lefts, rights
}

// triarea2 is twice the signed area of (a, b, c), positive when c lies to
// the right of a->b
func triarea2(a, b, c core.Vec2) float64 {
	return core.Det(c.Sub(a), b.Sub(a))
}

func vequal(a, b core.Vec2) bool {
	return a.Sub(b).LenSqr() < vertexEpsilon*vertexEpsilon
}

// StringPull runs the simple stupid funnel algorithm over the corridor.
// When one side crosses the other, the crossed side's vertex becomes the new
// apex, both sides collapse onto it and the scan resumes from its portal.
func (m *Mesh) StringPull(start, end core.Vec2, corridor []navmap.NodeID) []core.Vec2 {
	lefts, rights := m.Portals(start, end, corridor)
	pts := []core.Vec2{start}

	apex, left, right := start, lefts[0], rights[0]
	apexIndex, leftIndex, rightIndex := 0, 0, 0

	for i := 1; i < len(lefts); i++ {
		l, r := lefts[i], rights[i]

		if triarea2(apex, right, r) <= 0 {
			if vequal(apex, right) || triarea2(apex, left, r) > 0 {
				right, rightIndex = r, i
			} else {
				apex, apexIndex = left, leftIndex
				pts = appendDistinct(pts, apex)
				left, right = apex, apex
				leftIndex, rightIndex = apexIndex, apexIndex
				i = apexIndex
				continue
			}
		}

		if triarea2(apex, left, l) >= 0 {
			if vequal(apex, left) || triarea2(apex, right, l) < 0 {
				left, leftIndex = l, i
			} else {
				apex, apexIndex = right, rightIndex
				pts = appendDistinct(pts, apex)
				left, right = apex, apex
				leftIndex, rightIndex = apexIndex, apexIndex
				i = apexIndex
				continue
			}
		}
	}
	return appendDistinct(pts, end)
}

func appendDistinct(pts []core.Vec2, p core.Vec2) []core.Vec2 {
	if len(pts) > 0 && vequal(pts[len(pts)-1], p) {
		return pts
	}
	return append(pts, p)
}

func polylineLength(pts []core.Vec2) float64 {
	var l float64
	for i := 1; i < len(pts); i++ {
		l += pts[i].Sub(pts[i-1]).Len()
	}
	return l
}
