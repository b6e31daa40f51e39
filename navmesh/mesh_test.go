package navmesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
)

var _ navmap.Map = (*Mesh)(nil)

func square(x, y, size float64) []core.Vec2 {
	return []core.Vec2{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}}
}

// lMesh builds three unit squares: A at the origin, B to its right, C above B
func lMesh(t *testing.T) (*Mesh, [3]navmap.NodeID) {
	t.Helper()
	m := New(nil)
	var ids [3]navmap.NodeID
	for i, sq := range [][]core.Vec2{square(0, 0, 1), square(1, 0, 1), square(1, 1, 1)} {
		id, err := m.AddPolygon(sq)
		require.NoError(t, err)
		ids[i] = id
	}
	require.Equal(t, 2, m.AutoConnect())
	return m, ids
}

func TestAddPolygonValidation(t *testing.T) {
	m := New(nil)
	_, err := m.AddPolygon([]core.Vec2{{0, 0}, {1, 0}})
	assert.ErrorIs(t, err, ErrDegeneratePolygon)

	_, err = m.AddPolygon([]core.Vec2{{0, 0}, {1, 1}, {2, 2}})
	assert.ErrorIs(t, err, ErrDegeneratePolygon)

	// Clockwise input is stored counter-clockwise
	id, err := m.AddPolygon([]core.Vec2{{0, 0}, {0, 2}, {2, 2}, {2, 0}})
	require.NoError(t, err)
	p, err := m.Polygon(id)
	require.NoError(t, err)
	assert.Equal(t, []core.Vec2{{2, 0}, {2, 2}, {0, 2}, {0, 0}}, p.Vertices)
	assert.InDelta(t, 1.0, p.Center[0], 1e-9)
	assert.InDelta(t, 1.0, p.Center[1], 1e-9)

	_, err = m.Polygon(7)
	assert.ErrorIs(t, err, ErrUnknownPolygon)
}

func TestLocate(t *testing.T) {
	m, ids := lMesh(t)

	id, ok := m.Locate(core.Vec2{0.5, 0.5})
	require.True(t, ok)
	assert.Equal(t, ids[0], id)

	id, ok = m.Locate(core.Vec2{1.5, 1.5})
	require.True(t, ok)
	assert.Equal(t, ids[2], id)

	id, ok = m.Locate(core.Vec2{1, 0.5})
	require.True(t, ok)
	assert.Equal(t, ids[0], id, "shared edge resolves to the lowest id")

	_, ok = m.Locate(core.Vec2{0.5, 1.5})
	assert.False(t, ok)
	assert.False(t, m.Walkable(5, 5))
}

func TestAutoConnectOrientation(t *testing.T) {
	m, ids := lMesh(t)
	a, _ := m.Polygon(ids[0])
	b, _ := m.Polygon(ids[1])

	pt, ok := a.portalTo(ids[1])
	require.True(t, ok)
	assert.Equal(t, core.Vec2{1, 1}, pt.Left)
	assert.Equal(t, core.Vec2{1, 0}, pt.Right)

	back, ok := b.portalTo(ids[0])
	require.True(t, ok)
	assert.Equal(t, pt.Left, back.Right)
	assert.Equal(t, pt.Right, back.Left)

	assert.ElementsMatch(t, []navmap.NodeID{ids[0], ids[2]}, b.Neighbors())
	assert.Zero(t, m.AutoConnect(), "existing portals are not duplicated")
}

func TestConnectExplicit(t *testing.T) {
	m := New(nil)
	a, err := m.AddPolygon(square(0, 0, 1))
	require.NoError(t, err)
	b, err := m.AddPolygon(square(1, 0, 1))
	require.NoError(t, err)

	assert.ErrorIs(t, m.Connect(a, a, core.Vec2{1, 0}, core.Vec2{1, 1}), ErrSelfConnection)
	assert.ErrorIs(t, m.Connect(a, 9, core.Vec2{1, 0}, core.Vec2{1, 1}), ErrUnknownPolygon)

	require.NoError(t, m.Connect(a, b, core.Vec2{1, 0}, core.Vec2{1, 1}))
	pa, _ := m.Polygon(a)
	pt, ok := pa.portalTo(b)
	require.True(t, ok)
	assert.Equal(t, core.Vec2{1, 1}, pt.Left, "left is oriented by the travel direction")
}

func TestFunnelStraightCorridor(t *testing.T) {
	m := New(nil)
	for i := 0; i < 5; i++ {
		_, err := m.AddPolygon(square(float64(i), 0, 1))
		require.NoError(t, err)
	}
	require.Equal(t, 4, m.AutoConnect())

	start, end := core.Vec2{0.5, 0.5}, core.Vec2{4.5, 0.2}
	p := m.FindPath(start, end)
	require.True(t, p.Found)
	assert.Len(t, p.Polygons, 5)
	assert.Equal(t, []core.Vec2{start, end}, p.Points)
	assert.InDelta(t, end.Sub(start).Len(), p.Length, 1e-9)
}

func TestFunnelHugsCorner(t *testing.T) {
	m, ids := lMesh(t)
	start, end := core.Vec2{0.5, 0.5}, core.Vec2{1.2, 1.8}

	p := m.FindPath(start, end)
	require.True(t, p.Found)
	assert.Equal(t, []navmap.NodeID{ids[0], ids[1], ids[2]}, p.Polygons)
	require.Len(t, p.Points, 3)
	assert.Equal(t, start, p.Points[0])
	assert.InDelta(t, 1.0, p.Points[1][0], 1e-9)
	assert.InDelta(t, 1.0, p.Points[1][1], 1e-9)
	assert.Equal(t, end, p.Points[2])
}

func TestFunnelTwoCorners(t *testing.T) {
	// U-bend: A right to B, up to C, left to D. D is lifted so it does not
	// touch A, and C-D only overlap on part of an edge, so portals are explicit.
	mm := New(nil)
	for _, sq := range [][]core.Vec2{square(0, 0, 1), square(1, 0, 1), square(1, 1, 1), square(0, 1.2, 1)} {
		_, err := mm.AddPolygon(sq)
		require.NoError(t, err)
	}
	require.NoError(t, mm.Connect(0, 1, core.Vec2{1, 0}, core.Vec2{1, 1}))
	require.NoError(t, mm.Connect(1, 2, core.Vec2{1, 1}, core.Vec2{2, 1}))
	require.NoError(t, mm.Connect(2, 3, core.Vec2{1, 1.2}, core.Vec2{1, 2}))

	p := mm.FindPath(core.Vec2{0.2, 0.8}, core.Vec2{0.2, 1.4})
	require.True(t, p.Found)
	assert.Len(t, p.Polygons, 4)
	require.Len(t, p.Points, 4)
	assert.Equal(t, core.Vec2{1, 1}, p.Points[1])
	assert.Equal(t, core.Vec2{1, 1.2}, p.Points[2])

	// With D flush against A the shortcut through the shared edge is straight
	m := New(nil)
	for _, sq := range [][]core.Vec2{square(0, 0, 1), square(1, 0, 1), square(1, 1, 1), square(0, 1, 1)} {
		_, err := m.AddPolygon(sq)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, m.AutoConnect())
	direct := m.FindPath(core.Vec2{0.2, 0.8}, core.Vec2{0.2, 1.4})
	require.True(t, direct.Found)
	assert.Len(t, direct.Points, 2)
}

func TestFindPathFailures(t *testing.T) {
	m := New(nil)
	_, err := m.AddPolygon(square(0, 0, 1))
	require.NoError(t, err)
	_, err = m.AddPolygon(square(3, 0, 1))
	require.NoError(t, err)
	m.AutoConnect()

	assert.False(t, m.FindPath(core.Vec2{0.5, 0.5}, core.Vec2{3.5, 0.5}).Found, "disconnected")
	assert.False(t, m.FindPath(core.Vec2{-1, 0}, core.Vec2{0.5, 0.5}).Found, "start off mesh")

	same := m.FindPath(core.Vec2{0.1, 0.1}, core.Vec2{0.9, 0.9})
	require.True(t, same.Found)
	assert.Len(t, same.Points, 2)
}

func TestMeshAsMap(t *testing.T) {
	m, ids := lMesh(t)
	n, ok := m.NodeAt(1, 1)
	require.True(t, ok)
	assert.Contains(t, ids[:], n.ID)
	assert.Equal(t, 3, m.NodeCount())
	assert.InDelta(t, 1.0, m.Heuristic(ids[0], ids[1]), 1e-9)
	assert.Len(t, m.Neighbors(ids[1], nil), 2)
	assert.Panics(t, func() { m.Node(42) })
}
