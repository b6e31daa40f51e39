package postprocess

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/search"
)

func grid(t *testing.T, rows ...string) *navmap.GridMap {
	t.Helper()
	g, err := navmap.FromStrings(rows, navmap.DefaultGridOptions())
	require.NoError(t, err)
	return g
}

func TestLineOfSight(t *testing.T) {
	g := grid(t,
		"......",
		"..#...",
		"......",
		"......",
	)
	tests := []struct {
		name string
		a, b core.Point
		want bool
	}{
		{"same cell", core.Point{X: 0, Y: 0}, core.Point{X: 0, Y: 0}, true},
		{"open row", core.Point{X: 0, Y: 0}, core.Point{X: 5, Y: 0}, true},
		{"through wall", core.Point{X: 0, Y: 1}, core.Point{X: 5, Y: 1}, false},
		{"clipped corner", core.Point{X: 1, Y: 0}, core.Point{X: 3, Y: 2}, false},
		{"below wall", core.Point{X: 0, Y: 3}, core.Point{X: 5, Y: 2}, true},
		{"blocked endpoint", core.Point{X: 2, Y: 1}, core.Point{X: 0, Y: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LineOfSight(g, tt.a, tt.b))
			assert.Equal(t, tt.want, LineOfSight(g, tt.b, tt.a), "symmetric")
		})
	}
}

func TestRaycast(t *testing.T) {
	g := grid(t,
		".....",
		"..#..",
		".....",
	)
	assert.True(t, Raycast(g, core.Vec2{0, 0}, core.Vec2{4, 0}, 0.25))
	assert.False(t, Raycast(g, core.Vec2{0, 1}, core.Vec2{4, 1}, 0.25))
	assert.True(t, Raycast(g, core.Vec2{1, 2}, core.Vec2{1, 2}, 0.25))
}

func TestSmoothLOSKeepsCornersAndEndpoints(t *testing.T) {
	g := grid(t,
		"........",
		"#######.",
		"........",
	)
	res := search.NewAStar(g, search.DefaultOptions()).FindPath(core.Point{X: 0, Y: 0}, core.Point{X: 0, Y: 2})
	require.True(t, res.Found)

	smoothed := SmoothLOS(g, res.Path)
	assert.Equal(t, res.Path[0], smoothed[0])
	assert.Equal(t, res.Path[len(res.Path)-1], smoothed[len(smoothed)-1])
	assert.Less(t, len(smoothed), len(res.Path))
	for i := 1; i < len(smoothed); i++ {
		assert.True(t, LineOfSight(g, smoothed[i-1], smoothed[i]), "segment %d", i)
	}
}

func TestSmoothLOSStraightCollapses(t *testing.T) {
	g := grid(t, "..........")
	path := search.Interpolate([]core.Point{{X: 0, Y: 0}, {X: 9, Y: 0}})
	assert.Equal(t, []core.Point{{X: 0, Y: 0}, {X: 9, Y: 0}}, SmoothLOS(g, path))
}

func TestCatmullRom(t *testing.T) {
	pts := []core.Vec2{{0, 0}, {4, 0}, {4, 4}}
	out := CatmullRom(pts, 4, 0.5)
	require.Len(t, out, 9)
	assert.Equal(t, pts[0], out[0])
	assert.Equal(t, pts[1], out[4], "spline passes through control points")
	assert.Equal(t, pts[2], out[8])

	// Too few points are returned unchanged
	assert.Equal(t, pts[:2], CatmullRom(pts[:2], 4, 0.5))
}

func TestSimplify(t *testing.T) {
	pts := []core.Vec2{{0, 0}, {1, 0.1}, {2, -0.1}, {3, 0}, {3, 3}}
	out := Simplify(pts, 0.5)
	assert.Equal(t, []core.Vec2{{0, 0}, {3, 0}, {3, 3}}, out)
}

func TestSmoothModes(t *testing.T) {
	g := grid(t, ".....", ".....")
	path := []core.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}
	cfg := DefaultSmoothConfig()

	cfg.Mode = ModeNone
	assert.Len(t, Smooth(g, path, cfg), 3)
	cfg.Mode = ModeLOS
	assert.Len(t, Smooth(g, path, cfg), 2)
	cfg.Mode = ModeSimplify
	assert.Len(t, Smooth(g, path, cfg), 2)
	cfg.Mode = ModeCatmull
	assert.Len(t, Smooth(g, path, cfg), 2*cfg.CatmullSegments+1)

	assert.True(t, ModeLOS.Valid())
	assert.False(t, Mode("spline").Valid())
}

func TestValidator(t *testing.T) {
	g := grid(t,
		"......",
		"......",
	)
	v := NewValidator(g)
	path := core.Vecs(search.Interpolate([]core.Point{{X: 0, Y: 0}, {X: 5, Y: 0}}))
	assert.Equal(t, -1, v.Validate(path, 0, 0))

	require.NoError(t, g.SetWalkable(3, 0, false))
	assert.Equal(t, 3, v.Validate(path, 0, 0))
	assert.Equal(t, -1, v.Validate(path, 0, 2), "blockage outside the window")
	assert.Equal(t, 3, v.Validate(path, 1, 2))

	// Sparse segment crossing the blocked cell fails at its far end
	sparse := []core.Vec2{{0, 0}, {5, 0}}
	assert.Equal(t, 1, v.Validate(sparse, 0, 0))
}

func TestObstacleChangeManager(t *testing.T) {
	clock := core.NewMockClock(time.Unix(100, 0))
	m := NewObstacleChangeManager(clock, time.Second)

	var delivered []ObstacleChange
	m.Subscribe(func(ch ObstacleChange) { delivered = append(delivered, ch) })

	_, ok := m.Flush()
	assert.False(t, ok, "nothing pending")

	m.MarkCell(core.Point{X: 2, Y: 3})
	m.MarkCell(core.Point{X: 5, Y: 1})
	m.MarkArea(core.EmptyArea)
	pending, ok := m.Pending()
	require.True(t, ok)
	assert.Equal(t, core.Area{MinX: 2, MinY: 1, MaxX: 5, MaxY: 3}, pending)

	ch, ok := m.Flush()
	require.True(t, ok)
	assert.Equal(t, pending, ch.Area)
	assert.Equal(t, uint64(1), ch.Epoch)
	require.Len(t, delivered, 1)
	_, ok = m.Pending()
	assert.False(t, ok)

	assert.True(t, m.AffectsPath([]core.Vec2{{0, 0}, {4, 2}}))
	assert.False(t, m.AffectsPath([]core.Vec2{{0, 0}, {9, 9}}))

	clock.Advance(2 * time.Second)
	assert.Empty(t, m.Recent())
	assert.False(t, m.AffectsPath([]core.Vec2{{4, 2}}))
}
