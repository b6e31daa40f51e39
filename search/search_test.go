package search

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
)

var mazeRows = []string{
	"....................",
	".######.......#####.",
	".#....#.......#.....",
	".#.##.#..###..#.###.",
	".#.#..#..#.#..#...#.",
	".#.#.##..#.#..###.#.",
	".#.#.....#.#......#.",
	".#.#######.########.",
	".#..................",
	".##########.######..",
	"..........#.#.......",
	"#########.#.#.#####.",
	"..........#...#.....",
	".##########.###.###.",
	"....................",
}

func mustGrid(t *testing.T, rows []string, opts navmap.GridOptions) *navmap.GridMap {
	t.Helper()
	g, err := navmap.FromStrings(rows, opts)
	require.NoError(t, err)
	return g
}

// assertValidPath checks endpoints, adjacency and legality of every step
func assertValidPath(t *testing.T, g *navmap.GridMap, res Result, start, end core.Point) {
	t.Helper()
	require.True(t, res.Found)
	require.NotEmpty(t, res.Path)
	assert.Equal(t, start, res.Path[0])
	assert.Equal(t, end, res.Path[len(res.Path)-1])
	for i := 1; i < len(res.Path); i++ {
		a, b := res.Path[i-1], res.Path[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		require.True(t, core.Abs(dx) <= 1 && core.Abs(dy) <= 1, "non-adjacent step %v -> %v", a, b)
		require.True(t, g.CanStep(a.X, a.Y, dx, dy), "illegal step %v -> %v", a, b)
	}
	assert.InDelta(t, g.PathCost(res.Path), res.Cost, 1e-9)
}

func TestAStarTrivialPath(t *testing.T) {
	g := mustGrid(t, mazeRows, navmap.DefaultGridOptions())
	res := NewAStar(g, DefaultOptions()).FindPath(core.Point{X: 0, Y: 0}, core.Point{X: 0, Y: 0})
	require.True(t, res.Found)
	assert.Equal(t, []core.Point{{X: 0, Y: 0}}, res.Path)
	assert.Zero(t, res.Cost)
}

func TestAStarReusedAcrossSearches(t *testing.T) {
	rows := []string{
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
	}
	g := mustGrid(t, rows, navmap.DefaultGridOptions())
	astar := NewAStar(g, DefaultOptions())

	first := astar.FindPath(core.Point{X: 0, Y: 0}, core.Point{X: 7, Y: 7})
	assertValidPath(t, g, first, core.Point{X: 0, Y: 0}, core.Point{X: 7, Y: 7})

	var second Result
	require.NotPanics(t, func() {
		second = astar.FindPath(core.Point{X: 0, Y: 7}, core.Point{X: 7, Y: 0})
	})
	assertValidPath(t, g, second, core.Point{X: 0, Y: 7}, core.Point{X: 7, Y: 0})
	assert.InDelta(t, first.Cost, second.Cost, 1e-9)
}

func TestUnwalkableEndpoints(t *testing.T) {
	g := mustGrid(t, mazeRows, navmap.DefaultGridOptions())
	gp, err := NewGridPathfinder(g, DefaultOptions())
	require.NoError(t, err)
	jps, err := NewJPS(g, DefaultOptions())
	require.NoError(t, err)
	astar := NewAStar(g, DefaultOptions())

	wall := core.Point{X: 1, Y: 1}
	open := core.Point{X: 0, Y: 0}
	outside := core.Point{X: -3, Y: 50}

	for name, find := range map[string]func(a, b core.Point) Result{
		"astar":         astar.FindPath,
		"grid":          gp.FindPath,
		"bidirectional": gp.FindPathBidirectional,
		"jps":           jps.FindPath,
	} {
		t.Run(name, func(t *testing.T) {
			for _, pair := range [][2]core.Point{{wall, open}, {open, wall}, {outside, open}, {open, outside}} {
				res := find(pair[0], pair[1])
				assert.False(t, res.Found)
				assert.Empty(t, res.Path)
			}
		})
	}
}

func TestCrossAlgorithmConsistency(t *testing.T) {
	g := mustGrid(t, mazeRows, navmap.DefaultGridOptions())
	gp, err := NewGridPathfinder(g, DefaultOptions())
	require.NoError(t, err)
	jps, err := NewJPS(g, DefaultOptions())
	require.NoError(t, err)
	astar := NewAStar(g, DefaultOptions())

	rng := rand.New(rand.NewSource(42))
	var open []core.Point
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if g.Walkable(x, y) {
				open = append(open, core.Point{X: x, Y: y})
			}
		}
	}

	for i := 0; i < 200; i++ {
		start := open[rng.Intn(len(open))]
		end := open[rng.Intn(len(open))]

		ref := astar.FindPath(start, end)
		uni := gp.FindPath(start, end)
		bi := gp.FindPathBidirectional(start, end)
		jp := jps.FindPath(start, end)

		require.Equal(t, ref.Found, uni.Found, "%v -> %v", start, end)
		require.Equal(t, ref.Found, bi.Found, "%v -> %v", start, end)
		require.Equal(t, ref.Found, jp.Found, "%v -> %v", start, end)
		if !ref.Found {
			continue
		}
		assertValidPath(t, g, ref, start, end)
		assertValidPath(t, g, uni, start, end)
		assertValidPath(t, g, bi, start, end)
		assertValidPath(t, g, jp, start, end)
		assert.InDelta(t, ref.Cost, uni.Cost, 1e-9, "%v -> %v", start, end)
		assert.InDelta(t, ref.Cost, bi.Cost, 1e-9, "%v -> %v", start, end)
		assert.InDelta(t, ref.Cost, jp.Cost, 1e-9, "%v -> %v", start, end)
	}
}

func TestBidirectionalWeightedGrid(t *testing.T) {
	rows := []string{
		"..........",
		".99999999.",
		".9......9.",
		".9.####.9.",
		".9.#..#.9.",
		"...#..#...",
		".9.####.9.",
		".9......9.",
		".99999999.",
		"..........",
	}
	g := mustGrid(t, rows, navmap.DefaultGridOptions())
	gp, err := NewGridPathfinder(g, DefaultOptions())
	require.NoError(t, err)

	for _, pair := range [][2]core.Point{
		{{X: 0, Y: 0}, {X: 9, Y: 9}},
		{{X: 2, Y: 2}, {X: 9, Y: 0}},
		{{X: 0, Y: 5}, {X: 9, Y: 5}},
		{{X: 4, Y: 9}, {X: 2, Y: 7}},
	} {
		uni := gp.FindPath(pair[0], pair[1])
		bi := gp.FindPathBidirectional(pair[0], pair[1])
		require.True(t, uni.Found)
		require.True(t, bi.Found)
		assert.InDelta(t, uni.Cost, bi.Cost, 1e-9, "%v -> %v", pair[0], pair[1])
		assertValidPath(t, g, bi, pair[0], pair[1])
	}
}

func TestGridPathfinderUnreachable(t *testing.T) {
	g := mustGrid(t, []string{
		"..#..",
		"..#..",
		"..#..",
	}, navmap.DefaultGridOptions())
	gp, err := NewGridPathfinder(g, DefaultOptions())
	require.NoError(t, err)

	assert.False(t, gp.FindPath(core.Point{X: 0, Y: 0}, core.Point{X: 4, Y: 2}).Found)
	assert.False(t, gp.FindPathBidirectional(core.Point{X: 0, Y: 0}, core.Point{X: 4, Y: 2}).Found)
}

func TestCornerCuttingForbidden(t *testing.T) {
	g := mustGrid(t, []string{
		".#",
		"..",
	}, navmap.DefaultGridOptions())
	res := NewAStar(g, DefaultOptions()).FindPath(core.Point{X: 0, Y: 0}, core.Point{X: 1, Y: 1})
	require.True(t, res.Found)
	assert.Len(t, res.Path, 3)
	assert.InDelta(t, 2.0, res.Cost, 1e-9)
}

func TestMaxNodesFailsSearch(t *testing.T) {
	g, err := navmap.NewGridMap(50, 50, navmap.DefaultGridOptions())
	require.NoError(t, err)
	gp, err := NewGridPathfinder(g, Options{MaxNodes: 10})
	require.NoError(t, err)

	g.FillArea(core.Area{MinX: 1, MinY: 0, MaxX: 1, MaxY: 48}, false)
	res := gp.FindPath(core.Point{X: 0, Y: 0}, core.Point{X: 49, Y: 0})
	assert.False(t, res.Found)
	assert.Equal(t, 11, res.NodesSearched)
}

func TestJPSRequiresDiagonal(t *testing.T) {
	g, err := navmap.NewGridMap(4, 4, navmap.GridOptions{})
	require.NoError(t, err)
	_, err = NewJPS(g, DefaultOptions())
	assert.ErrorIs(t, err, ErrJPSRequiresDiagonal)
}

func TestJPSJumpPointsAreSparse(t *testing.T) {
	g, err := navmap.NewGridMap(30, 30, navmap.DefaultGridOptions())
	require.NoError(t, err)
	jps, err := NewJPS(g, DefaultOptions())
	require.NoError(t, err)

	res := jps.FindPath(core.Point{X: 0, Y: 0}, core.Point{X: 29, Y: 0})
	require.True(t, res.Found)
	assert.Equal(t, []core.Point{{X: 0, Y: 0}, {X: 29, Y: 0}}, res.JumpPoints)
	assert.Len(t, res.Path, 30)
	assert.InDelta(t, 29.0, res.Cost, 1e-9)
}

func TestFourConnectedGrid(t *testing.T) {
	g := mustGrid(t, mazeRows, navmap.GridOptions{})
	gp, err := NewGridPathfinder(g, DefaultOptions())
	require.NoError(t, err)
	start, end := core.Point{X: 0, Y: 0}, core.Point{X: 19, Y: 14}

	ref := NewAStar(g, DefaultOptions()).FindPath(start, end)
	uni := gp.FindPath(start, end)
	bi := gp.FindPathBidirectional(start, end)
	require.True(t, ref.Found)
	assert.InDelta(t, ref.Cost, uni.Cost, 1e-9)
	assert.InDelta(t, ref.Cost, bi.Cost, 1e-9)
	for i := 1; i < len(uni.Path); i++ {
		d := core.Abs(uni.Path[i].X-uni.Path[i-1].X) + core.Abs(uni.Path[i].Y-uni.Path[i-1].Y)
		assert.Equal(t, 1, d)
	}
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name   string
		sparse []core.Point
		want   []core.Point
	}{
		{"empty", nil, nil},
		{"single", []core.Point{{X: 1, Y: 1}}, []core.Point{{X: 1, Y: 1}}},
		{
			"straight then diagonal",
			[]core.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 4, Y: 2}},
			[]core.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 1}, {X: 4, Y: 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interpolate(tt.sparse)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
