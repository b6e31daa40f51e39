package navmap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/navcrowd/core"
)

func neighborPoints(g *GridMap, x, y int) []core.Point {
	var pts []core.Point
	for _, id := range g.Neighbors(g.IDOf(x, y), nil) {
		pts = append(pts, g.PointOf(id))
	}
	return pts
}

func TestNewGridMapRejectsEmpty(t *testing.T) {
	_, err := NewGridMap(0, 5, DefaultGridOptions())
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	_, err = FromStrings([]string{"...", ".."}, DefaultGridOptions())
	assert.ErrorIs(t, err, ErrRaggedRows)
}

func TestFromStringsCostsAndWalls(t *testing.T) {
	g, err := FromStrings([]string{
		".#3",
		"...",
	}, DefaultGridOptions())
	require.NoError(t, err)

	assert.False(t, g.Walkable(1, 0))
	assert.False(t, g.Walkable(3, 0))
	assert.Equal(t, 3.0, g.CellCost(2, 0))
	assert.False(t, g.UniformCost())
	assert.Equal(t, ".#.\n...\n", g.String())
}

func TestNeighborsCornerRule(t *testing.T) {
	rows := []string{
		"...",
		".#.",
		"...",
	}
	g, err := FromStrings(rows, DefaultGridOptions())
	require.NoError(t, err)
	// Both diagonals out of (0,0) clip the wall at (1,1) or leave the grid
	assert.ElementsMatch(t, []core.Point{{X: 1, Y: 0}, {X: 0, Y: 1}}, neighborPoints(g, 0, 0))

	opts := DefaultGridOptions()
	opts.AvoidCorners = false
	loose, err := FromStrings(rows, opts)
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.Point{{X: 1, Y: 0}, {X: 0, Y: 1}}, neighborPoints(loose, 0, 0))
	assert.Contains(t, neighborPoints(loose, 1, 0), core.Point{X: 0, Y: 1})
	assert.NotContains(t, neighborPoints(g, 1, 0), core.Point{X: 0, Y: 1})

	four, err := FromStrings(rows, GridOptions{})
	require.NoError(t, err)
	assert.Len(t, neighborPoints(four, 1, 0), 2)
}

func TestMovementCost(t *testing.T) {
	g, err := FromStrings([]string{"..", ".2"}, DefaultGridOptions())
	require.NoError(t, err)
	assert.Equal(t, 1.0, g.MovementCost(g.IDOf(0, 0), g.IDOf(1, 0)))
	assert.InDelta(t, 2*g.Options().DiagonalCost, g.MovementCost(g.IDOf(0, 0), g.IDOf(1, 1)), 1e-12)
	assert.InDelta(t, 3.0, g.PathCost([]core.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}), 1e-12)
}

func TestVersionTracksChanges(t *testing.T) {
	g, err := NewGridMap(4, 4, DefaultGridOptions())
	require.NoError(t, err)

	require.NoError(t, g.SetWalkable(1, 1, true))
	assert.Zero(t, g.Version(), "no-op toggle")

	require.NoError(t, g.SetWalkable(1, 1, false))
	assert.Equal(t, uint64(1), g.Version())

	assert.ErrorIs(t, g.SetWalkable(9, 9, false), ErrOutOfBounds)
	assert.ErrorIs(t, g.SetCost(0, 0, 0.5), ErrInvalidCost)
}

func TestNodePanicsOutOfRange(t *testing.T) {
	g, err := NewGridMap(2, 2, DefaultGridOptions())
	require.NoError(t, err)
	assert.Panics(t, func() { g.Node(4) })

	_, ok := g.NodeAt(-1, 0)
	assert.False(t, ok)
}

func TestSubMapClipsNeighbors(t *testing.T) {
	g, err := NewGridMap(5, 5, DefaultGridOptions())
	require.NoError(t, err)
	sub := NewSubMap(g, core.Area{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2})

	assert.False(t, sub.Walkable(0, 0))
	assert.True(t, sub.Walkable(2, 2))

	var got []core.Point
	for _, id := range sub.Neighbors(g.IDOf(1, 1), nil) {
		got = append(got, g.PointOf(id))
	}
	assert.ElementsMatch(t, []core.Point{{X: 2, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}}, got)

	n, ok := sub.NodeAt(2, 1)
	require.True(t, ok)
	assert.Equal(t, g.IDOf(2, 1), n.ID)
	assert.Equal(t, g.Node(n.ID), sub.Node(n.ID))
	n, ok = sub.NodeAt(4, 4)
	assert.False(t, ok)
	assert.Equal(t, InvalidNode, n.ID)

	a, b := g.IDOf(1, 1), g.IDOf(2, 2)
	assert.Equal(t, g.Heuristic(a, b), sub.Heuristic(a, b))
	assert.Equal(t, g.MovementCost(a, b), sub.MovementCost(a, b))
	assert.Equal(t, g.NodeCount(), sub.NodeCount())
}

// reachable flood-fills 4-connected walkable cells from start
func reachable(g *GridMap, start core.Point) int {
	seen := make([]bool, g.NodeCount())
	queue := []core.Point{start}
	seen[g.Index(start.X, start.Y)] = true
	n := 0
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		n++
		for _, d := range DirVectors[:4] {
			q := core.Point{X: p.X + d[0], Y: p.Y + d[1]}
			if g.Walkable(q.X, q.Y) && !seen[g.Index(q.X, q.Y)] {
				seen[g.Index(q.X, q.Y)] = true
				queue = append(queue, q)
			}
		}
	}
	return n
}

func walkableCount(g *GridMap) int {
	n := 0
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if g.Walkable(x, y) {
				n++
			}
		}
	}
	return n
}

func TestPerfectMazeIsSpanningTree(t *testing.T) {
	g, err := NewMaze(21, 11, DefaultGridOptions(), MazeConfig{Corridor: 1}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	rooms := 10 * 5
	assert.Equal(t, 2*rooms-1, walkableCount(g))
	assert.Equal(t, walkableCount(g), reachable(g, MazeRoom(0, 0, MazeConfig{})))
	assert.Zero(t, g.Version())

	for x := 0; x < g.Width(); x++ {
		assert.False(t, g.Walkable(x, 0))
		assert.False(t, g.Walkable(x, g.Height()-1))
	}
}

func TestBraidedMazeAddsLoopsWithoutPlazas(t *testing.T) {
	cfg := MazeConfig{Braiding: 1, Corridor: 1}
	g, err := NewMaze(31, 21, DefaultGridOptions(), cfg, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	rooms := 15 * 10
	assert.Greater(t, walkableCount(g), 2*rooms-1)
	assert.Equal(t, walkableCount(g), reachable(g, MazeRoom(0, 0, cfg)))

	for y := 0; y+1 < g.Height(); y++ {
		for x := 0; x+1 < g.Width(); x++ {
			block := g.Walkable(x, y) && g.Walkable(x+1, y) && g.Walkable(x, y+1) && g.Walkable(x+1, y+1)
			assert.False(t, block, "open 2x2 block at (%d,%d)", x, y)
		}
	}
}

func TestMazeCorridorWidth(t *testing.T) {
	cfg := MazeConfig{Corridor: 2}
	g, err := NewMaze(22, 14, DefaultGridOptions(), cfg, rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	room := MazeRoom(1, 1, cfg)
	assert.Equal(t, core.Point{X: 6, Y: 6}, room)
	for dy := 0; dy < 2; dy++ {
		for dx := 0; dx < 2; dx++ {
			assert.True(t, g.Walkable(room.X+dx, room.Y+dy))
		}
	}
	assert.Equal(t, walkableCount(g), reachable(g, MazeRoom(0, 0, cfg)))
	// Logical border cell (10, 6) covers x 20..21 and y 12..13
	assert.False(t, g.Walkable(21, 13))
}

func TestMazeTooSmall(t *testing.T) {
	_, err := NewMaze(5, 5, DefaultGridOptions(), MazeConfig{Corridor: 2}, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrMazeTooSmall)
}

func TestMazeDeterministic(t *testing.T) {
	a, err := NewMaze(25, 15, DefaultGridOptions(), MazeConfig{Braiding: 0.5}, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	b, err := NewMaze(25, 15, DefaultGridOptions(), MazeConfig{Braiding: 0.5}, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
}
