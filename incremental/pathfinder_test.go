package incremental

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/pathcache"
	"github.com/lixenwraith/navcrowd/search"
)

var roomRows = []string{
	"...............",
	".#####.#######.",
	".#...........#.",
	".#.#########.#.",
	".#.#.......#.#.",
	".#.#.#####.#.#.",
	".#...#...#...#.",
	".#####.#.#####.",
	".......#.......",
}

func newGrid(t *testing.T) *navmap.GridMap {
	t.Helper()
	g, err := navmap.FromStrings(roomRows, navmap.DefaultGridOptions())
	require.NoError(t, err)
	return g
}

func runToEnd(t *testing.T, p *Pathfinder, id SessionID, perStep int) Progress {
	t.Helper()
	var prog Progress
	var err error
	for i := 0; i < 100000; i++ {
		prog, err = p.Step(id, perStep)
		require.NoError(t, err)
		if prog.State.Terminal() {
			return prog
		}
	}
	t.Fatal("session did not terminate")
	return prog
}

func TestStepOneMatchesFindPath(t *testing.T) {
	g := newGrid(t)
	p := New(g, nil, Options{})
	ref := search.NewAStar(g, search.DefaultOptions())

	rng := rand.New(rand.NewSource(42))
	var cells []core.Point
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if g.Walkable(x, y) {
				cells = append(cells, core.Point{X: x, Y: y})
			}
		}
	}
	for i := 0; i < 50; i++ {
		start, end := cells[rng.Intn(len(cells))], cells[rng.Intn(len(cells))]

		whole := p.FindPath(start, end)
		id := p.RequestPath(PathRequest{Start: start, End: end})
		runToEnd(t, p, id, 1)
		stepped, err := p.Result(id)
		require.NoError(t, err)
		require.NoError(t, p.Cleanup(id))

		want := ref.FindPath(start, end)
		require.Equal(t, want.Found, whole.Found)
		require.Equal(t, whole.Found, stepped.Found)
		assert.Equal(t, whole.Path, stepped.Path)
		assert.InDelta(t, whole.Cost, stepped.Cost, 1e-9)
		assert.InDelta(t, want.Cost, stepped.Cost, 1e-9)
		assert.Equal(t, whole.NodesSearched, stepped.NodesSearched)
	}
	assert.Zero(t, p.ActiveSessions())
}

func TestStateMachine(t *testing.T) {
	g := newGrid(t)
	p := New(g, nil, Options{})
	id := p.RequestPath(PathRequest{Start: core.Point{X: 0, Y: 0}, End: core.Point{X: 8, Y: 8}})

	prog, err := p.Progress(id)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, prog.State)

	_, err = p.Result(id)
	assert.ErrorIs(t, err, ErrInvalidState)

	prog, err = p.Step(id, 3)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, prog.State)
	assert.Equal(t, 3, prog.NodesSearched)
	assert.Equal(t, 1, prog.FramesUsed)

	require.NoError(t, p.Pause(id))
	_, err = p.Step(id, 3)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, p.Pause(id), ErrInvalidState)

	require.NoError(t, p.Resume(id))
	assert.ErrorIs(t, p.Resume(id), ErrInvalidState)

	prog = runToEnd(t, p, id, 5)
	assert.Equal(t, StateCompleted, prog.State)
	assert.InDelta(t, 1.0, prog.EstimatedProgress, 1e-9)
	assert.ErrorIs(t, p.Cancel(id), ErrInvalidState)

	// Terminal sessions ignore further steps
	again, err := p.Step(id, 10)
	require.NoError(t, err)
	assert.Equal(t, prog.NodesSearched, again.NodesSearched)

	require.NoError(t, p.Cleanup(id))
	assert.ErrorIs(t, p.Cleanup(id), ErrUnknownSession)
	_, err = p.Progress(id)
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestCancel(t *testing.T) {
	g := newGrid(t)
	p := New(g, nil, Options{})
	id := p.RequestPath(PathRequest{Start: core.Point{X: 0, Y: 0}, End: core.Point{X: 8, Y: 8}})
	_, err := p.Step(id, 2)
	require.NoError(t, err)
	require.NoError(t, p.Cancel(id))

	prog, err := p.Progress(id)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, prog.State)
	assert.Zero(t, prog.OpenSize)

	res, err := p.Result(id)
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestStaleIDRejectedAfterSlotReuse(t *testing.T) {
	g := newGrid(t)
	p := New(g, nil, Options{})
	req := PathRequest{Start: core.Point{X: 0, Y: 0}, End: core.Point{X: 14, Y: 0}}

	old := p.RequestPath(req)
	require.NoError(t, p.Cleanup(old))
	fresh := p.RequestPath(req)
	assert.NotEqual(t, old, fresh)
	assert.Equal(t, old.index(), fresh.index(), "slot is reused")

	_, err := p.Step(old, 1)
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, err = p.Step(fresh, 1)
	assert.NoError(t, err)

	_, err = p.Progress(InvalidSession)
	assert.ErrorIs(t, err, ErrUnknownSession)
	_, err = p.Progress(makeID(77, 1))
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestImmediateOutcomes(t *testing.T) {
	g := newGrid(t)
	p := New(g, nil, Options{})

	id := p.RequestPath(PathRequest{Start: core.Point{X: 1, Y: 1}, End: core.Point{X: 0, Y: 0}})
	prog, err := p.Progress(id)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, prog.State, "unwalkable start")

	id = p.RequestPath(PathRequest{Start: core.Point{X: 3, Y: 0}, End: core.Point{X: 3, Y: 0}})
	res, err := p.Result(id)
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, []core.Point{{X: 3, Y: 0}}, res.Path)
}

func TestCacheCommitAndHit(t *testing.T) {
	g := newGrid(t)
	cache := pathcache.New(pathcache.Config{MaxEntries: 16})
	p := New(g, cache, Options{UseCache: true})
	start, end := core.Point{X: 0, Y: 0}, core.Point{X: 14, Y: 8}

	first := p.FindPath(start, end)
	require.True(t, first.Found)
	assert.Equal(t, 1, cache.Len())

	id := p.RequestPath(PathRequest{Start: start, End: end})
	prog, err := p.Progress(id)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, prog.State)
	assert.True(t, prog.FromCache)
	res, err := p.Result(id)
	require.NoError(t, err)
	assert.Equal(t, first.Path, res.Path)

	// A map change through the path invalidates the entry
	p.NotifyObstacleChange(core.AreaOf(first.Path[1], first.Path[1]))
	id = p.RequestPath(PathRequest{Start: start, End: end})
	prog, err = p.Progress(id)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, prog.State)
}

func TestNotifyObstacleChangeFlagsSessions(t *testing.T) {
	g := newGrid(t)
	p := New(g, nil, Options{})
	near := p.RequestPath(PathRequest{Start: core.Point{X: 0, Y: 0}, End: core.Point{X: 14, Y: 8}})
	far := p.RequestPath(PathRequest{Start: core.Point{X: 14, Y: 0}, End: core.Point{X: 12, Y: 0}})
	_, err := p.Step(near, 4)
	require.NoError(t, err)

	before := p.MapVersion()
	flagged := p.NotifyObstacleChange(core.Rect(0, 1, 1, 1))
	assert.Equal(t, before+1, p.MapVersion())
	assert.Equal(t, 1, flagged)

	prog, err := p.Progress(near)
	require.NoError(t, err)
	assert.True(t, prog.AffectedByChange)
	prog, err = p.Progress(far)
	require.NoError(t, err)
	assert.False(t, prog.AffectedByChange)
}

func TestMaxNodesAndPartialResult(t *testing.T) {
	g := newGrid(t)
	start, end := core.Point{X: 0, Y: 0}, core.Point{X: 8, Y: 6}

	p := New(g, nil, Options{MaxNodes: 5})
	id := p.RequestPath(PathRequest{Start: start, End: end})
	prog := runToEnd(t, p, id, 0)
	assert.Equal(t, StateFailed, prog.State)
	res, err := p.Result(id)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Empty(t, res.Path)

	id = p.RequestPath(PathRequest{Start: start, End: end, AllowPartial: true})
	runToEnd(t, p, id, 0)
	res, err = p.Result(id)
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.True(t, res.IsPartial)
	require.NotEmpty(t, res.Path)
	assert.Equal(t, start, res.Path[0])
}

func TestUnreachableFails(t *testing.T) {
	g, err := navmap.FromStrings([]string{
		"..#..",
		"..#..",
	}, navmap.DefaultGridOptions())
	require.NoError(t, err)
	p := New(g, nil, Options{})
	id := p.RequestPath(PathRequest{Start: core.Point{X: 0, Y: 0}, End: core.Point{X: 4, Y: 1}})
	prog := runToEnd(t, p, id, 2)
	assert.Equal(t, StateFailed, prog.State)
	assert.Equal(t, 4, prog.NodesSearched)
}

func TestEstimatedProgressMonotonic(t *testing.T) {
	g, err := navmap.NewGridMap(30, 1, navmap.DefaultGridOptions())
	require.NoError(t, err)
	p := New(g, nil, Options{})
	id := p.RequestPath(PathRequest{Start: core.Point{X: 0, Y: 0}, End: core.Point{X: 29, Y: 0}})

	last := 0.0
	for {
		prog, err := p.Step(id, 3)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, prog.EstimatedProgress, last)
		last = prog.EstimatedProgress
		if prog.State.Terminal() {
			break
		}
	}
	assert.InDelta(t, 1.0, last, 1e-9)
}

func TestCleanupReleasesSearchState(t *testing.T) {
	g := newGrid(t)
	p := New(g, nil, Options{})
	id := p.RequestPath(PathRequest{Start: core.Point{X: 0, Y: 0}, End: core.Point{X: 8, Y: 8}})
	_, err := p.Step(id, 5)
	require.NoError(t, err)

	s := p.slots[id.index()].s
	require.Positive(t, s.arena.Len())
	require.Positive(t, s.open.Len())

	require.NoError(t, p.Cleanup(id))
	assert.Zero(t, s.arena.Len())
	assert.Zero(t, s.open.Len())
	assert.Zero(t, p.ActiveSessions())
}

func TestEstimatedProgressTracksOpenList(t *testing.T) {
	g := newGrid(t)
	p := New(g, nil, Options{})
	id := p.RequestPath(PathRequest{Start: core.Point{X: 0, Y: 0}, End: core.Point{X: 8, Y: 8}})

	for i := 0; i < 6; i++ {
		prog, err := p.Step(id, 4)
		require.NoError(t, err)
		if prog.State.Terminal() {
			break
		}
		s := p.slots[id.index()].s
		require.Positive(t, s.open.Len())
		best := s.arena.Nodes[s.open.Items()[0]].H
		for _, slot := range s.open.Items() {
			best = min(best, s.arena.Nodes[slot].H)
		}
		want := min(max(1-best/s.initialH, 0), 1)
		assert.InDelta(t, want, prog.EstimatedProgress, 1e-9, "step %d", i)
	}
}
