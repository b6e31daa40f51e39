package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/navcrowd/component"
	"github.com/lixenwraith/navcrowd/core"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore[int]()
	s.Set(3, 30)
	s.Set(1, 10)
	s.Set(2, 20)
	s.Set(1, 11)

	v, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, 11, v)
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, []core.Entity{3, 1, 2}, s.All())

	s.Remove(3)
	assert.False(t, s.Has(3))
	assert.Equal(t, []core.Entity{1, 2}, s.All())

	assert.True(t, s.Mutate(2, func(v *int) { *v++ }))
	assert.False(t, s.Mutate(9, func(v *int) { *v++ }))
	v, _ = s.Get(2)
	assert.Equal(t, 21, v)

	s.Set(4, 40)
	s.RemoveBatch([]core.Entity{1, 4, 99})
	assert.Equal(t, []core.Entity{2}, s.All())
	assert.Equal(t, 1, s.Count())
}

func TestQueryIntersection(t *testing.T) {
	w := NewWorld()
	a := w.SpawnAgent(core.Vec2{1, 1}, component.DefaultBody())
	b := w.CreateEntity()
	w.Motions.Set(b, component.MotionComponent{})
	c := w.SpawnAgent(core.Vec2{2, 2}, component.DefaultBody())

	got := w.Query().With(w.Motions).With(w.Navigations).Execute()
	assert.Equal(t, []core.Entity{a, c}, got)

	q := w.Query().With(w.Bodies)
	first := q.Execute()
	assert.Equal(t, first, q.Execute())
	assert.Panics(t, func() { q.With(w.Motions) })

	assert.Empty(t, w.Query().Execute())

	w.DestroyEntity(a)
	assert.Equal(t, []core.Entity{c}, w.Query().With(w.Motions).With(w.Bodies).Execute())

	d := w.SpawnAgent(core.Vec2{3, 3}, component.DefaultBody())
	w.DestroyEntities([]core.Entity{c, d, 99})
	assert.Equal(t, 1, w.Motions.Count())
	assert.Zero(t, w.Bodies.Count())
	assert.Zero(t, w.Navigations.Count())
	assert.Equal(t, []core.Entity{b}, w.Query().With(w.Motions).Execute())
}

type recordingSystem struct {
	name     string
	priority int
	log      *[]string
}

func (s *recordingSystem) Name() string  { return s.name }
func (s *recordingSystem) Priority() int { return s.priority }
func (s *recordingSystem) Update(time.Duration) {
	*s.log = append(*s.log, s.name)
}

func TestWorldRunsSystemsByPriority(t *testing.T) {
	w := NewWorld()
	var log []string
	w.AddSystem(&recordingSystem{name: "movement", priority: 40, log: &log})
	w.AddSystem(&recordingSystem{name: "pathfinding", priority: 10, log: &log})
	w.AddSystem(&recordingSystem{name: "avoidance", priority: 30, log: &log})
	w.AddSystem(&recordingSystem{name: "steering", priority: 30, log: &log})

	w.Update(time.Second / 30)
	assert.Equal(t, []string{"pathfinding", "avoidance", "steering", "movement"}, log)
	assert.Equal(t, int64(1), w.FrameNumber())
	assert.Len(t, w.Systems(), 4)
}
