package engine

import (
	"sync"
	"time"

	"github.com/lixenwraith/navcrowd/component"
	"github.com/lixenwraith/navcrowd/core"
)

// System is run once per frame by World.Update
type System interface {
	Name() string
	Priority() int // Lower values run first
	Update(dt time.Duration)
}

// World contains all entities and their components using typed stores
type World struct {
	mu           sync.RWMutex
	nextEntityID core.Entity
	frame        int64

	Motions     *Store[component.MotionComponent]
	Bodies      *Store[component.BodyComponent]
	Navigations *Store[component.NavigationComponent]

	// Lifecycle registry, every store implements AnyStore
	allStores []AnyStore

	systems     []System
	updateMutex sync.Mutex
}

// NewWorld creates a world with all component stores initialised
func NewWorld() *World {
	w := &World{
		nextEntityID: 1,
		Motions:      NewStore[component.MotionComponent](),
		Bodies:       NewStore[component.BodyComponent](),
		Navigations:  NewStore[component.NavigationComponent](),
	}
	w.allStores = []AnyStore{w.Motions, w.Bodies, w.Navigations}
	return w
}

// CreateEntity reserves a new entity ID
func (w *World) CreateEntity() core.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextEntityID
	w.nextEntityID++
	return id
}

// SpawnAgent creates an entity with motion and body components at pos
func (w *World) SpawnAgent(pos core.Vec2, body component.BodyComponent) core.Entity {
	e := w.CreateEntity()
	w.Motions.Set(e, component.MotionComponent{Position: pos})
	w.Bodies.Set(e, body)
	w.Navigations.Set(e, component.NavigationComponent{})
	return e
}

// DestroyEntity removes all components associated with an entity
func (w *World) DestroyEntity(e core.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, store := range w.allStores {
		store.Remove(e)
	}
}

// DestroyEntities removes several entities with one compaction per store
func (w *World) DestroyEntities(entities []core.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, store := range w.allStores {
		store.RemoveBatch(entities)
	}
}

// AddSystem registers a system, keeping systems ordered by priority
// Equal priorities keep registration order
func (w *World) AddSystem(system System) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.systems = append(w.systems, system)
	for i := len(w.systems) - 1; i > 0 && w.systems[i-1].Priority() > w.systems[i].Priority(); i-- {
		w.systems[i-1], w.systems[i] = w.systems[i], w.systems[i-1]
	}
}

// Systems returns a copy of the registered systems in run order
func (w *World) Systems() []System {
	w.mu.RLock()
	defer w.mu.RUnlock()
	result := make([]System, len(w.systems))
	copy(result, w.systems)
	return result
}

// RunSafe executes fn while holding the update lock
func (w *World) RunSafe(fn func()) {
	w.updateMutex.Lock()
	defer w.updateMutex.Unlock()
	fn()
}

// Update advances the frame counter and runs all systems sequentially
func (w *World) Update(dt time.Duration) {
	w.RunSafe(func() {
		w.mu.Lock()
		w.frame++
		systems := make([]System, len(w.systems))
		copy(systems, w.systems)
		w.mu.Unlock()

		for _, system := range systems {
			system.Update(dt)
		}
	})
}

// FrameNumber returns the number of completed or running updates
func (w *World) FrameNumber() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frame
}
