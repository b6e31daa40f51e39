package system

import (
	"time"

	"github.com/lixenwraith/navcrowd/component"
	"github.com/lixenwraith/navcrowd/engine"
	"github.com/lixenwraith/navcrowd/parameter"
)

// MovementSystem integrates agent positions from their velocities
type MovementSystem struct {
	world *engine.World
}

// NewMovementSystem creates the integrator
func NewMovementSystem(world *engine.World) *MovementSystem {
	return &MovementSystem{world: world}
}

func (s *MovementSystem) Name() string  { return "movement" }
func (s *MovementSystem) Priority() int { return parameter.PriorityMovement }

func (s *MovementSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	for _, e := range s.world.Motions.All() {
		s.world.Motions.Mutate(e, func(m *component.MotionComponent) {
			m.Position = m.Position.Add(m.Velocity.Mul(sec))
		})
	}
}
