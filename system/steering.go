package system

import (
	"time"

	"github.com/lixenwraith/navcrowd/component"
	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/engine"
	"github.com/lixenwraith/navcrowd/parameter"
)

// SteeringSystem turns the followed path into a preferred velocity
type SteeringSystem struct {
	world *engine.World
	cfg   SteeringConfig
}

// NewSteeringSystem creates the waypoint follower
func NewSteeringSystem(world *engine.World, cfg SteeringConfig) *SteeringSystem {
	if cfg.ArriveDistance <= 0 {
		cfg.ArriveDistance = parameter.SchedulerArriveDistance
	}
	return &SteeringSystem{world: world, cfg: cfg}
}

func (s *SteeringSystem) Name() string  { return "steering" }
func (s *SteeringSystem) Priority() int { return parameter.PrioritySteering }

func (s *SteeringSystem) Update(time.Duration) {
	entities := s.world.Query().
		With(s.world.Navigations).
		With(s.world.Motions).
		With(s.world.Bodies).
		Execute()

	for _, e := range entities {
		nav, _ := s.world.Navigations.Get(e)
		motion, _ := s.world.Motions.Get(e)
		body, _ := s.world.Bodies.Get(e)

		motion.PrefVelocity = s.steer(&nav, motion.Position, body.MaxSpeed)
		s.world.Navigations.Set(e, nav)
		s.world.Motions.Set(e, motion)
	}
}

// steer advances past reached waypoints and heads for the next one, braking
// into the last
func (s *SteeringSystem) steer(nav *component.NavigationComponent, pos core.Vec2, maxSpeed float64) core.Vec2 {
	for {
		wp, ok := nav.NextWaypoint()
		if !ok {
			return core.Vec2{}
		}
		d := wp.Sub(pos)
		dist := d.Len()
		last := nav.Waypoint == len(nav.Path)-1
		if dist <= s.cfg.ArriveDistance {
			if last {
				nav.State = component.NavArrived
				return core.Vec2{}
			}
			nav.Waypoint++
			continue
		}
		speed := maxSpeed
		if last && s.cfg.SlowDistance > 0 && dist < s.cfg.SlowDistance {
			speed *= dist / s.cfg.SlowDistance
		}
		return d.Mul(speed / dist)
	}
}
