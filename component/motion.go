package component

import (
	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/parameter"
)

// MotionComponent is the continuous kinematic state of an agent
type MotionComponent struct {
	Position     core.Vec2
	Velocity     core.Vec2
	PrefVelocity core.Vec2 // Desired velocity from steering
	NewVelocity  core.Vec2 // Collision-free velocity from avoidance
}

// BodyComponent holds the local-avoidance parameters of an agent
type BodyComponent struct {
	Radius          float64
	MaxSpeed        float64
	NeighborDist    float64
	MaxNeighbors    int
	TimeHorizon     float64
	TimeHorizonObst float64
}

// DefaultBody returns the parameter defaults
func DefaultBody() BodyComponent {
	return BodyComponent{
		Radius:          parameter.AvoidanceRadius,
		MaxSpeed:        parameter.AvoidanceMaxSpeed,
		NeighborDist:    parameter.AvoidanceNeighborDist,
		MaxNeighbors:    parameter.AvoidanceMaxNeighbors,
		TimeHorizon:     parameter.AvoidanceTimeHorizon,
		TimeHorizonObst: parameter.AvoidanceTimeHorizonObst,
	}
}
