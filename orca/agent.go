package orca

import (
	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/parameter"
)

// Agent is a per-frame snapshot of one moving body
type Agent struct {
	ID           core.Entity
	Position     core.Vec2
	Velocity     core.Vec2
	PrefVelocity core.Vec2

	Radius   float64
	MaxSpeed float64

	NeighborDist float64
	MaxNeighbors int

	TimeHorizon     float64 // Agent-agent look-ahead
	TimeHorizonObst float64 // Agent-obstacle look-ahead
}

// DefaultAgent returns an agent at the origin with default parameters
func DefaultAgent(id core.Entity) Agent {
	return Agent{
		ID:              id,
		Radius:          parameter.AvoidanceRadius,
		MaxSpeed:        parameter.AvoidanceMaxSpeed,
		NeighborDist:    parameter.AvoidanceNeighborDist,
		MaxNeighbors:    parameter.AvoidanceMaxNeighbors,
		TimeHorizon:     parameter.AvoidanceTimeHorizon,
		TimeHorizonObst: parameter.AvoidanceTimeHorizonObst,
	}
}

// ObstacleRange is the distance within which static edges constrain the agent
func (a *Agent) ObstacleRange() float64 {
	return a.TimeHorizonObst*a.MaxSpeed + a.Radius
}

// Line is a directed half-plane boundary; the permitted side is to the left of Direction
type Line struct {
	Point     core.Vec2
	Direction core.Vec2
}
