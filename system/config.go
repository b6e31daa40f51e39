package system

import (
	"fmt"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/orca"
	"github.com/lixenwraith/navcrowd/parameter"
	"github.com/lixenwraith/navcrowd/postprocess"
)

// PathfindingConfig controls the per-frame search budget
type PathfindingConfig struct {
	FrameBudget        int                      `yaml:"frame_budget"`         // Expansions per frame over all agents
	AgentIterations    int                      `yaml:"agent_iterations"`     // Expansions per agent per frame
	MaxAgentsPerFrame  int                      `yaml:"max_agents_per_frame"` // Agents stepped per frame
	RevalidateInterval int                      `yaml:"revalidate_interval"`  // Frames between path checks; zero disables
	Lookahead          int                      `yaml:"lookahead"`            // Waypoints checked ahead of the agent
	AllowPartial       bool                     `yaml:"allow_partial"`        // Follow the closest reachable prefix on failure
	Smooth             postprocess.SmoothConfig `yaml:"smooth"`

	Clock core.Clock `yaml:"-"`
}

// DefaultPathfindingConfig returns the parameter defaults
func DefaultPathfindingConfig() PathfindingConfig {
	return PathfindingConfig{
		FrameBudget:        parameter.SchedulerFrameBudget,
		AgentIterations:    parameter.SchedulerAgentIterations,
		MaxAgentsPerFrame:  parameter.SchedulerMaxAgentsPerFrame,
		RevalidateInterval: parameter.SchedulerRevalidateInterval,
		Lookahead:          parameter.SchedulerLookahead,
		Smooth:             postprocess.DefaultSmoothConfig(),
	}
}

// Validate checks the smoother and fills non-positive budgets with defaults
func (c *PathfindingConfig) Validate() error {
	if !c.Smooth.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSmoothMode, c.Smooth.Mode)
	}
	if c.FrameBudget <= 0 {
		c.FrameBudget = parameter.SchedulerFrameBudget
	}
	if c.AgentIterations <= 0 {
		c.AgentIterations = parameter.SchedulerAgentIterations
	}
	if c.MaxAgentsPerFrame <= 0 {
		c.MaxAgentsPerFrame = parameter.SchedulerMaxAgentsPerFrame
	}
	if c.Lookahead <= 0 {
		c.Lookahead = parameter.SchedulerLookahead
	}
	return nil
}

// SteeringConfig controls waypoint following
type SteeringConfig struct {
	ArriveDistance float64 `yaml:"arrive_distance"`
	SlowDistance   float64 `yaml:"slow_distance"`
}

// DefaultSteeringConfig returns the parameter defaults
func DefaultSteeringConfig() SteeringConfig {
	return SteeringConfig{
		ArriveDistance: parameter.SchedulerArriveDistance,
		SlowDistance:   parameter.SteeringSlowDistance,
	}
}

// AvoidanceConfig controls the local-avoidance pass
type AvoidanceConfig struct {
	Solver    orca.Config `yaml:"solver"`
	AutoApply bool        `yaml:"auto_apply"` // Copy the solved velocity into Velocity
	LeafSize  int         `yaml:"kd_leaf_size"`
}

// DefaultAvoidanceConfig returns the parameter defaults
func DefaultAvoidanceConfig() AvoidanceConfig {
	return AvoidanceConfig{
		Solver:    orca.DefaultConfig(),
		AutoApply: true,
		LeafSize:  parameter.KDTreeLeafSize,
	}
}
