// Package orca computes collision-free velocities with optimal reciprocal
// collision avoidance. Each agent turns its neighbours and nearby static
// edges into half-plane constraints on its velocity and picks the permitted
// velocity closest to the one it prefers.
package orca

import (
	"fmt"
	"math"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/parameter"
)

// Config tunes the solver
type Config struct {
	TimeStep float64 `yaml:"time_step"` // Seconds per simulation tick
	Epsilon  float64 `yaml:"epsilon"`   // Parallel-line tolerance
}

// DefaultConfig returns solver defaults
func DefaultConfig() Config {
	return Config{
		TimeStep: parameter.AvoidanceTimeStep,
		Epsilon:  parameter.AvoidanceEpsilon,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.TimeStep <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidTimeStep, c.TimeStep)
	}
	return nil
}

// Solution is the outcome of one agent's solve
type Solution struct {
	Velocity      core.Vec2
	Lines         int  // Constraints built
	ObstacleLines int  // Of which static
	Fallback      bool // The constraints were infeasible and the least-violating velocity was taken
}

// Solver holds scratch buffers reused across agents; one solver serves one goroutine
type Solver struct {
	cfg       Config
	obstacles *ObstacleSet
	lines     []Line
	proj      []Line
	near      []int
}

// NewSolver creates a solver; obstacles may be nil
func NewSolver(cfg Config, obstacles *ObstacleSet) (*Solver, error) {
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = parameter.AvoidanceEpsilon
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Solver{cfg: cfg, obstacles: obstacles}, nil
}

// SetObstacles replaces the static obstacle set
func (s *Solver) SetObstacles(obstacles *ObstacleSet) { s.obstacles = obstacles }

// Obstacles returns the static obstacle set, possibly nil
func (s *Solver) Obstacles() *ObstacleSet { return s.obstacles }

// Lines returns the constraints of the most recent solve
func (s *Solver) Lines() []Line { return s.lines }

// ComputeNewVelocity solves for a's velocity against the given neighbours,
// which should be ordered nearest first
func (s *Solver) ComputeNewVelocity(a *Agent, neighbors []Agent) Solution {
	s.lines = s.lines[:0]
	if s.obstacles != nil && a.TimeHorizonObst > 0 {
		s.near = s.obstacles.Query(a.Position, a.ObstacleRange(), s.near)
		for _, vi := range s.near {
			s.obstacleLine(a, vi)
		}
	}
	numObst := len(s.lines)

	if a.TimeHorizon > 0 {
		for i := range neighbors {
			if neighbors[i].ID == a.ID {
				continue
			}
			s.lines = append(s.lines, s.agentLine(a, &neighbors[i]))
		}
	}

	sol := Solution{Lines: len(s.lines), ObstacleLines: numObst}
	result, fail := s.linearProgram2(s.lines, a.MaxSpeed, a.PrefVelocity, false)
	if fail < len(s.lines) {
		result = s.linearProgram3(s.lines, numObst, fail, a.MaxSpeed, result)
		sol.Fallback = true
	}
	sol.Velocity = result
	return sol
}

func (s *Solver) agentLine(a, other *Agent) Line {
	invTH := 1 / a.TimeHorizon
	relPos := other.Position.Sub(a.Position)
	relVel := a.Velocity.Sub(other.Velocity)
	distSq := relPos.LenSqr()
	combined := a.Radius + other.Radius
	combinedSq := combined * combined

	var line Line
	var u core.Vec2
	if distSq > combinedSq {
		// w runs from the cutoff centre to the relative velocity
		w := relVel.Sub(relPos.Mul(invTH))
		wLenSq := w.LenSqr()
		dot1 := w.Dot(relPos)
		if dot1 < 0 && dot1*dot1 > combinedSq*wLenSq {
			// Cutoff circle
			wLen := math.Sqrt(wLenSq)
			unitW := w.Mul(1 / wLen)
			line.Direction = core.Vec2{unitW[1], -unitW[0]}
			u = unitW.Mul(combined*invTH - wLen)
		} else {
			// Legs
			leg := math.Sqrt(distSq - combinedSq)
			if core.Det(relPos, w) > 0 {
				line.Direction = core.Vec2{
					relPos[0]*leg - relPos[1]*combined,
					relPos[0]*combined + relPos[1]*leg,
				}.Mul(1 / distSq)
			} else {
				line.Direction = core.Vec2{
					relPos[0]*leg + relPos[1]*combined,
					-relPos[0]*combined + relPos[1]*leg,
				}.Mul(-1 / distSq)
			}
			u = line.Direction.Mul(relVel.Dot(line.Direction)).Sub(relVel)
		}
	} else {
		// Already overlapping: resolve within one time step
		invStep := 1 / s.cfg.TimeStep
		w := relVel.Sub(relPos.Mul(invStep))
		wLen := w.Len()
		var unitW core.Vec2
		if wLen > 0 {
			unitW = w.Mul(1 / wLen)
		} else {
			unitW = core.Vec2{1, 0}
		}
		line.Direction = core.Vec2{unitW[1], -unitW[0]}
		u = unitW.Mul(combined*invStep - wLen)
	}
	line.Point = a.Velocity.Add(u.Mul(0.5))
	return line
}

func (s *Solver) obstacleLine(a *Agent, vi int) {
	verts := s.obstacles.vertices
	invTH := 1 / a.TimeHorizonObst
	radius := a.Radius
	radiusSq := radius * radius

	o1 := &verts[vi]
	o2 := &verts[o1.Next]
	relPos1 := o1.Point.Sub(a.Position)
	relPos2 := o2.Point.Sub(a.Position)

	// Skip edges whose velocity obstacle earlier lines already exclude
	for _, l := range s.lines {
		if core.Det(relPos1.Mul(invTH).Sub(l.Point), l.Direction)-invTH*radius >= -s.cfg.Epsilon &&
			core.Det(relPos2.Mul(invTH).Sub(l.Point), l.Direction)-invTH*radius >= -s.cfg.Epsilon {
			return
		}
	}

	distSq1 := relPos1.LenSqr()
	distSq2 := relPos2.LenSqr()
	obstVec := o2.Point.Sub(o1.Point)
	sProj := relPos1.Mul(-1).Dot(obstVec) / obstVec.LenSqr()
	distSqLine := relPos1.Mul(-1).Sub(obstVec.Mul(sProj)).LenSqr()

	switch {
	case sProj < 0 && distSq1 <= radiusSq:
		// Touching the left vertex
		if o1.Convex {
			s.lines = append(s.lines, Line{Direction: core.Vec2{-relPos1[1], relPos1[0]}.Normalize()})
		}
		return
	case sProj > 1 && distSq2 <= radiusSq:
		// Touching the right vertex; the next edge handles it unless it faces away
		if o2.Convex && core.Det(relPos2, o2.Direction) >= 0 {
			s.lines = append(s.lines, Line{Direction: core.Vec2{-relPos2[1], relPos2[0]}.Normalize()})
		}
		return
	case sProj >= 0 && sProj < 1 && distSqLine <= radiusSq:
		// Touching the edge
		s.lines = append(s.lines, Line{Direction: o1.Direction.Mul(-1)})
		return
	}

	var leftLeg, rightLeg core.Vec2
	switch {
	case sProj < 0 && distSqLine <= radiusSq:
		// Seen end-on: the left vertex alone shapes the obstacle
		if !o1.Convex {
			return
		}
		o2 = o1
		leftLeg = leftLegOf(relPos1, distSq1, radius)
		rightLeg = rightLegOf(relPos1, distSq1, radius)
	case sProj > 1 && distSqLine <= radiusSq:
		// Seen end-on: the right vertex alone shapes the obstacle
		if !o2.Convex {
			return
		}
		o1 = o2
		leftLeg = leftLegOf(relPos2, distSq2, radius)
		rightLeg = rightLegOf(relPos2, distSq2, radius)
	default:
		if o1.Convex {
			leftLeg = leftLegOf(relPos1, distSq1, radius)
		} else {
			// Non-convex left vertex extends the cutoff line
			leftLeg = o1.Direction.Mul(-1)
		}
		if o2.Convex {
			rightLeg = rightLegOf(relPos2, distSq2, radius)
		} else {
			rightLeg = o1.Direction
		}
	}

	// A leg pointing into a neighbouring edge is replaced by that edge; velocities
	// projecting onto such a foreign leg add no constraint
	leftNeighbor := &verts[o1.Previous]
	leftForeign, rightForeign := false, false
	if o1.Convex && core.Det(leftLeg, leftNeighbor.Direction.Mul(-1)) >= 0 {
		leftLeg = leftNeighbor.Direction.Mul(-1)
		leftForeign = true
	}
	if o2.Convex && core.Det(rightLeg, o2.Direction) <= 0 {
		rightLeg = o2.Direction
		rightForeign = true
	}

	leftCutoff := o1.Point.Sub(a.Position).Mul(invTH)
	rightCutoff := o2.Point.Sub(a.Position).Mul(invTH)
	cutoffVec := rightCutoff.Sub(leftCutoff)
	single := o1 == o2

	t := 0.5
	if !single {
		t = a.Velocity.Sub(leftCutoff).Dot(cutoffVec) / cutoffVec.LenSqr()
	}
	tLeft := a.Velocity.Sub(leftCutoff).Dot(leftLeg)
	tRight := a.Velocity.Sub(rightCutoff).Dot(rightLeg)

	if (t < 0 && tLeft < 0) || (single && tLeft < 0 && tRight < 0) {
		s.lines = append(s.lines, cutoffCircleLine(a.Velocity, leftCutoff, radius*invTH))
		return
	}
	if t > 1 && tRight < 0 {
		s.lines = append(s.lines, cutoffCircleLine(a.Velocity, rightCutoff, radius*invTH))
		return
	}

	inf := math.Inf(1)
	distSqCutoff, distSqLeft, distSqRight := inf, inf, inf
	if t >= 0 && t <= 1 && !single {
		distSqCutoff = a.Velocity.Sub(leftCutoff.Add(cutoffVec.Mul(t))).LenSqr()
	}
	if tLeft >= 0 {
		distSqLeft = a.Velocity.Sub(leftCutoff.Add(leftLeg.Mul(tLeft))).LenSqr()
	}
	if tRight >= 0 {
		distSqRight = a.Velocity.Sub(rightCutoff.Add(rightLeg.Mul(tRight))).LenSqr()
	}

	var dir, origin core.Vec2
	switch {
	case distSqCutoff <= distSqLeft && distSqCutoff <= distSqRight:
		dir, origin = o1.Direction.Mul(-1), leftCutoff
	case distSqLeft <= distSqRight:
		if leftForeign {
			return
		}
		dir, origin = leftLeg, leftCutoff
	default:
		if rightForeign {
			return
		}
		dir, origin = rightLeg.Mul(-1), rightCutoff
	}
	s.lines = append(s.lines, Line{
		Point:     origin.Add(core.Vec2{-dir[1], dir[0]}.Mul(radius * invTH)),
		Direction: dir,
	})
}

// cutoffCircleLine projects v onto the circle of radius r around centre
func cutoffCircleLine(v, centre core.Vec2, r float64) Line {
	w := v.Sub(centre)
	var unitW core.Vec2
	if l := w.Len(); l > 0 {
		unitW = w.Mul(1 / l)
	} else {
		unitW = core.Vec2{0, -1}
	}
	return Line{
		Point:     centre.Add(unitW.Mul(r)),
		Direction: core.Vec2{unitW[1], -unitW[0]},
	}
}

func leftLegOf(rel core.Vec2, distSq, radius float64) core.Vec2 {
	leg := math.Sqrt(max(distSq-radius*radius, 0))
	return core.Vec2{rel[0]*leg - rel[1]*radius, rel[0]*radius + rel[1]*leg}.Mul(1 / distSq)
}

func rightLegOf(rel core.Vec2, distSq, radius float64) core.Vec2 {
	leg := math.Sqrt(max(distSq-radius*radius, 0))
	return core.Vec2{rel[0]*leg + rel[1]*radius, -rel[0]*radius + rel[1]*leg}.Mul(1 / distSq)
}
