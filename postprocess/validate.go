package postprocess

import (
	"math"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/parameter"
)

// Validator re-checks stored paths against the current grid
type Validator struct {
	grid *navmap.GridMap
	step float64
}

// NewValidator creates a validator using the default raycast step
func NewValidator(grid *navmap.GridMap) *Validator {
	return &Validator{grid: grid, step: parameter.SmoothRaycastStep}
}

// Validate checks waypoints from..from+lookahead and the segments joining
// them. It returns the index of the first waypoint that is blocked or cannot
// be reached from its predecessor, or -1 when the window is clear.
func (v *Validator) Validate(path []core.Vec2, from, lookahead int) int {
	if from < 0 {
		from = 0
	}
	end := len(path) - 1
	if lookahead > 0 {
		end = min(end, from+lookahead)
	}
	for i := from; i <= end; i++ {
		c := core.PointOf(path[i])
		if !v.grid.Walkable(c.X, c.Y) {
			return i
		}
		if i > from && !v.segmentClear(path[i-1], path[i]) {
			return i
		}
	}
	return -1
}

func (v *Validator) segmentClear(a, b core.Vec2) bool {
	if integral(a) && integral(b) {
		return LineOfSight(v.grid, core.PointOf(a), core.PointOf(b))
	}
	return Raycast(v.grid, a, b, v.step)
}

func integral(p core.Vec2) bool {
	return p[0] == math.Trunc(p[0]) && p[1] == math.Trunc(p[1])
}
