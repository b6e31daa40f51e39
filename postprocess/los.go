package postprocess

import (
	"math"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
)

// clearStep reports whether one Bresenham step is passable. Diagonal steps
// need both orthogonal cells when the grid forbids corner cutting or has no
// diagonal moves at all.
func clearStep(g *navmap.GridMap, x, y, dx, dy int) bool {
	if !g.Walkable(x+dx, y+dy) {
		return false
	}
	if dx != 0 && dy != 0 {
		opts := g.Options()
		if opts.AvoidCorners || !opts.Diagonal {
			return g.Walkable(x+dx, y) && g.Walkable(x, y+dy)
		}
	}
	return true
}

// LineOfSight traces a Bresenham line from a to b
func LineOfSight(g *navmap.GridMap, a, b core.Point) bool {
	if !g.Walkable(a.X, a.Y) || !g.Walkable(b.X, b.Y) {
		return false
	}
	dx, dy := core.Abs(b.X-a.X), -core.Abs(b.Y-a.Y)
	sx, sy := core.Sign(b.X-a.X), core.Sign(b.Y-a.Y)
	err := dx + dy
	x, y := a.X, a.Y
	for x != b.X || y != b.Y {
		e2 := 2 * err
		stepX, stepY := 0, 0
		if e2 >= dy {
			err += dy
			stepX = sx
		}
		if e2 <= dx {
			err += dx
			stepY = sy
		}
		if !clearStep(g, x, y, stepX, stepY) {
			return false
		}
		x += stepX
		y += stepY
	}
	return true
}

// Raycast samples the segment a-b every step cells and checks the nearest cell
func Raycast(g *navmap.GridMap, a, b core.Vec2, step float64) bool {
	if step <= 0 {
		step = 0.25
	}
	d := b.Sub(a)
	n := int(math.Ceil(d.Len() / step))
	for i := 0; i <= n; i++ {
		t := 1.0
		if n > 0 {
			t = float64(i) / float64(n)
		}
		c := core.PointOf(a.Add(d.Mul(t)))
		if !g.Walkable(c.X, c.Y) {
			return false
		}
	}
	return true
}

// SmoothLOS removes waypoints that are visible from an earlier kept waypoint.
// From each kept point it scans back from the end for the farthest visible one.
func SmoothLOS(g *navmap.GridMap, path []core.Point) []core.Point {
	if len(path) <= 2 {
		return append([]core.Point(nil), path...)
	}
	out := []core.Point{path[0]}
	for i := 0; i < len(path)-1; {
		next := i + 1
		for j := len(path) - 1; j > i+1; j-- {
			if LineOfSight(g, path[i], path[j]) {
				next = j
				break
			}
		}
		out = append(out, path[next])
		i = next
	}
	return out
}
