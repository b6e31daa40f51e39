package core

import "math"

// Heuristic estimates the remaining cost for a displacement of (dx, dy)
type Heuristic func(dx, dy float64) float64

// Sqrt2 is the default diagonal step cost
const Sqrt2 = math.Sqrt2

// Manhattan is admissible for 4-connected movement
func Manhattan(dx, dy float64) float64 {
	return math.Abs(dx) + math.Abs(dy)
}

// Euclidean is the straight-line distance
func Euclidean(dx, dy float64) float64 {
	return math.Hypot(dx, dy)
}

// Chebyshev treats diagonal steps as cost 1
func Chebyshev(dx, dy float64) float64 {
	return math.Max(math.Abs(dx), math.Abs(dy))
}

// Octile is exact on an open 8-connected grid with diagonal cost √2
func Octile(dx, dy float64) float64 {
	dx, dy = math.Abs(dx), math.Abs(dy)
	if dx < dy {
		dx, dy = dy, dx
	}
	return dx + (Sqrt2-1)*dy
}

// Distance applies h to the displacement between two points
func Distance(h Heuristic, a, b Point) float64 {
	return h(float64(b.X-a.X), float64(b.Y-a.Y))
}

// PathCost sums octile step lengths along a grid path
func PathCost(path []Point) float64 {
	var cost float64
	for i := 1; i < len(path); i++ {
		cost += Distance(Octile, path[i-1], path[i])
	}
	return cost
}
