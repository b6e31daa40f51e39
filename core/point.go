package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Point is a grid coordinate, used for cell positions and path waypoints
type Point struct {
	X, Y int
}

// Vec2 is a continuous 2D position or velocity
type Vec2 = mgl64.Vec2

// Add returns p offset by (dx, dy)
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Vec returns p as a continuous position
func (p Point) Vec() Vec2 {
	return Vec2{float64(p.X), float64(p.Y)}
}

// PointOf rounds a continuous position to the nearest cell
func PointOf(v Vec2) Point {
	return Point{X: int(math.Round(v[0])), Y: int(math.Round(v[1]))}
}

// Vecs converts a grid path into continuous waypoints
func Vecs(path []Point) []Vec2 {
	if path == nil {
		return nil
	}
	out := make([]Vec2, len(path))
	for i, p := range path {
		out[i] = p.Vec()
	}
	return out
}

// Points rounds continuous waypoints back onto the grid, collapsing consecutive duplicates
func Points(path []Vec2) []Point {
	if path == nil {
		return nil
	}
	out := make([]Point, 0, len(path))
	for _, v := range path {
		p := PointOf(v)
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Det returns the 2D cross product (determinant) of a and b
func Det(a, b Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// Sign returns -1, 0 or 1
func Sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Abs returns |v|
func Abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
