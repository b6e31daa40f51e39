package search

import "github.com/lixenwraith/navcrowd/core"

// Interpolate expands a sparse path of straight or diagonal segments into
// unit steps. Segments that are neither are walked diagonally first.
func Interpolate(sparse []core.Point) []core.Point {
	if len(sparse) < 2 {
		return append([]core.Point(nil), sparse...)
	}
	out := make([]core.Point, 0, len(sparse)*4)
	out = append(out, sparse[0])
	for i := 1; i < len(sparse); i++ {
		cur, to := sparse[i-1], sparse[i]
		for cur != to {
			cur = cur.Add(core.Sign(to.X-cur.X), core.Sign(to.Y-cur.Y))
			out = append(out, cur)
		}
	}
	return out
}
