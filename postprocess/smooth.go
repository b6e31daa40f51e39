package postprocess

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/parameter"
)

// Mode selects a smoother
type Mode string

const (
	ModeNone     Mode = "none"
	ModeLOS      Mode = "los"
	ModeCatmull  Mode = "catmull"
	ModeSimplify Mode = "simplify"
)

// Valid reports whether m names a known smoother
func (m Mode) Valid() bool {
	switch m {
	case ModeNone, ModeLOS, ModeCatmull, ModeSimplify:
		return true
	}
	return false
}

// SmoothConfig parameterises Smooth
type SmoothConfig struct {
	Mode            Mode    `yaml:"mode"`
	CatmullSegments int     `yaml:"catmull_segments"`
	CatmullTension  float64 `yaml:"catmull_tension"`
	SimplifyEpsilon float64 `yaml:"simplify_epsilon"`
}

// DefaultSmoothConfig uses line-of-sight smoothing
func DefaultSmoothConfig() SmoothConfig {
	return SmoothConfig{
		Mode:            ModeLOS,
		CatmullSegments: parameter.SmoothCatmullSegments,
		CatmullTension:  parameter.SmoothCatmullTension,
		SimplifyEpsilon: parameter.SmoothSimplifyEpsilon,
	}
}

// Smooth applies the configured smoother and returns continuous waypoints
func Smooth(g *navmap.GridMap, path []core.Point, cfg SmoothConfig) []core.Vec2 {
	switch cfg.Mode {
	case ModeLOS:
		return core.Vecs(SmoothLOS(g, path))
	case ModeCatmull:
		return CatmullRom(core.Vecs(path), cfg.CatmullSegments, cfg.CatmullTension)
	case ModeSimplify:
		return Simplify(core.Vecs(path), cfg.SimplifyEpsilon)
	default:
		return core.Vecs(path)
	}
}

// CatmullRom samples a cardinal spline through points. Each span gets
// segments samples; tangents are tension*(next-prev) with the end points
// duplicated so the curve starts and ends on the path.
func CatmullRom(points []core.Vec2, segments int, tension float64) []core.Vec2 {
	n := len(points)
	if n < 3 || segments < 1 {
		return append([]core.Vec2(nil), points...)
	}
	out := make([]core.Vec2, 0, (n-1)*segments+1)
	for i := 0; i < n-1; i++ {
		p0 := points[max(i-1, 0)]
		p1 := points[i]
		p2 := points[i+1]
		p3 := points[min(i+2, n-1)]
		m1 := p2.Sub(p0).Mul(tension)
		m2 := p3.Sub(p1).Mul(tension)
		for s := 0; s < segments; s++ {
			t := float64(s) / float64(segments)
			t2, t3 := t*t, t*t*t
			h00 := 2*t3 - 3*t2 + 1
			h10 := t3 - 2*t2 + t
			h01 := -2*t3 + 3*t2
			h11 := t3 - t2
			out = append(out, p1.Mul(h00).Add(m1.Mul(h10)).Add(p2.Mul(h01)).Add(m2.Mul(h11)))
		}
	}
	return append(out, points[n-1])
}

// Simplify drops waypoints closer than epsilon to the polyline through
// their neighbours (Douglas-Peucker)
func Simplify(points []core.Vec2, epsilon float64) []core.Vec2 {
	if len(points) <= 2 {
		return append([]core.Vec2(nil), points...)
	}
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = orb.Point{p[0], p[1]}
	}
	ls = simplify.DouglasPeucker(epsilon).LineString(ls)
	out := make([]core.Vec2, len(ls))
	for i, p := range ls {
		out[i] = core.Vec2{p[0], p[1]}
	}
	return out
}
