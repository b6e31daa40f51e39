package orca

import (
	"math"

	"github.com/lixenwraith/navcrowd/core"
)

// linearProgram1 optimises along line lineNo, bounded by the speed disc and
// every earlier line. It reports false when that segment is empty.
func (s *Solver) linearProgram1(lines []Line, lineNo int, radius float64, opt core.Vec2, directionOpt bool) (core.Vec2, bool) {
	ln := lines[lineNo]
	dot := ln.Point.Dot(ln.Direction)
	disc := dot*dot + radius*radius - ln.Point.LenSqr()
	if disc < 0 {
		// Speed disc misses the line entirely
		return core.Vec2{}, false
	}
	sqrtDisc := math.Sqrt(disc)
	tLeft, tRight := -dot-sqrtDisc, -dot+sqrtDisc

	for i := 0; i < lineNo; i++ {
		denom := core.Det(ln.Direction, lines[i].Direction)
		numer := core.Det(lines[i].Direction, ln.Point.Sub(lines[i].Point))
		if math.Abs(denom) <= s.cfg.Epsilon {
			// Parallel: either line i excludes this one or imposes nothing
			if numer < 0 {
				return core.Vec2{}, false
			}
			continue
		}
		t := numer / denom
		if denom >= 0 {
			tRight = min(tRight, t)
		} else {
			tLeft = max(tLeft, t)
		}
		if tLeft > tRight {
			return core.Vec2{}, false
		}
	}

	if directionOpt {
		if opt.Dot(ln.Direction) > 0 {
			return ln.Point.Add(ln.Direction.Mul(tRight)), true
		}
		return ln.Point.Add(ln.Direction.Mul(tLeft)), true
	}
	t := ln.Direction.Dot(opt.Sub(ln.Point))
	t = min(max(t, tLeft), tRight)
	return ln.Point.Add(ln.Direction.Mul(t)), true
}

// linearProgram2 finds the velocity closest to opt (or furthest along opt when
// directionOpt) satisfying all lines inside the speed disc. It returns the
// result and the index of the first line that could not be satisfied, or
// len(lines) on success. On failure the result satisfies every line before it.
func (s *Solver) linearProgram2(lines []Line, radius float64, opt core.Vec2, directionOpt bool) (core.Vec2, int) {
	var result core.Vec2
	switch {
	case directionOpt:
		result = opt.Mul(radius)
	case opt.LenSqr() > radius*radius:
		result = opt.Normalize().Mul(radius)
	default:
		result = opt
	}

	for i := range lines {
		if core.Det(lines[i].Direction, lines[i].Point.Sub(result)) > 0 {
			next, ok := s.linearProgram1(lines, i, radius, opt, directionOpt)
			if !ok {
				return result, i
			}
			result = next
		}
	}
	return result, len(lines)
}

// linearProgram3 minimises the largest violation among lines from beginLine on,
// keeping the first numObst lines (static obstacles) hard
func (s *Solver) linearProgram3(lines []Line, numObst, beginLine int, radius float64, result core.Vec2) core.Vec2 {
	distance := 0.0
	for i := beginLine; i < len(lines); i++ {
		li := lines[i]
		if core.Det(li.Direction, li.Point.Sub(result)) <= distance {
			continue
		}
		s.proj = append(s.proj[:0], lines[:numObst]...)
		for j := numObst; j < i; j++ {
			lj := lines[j]
			var line Line
			det := core.Det(li.Direction, lj.Direction)
			if math.Abs(det) <= s.cfg.Epsilon {
				if li.Direction.Dot(lj.Direction) > 0 {
					// Same direction
					continue
				}
				line.Point = li.Point.Add(lj.Point).Mul(0.5)
			} else {
				line.Point = li.Point.Add(li.Direction.Mul(core.Det(lj.Direction, li.Point.Sub(lj.Point)) / det))
			}
			line.Direction = lj.Direction.Sub(li.Direction).Normalize()
			s.proj = append(s.proj, line)
		}

		perp := core.Vec2{-li.Direction[1], li.Direction[0]}
		if next, fail := s.linearProgram2(s.proj, radius, perp, true); fail == len(s.proj) {
			result = next
		}
		// A failure here is floating-point noise; the previous result stands
		distance = core.Det(li.Direction, li.Point.Sub(result))
	}
	return result
}
