package postprocess

import (
	"time"

	"github.com/lixenwraith/navcrowd/core"
)

// ObstacleChange is one flushed batch of cell changes
type ObstacleChange struct {
	Area  core.Area
	At    time.Time
	Epoch uint64
}

// ObstacleChangeManager batches cell toggles into one bounding box per epoch
// and keeps flushed regions for RetainFor
type ObstacleChangeManager struct {
	clock     core.Clock
	retainFor time.Duration
	pending   core.Area
	epoch     uint64
	recent    []ObstacleChange
	listeners []func(ObstacleChange)
}

// NewObstacleChangeManager creates a manager; nil clock uses wall time
func NewObstacleChangeManager(clock core.Clock, retainFor time.Duration) *ObstacleChangeManager {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &ObstacleChangeManager{
		clock:     clock,
		retainFor: retainFor,
		pending:   core.EmptyArea,
	}
}

// Subscribe registers fn to run on every flushed change
func (m *ObstacleChangeManager) Subscribe(fn func(ObstacleChange)) {
	m.listeners = append(m.listeners, fn)
}

// MarkCell records a toggled cell
func (m *ObstacleChangeManager) MarkCell(p core.Point) {
	m.pending = m.pending.Extend(p)
}

// MarkArea records a changed rectangle
func (m *ObstacleChangeManager) MarkArea(a core.Area) {
	if a.Empty() {
		return
	}
	m.pending = m.pending.Union(a)
}

// Pending returns the unflushed bounding box
func (m *ObstacleChangeManager) Pending() (core.Area, bool) {
	return m.pending, !m.pending.Empty()
}

// Epoch returns the number of flushed batches
func (m *ObstacleChangeManager) Epoch() uint64 { return m.epoch }

// Flush closes the epoch. A non-empty batch is retained and delivered to
// subscribers in registration order.
func (m *ObstacleChangeManager) Flush() (ObstacleChange, bool) {
	m.prune()
	if m.pending.Empty() {
		return ObstacleChange{}, false
	}
	m.epoch++
	ch := ObstacleChange{Area: m.pending, At: m.clock.Now(), Epoch: m.epoch}
	m.pending = core.EmptyArea
	m.recent = append(m.recent, ch)
	for _, fn := range m.listeners {
		fn(ch)
	}
	return ch, true
}

// Recent returns retained changes, oldest first
func (m *ObstacleChangeManager) Recent() []ObstacleChange {
	m.prune()
	return m.recent
}

// AffectsPath reports whether any retained change overlaps a waypoint
func (m *ObstacleChangeManager) AffectsPath(path []core.Vec2) bool {
	for _, ch := range m.Recent() {
		for _, v := range path {
			if ch.Area.ContainsPoint(core.PointOf(v)) {
				return true
			}
		}
	}
	return false
}

func (m *ObstacleChangeManager) prune() {
	now := m.clock.Now()
	keep := m.recent[:0]
	for _, ch := range m.recent {
		if now.Sub(ch.At) <= m.retainFor {
			keep = append(keep, ch)
		}
	}
	clear(m.recent[len(keep):])
	m.recent = keep
}
