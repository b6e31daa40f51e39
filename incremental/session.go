// Package incremental runs path searches as resumable sessions so a frame
// scheduler can spread a search over many frames.
//
// A session moves Idle -> InProgress, may alternate with Paused, and ends in
// exactly one of Completed, Failed or Cancelled. Sessions are addressed by a
// SessionID carrying a slot index and a generation, so ids of cleaned up
// sessions are rejected even after their slot is reused.
package incremental

import (
	"math"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/pqueue"
	"github.com/lixenwraith/navcrowd/search"
)

// State of a session
type State uint8

const (
	StateIdle State = iota
	StateInProgress
	StatePaused
	StateCompleted
	StateFailed
	StateCancelled
)

var stateNames = [...]string{"idle", "in_progress", "paused", "completed", "failed", "cancelled"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further steps will run
func (s State) Terminal() bool {
	return s >= StateCompleted
}

// SessionID packs a slot index (low 32 bits) and its generation (high 32 bits)
type SessionID uint64

// InvalidSession is never issued
const InvalidSession SessionID = 0

func makeID(index, gen uint32) SessionID {
	return SessionID(uint64(gen)<<32 | uint64(index))
}

func (id SessionID) index() uint32 { return uint32(id) }
func (id SessionID) gen() uint32   { return uint32(id >> 32) }

// PathRequest describes a query
type PathRequest struct {
	Start, End   core.Point
	Priority     int  // Higher runs first in schedulers
	MaxNodes     int  // Overrides Options.MaxNodes when positive
	AllowPartial bool // Return the closest reachable prefix on failure
	Entity       core.Entity
}

// Progress is a snapshot of a session
type Progress struct {
	State             State
	NodesSearched     int
	OpenSize          int
	FramesUsed        int
	EstimatedProgress float64 // 1 - (best h on the open list / initial h), clamped to 0..1
	FromCache         bool
	AffectedByChange  bool
}

// session holds the resumable search state
type session struct {
	req      PathRequest
	state    State
	arena    *search.Arena
	open     *pqueue.Heap[int32]
	startID  navmap.NodeID
	goalID   navmap.NodeID
	maxNodes int

	nodesSearched int
	framesUsed    int
	initialH      float64
	bestH         float64
	bestSlot      int32

	result    search.Result
	fromCache bool
	affected  bool
}

func newSession() *session {
	s := &session{arena: search.NewArena()}
	s.open = s.arena.NewOpenList()
	return s
}

// reset clears the arena and heap for reuse
func (s *session) reset(req PathRequest, maxNodes int) {
	s.open.Clear()
	s.arena.Reset()
	*s = session{
		req:      req,
		arena:    s.arena,
		open:     s.open,
		startID:  navmap.InvalidNode,
		goalID:   navmap.InvalidNode,
		maxNodes: maxNodes,
		bestSlot: -1,
	}
}

func (s *session) progress() Progress {
	p := Progress{
		State:            s.state,
		NodesSearched:    s.nodesSearched,
		OpenSize:         s.open.Len(),
		FramesUsed:       s.framesUsed,
		FromCache:        s.fromCache,
		AffectedByChange: s.affected,
	}
	switch {
	case s.state == StateCompleted:
		p.EstimatedProgress = 1
	case s.initialH > 0 && s.open.Len() > 0:
		p.EstimatedProgress = min(max(1-s.bestOpenH()/s.initialH, 0), 1)
	case s.initialH > 0 && s.bestSlot >= 0:
		p.EstimatedProgress = min(max(1-s.bestH/s.initialH, 0), 1)
	}
	return p
}

// bestOpenH is the smallest heuristic among queued nodes
func (s *session) bestOpenH() float64 {
	best := math.Inf(1)
	for _, slot := range s.open.Items() {
		best = min(best, s.arena.Nodes[slot].H)
	}
	return best
}

// touches reports whether any visited node or endpoint lies in area
func (s *session) touches(m navmap.Map, area core.Area) bool {
	if area.ContainsPoint(s.req.Start) || area.ContainsPoint(s.req.End) {
		return true
	}
	for _, p := range s.result.Path {
		if area.ContainsPoint(p) {
			return true
		}
	}
	for i := range s.arena.Nodes {
		if area.ContainsPoint(m.Node(s.arena.Nodes[i].ID).Position) {
			return true
		}
	}
	return false
}
