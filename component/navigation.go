package component

import (
	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/incremental"
)

// NavState tracks an agent through request, search and path following
type NavState uint8

const (
	NavIdle NavState = iota
	NavRequested
	NavSearching
	NavFollowing
	NavArrived
	NavFailed
)

var navStateNames = [...]string{"idle", "requested", "searching", "following", "arrived", "failed"}

func (s NavState) String() string {
	if int(s) < len(navStateNames) {
		return navStateNames[s]
	}
	return "unknown"
}

// NavigationComponent provides pathfinding state for a moving agent
type NavigationComponent struct {
	Target   core.Point
	Priority int // Higher is searched first
	State    NavState

	// Live search, zero when none
	Session incremental.SessionID
	// Scheduling order among equal priorities, assigned when the search opens
	Arrival uint64

	// Smoothed waypoints and the index of the one being approached
	Path     []core.Vec2
	Waypoint int
	Partial  bool

	Replans int
}

// RequestTarget asks for a path to target on the next scheduler pass
func (n *NavigationComponent) RequestTarget(target core.Point, priority int) {
	n.Target = target
	n.Priority = priority
	n.State = NavRequested
	n.Path = nil
	n.Waypoint = 0
	n.Partial = false
}

// NextWaypoint returns the waypoint being approached
func (n *NavigationComponent) NextWaypoint() (core.Vec2, bool) {
	if n.State != NavFollowing || n.Waypoint >= len(n.Path) {
		return core.Vec2{}, false
	}
	return n.Path[n.Waypoint], true
}
