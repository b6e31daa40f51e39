package navmap

import "github.com/lixenwraith/navcrowd/core"

// NodeID identifies a node within one map
type NodeID int32

// InvalidNode is returned where no node exists
const InvalidNode NodeID = -1

// Node is a map-owned vertex of the search graph
type Node struct {
	ID       NodeID
	Position core.Point
	Cost     float64 // Movement multiplier for entering this node
	Walkable bool
}

// Map is the capability set every pathfinder consumes
type Map interface {
	// NodeAt returns the node covering (x, y); ok is false outside the map
	NodeAt(x, y int) (Node, bool)
	// Node returns the node with the given id
	Node(id NodeID) Node
	// Neighbors appends the walkable successors of id to buf
	Neighbors(id NodeID, buf []NodeID) []NodeID
	// Heuristic estimates the cost between two nodes, never overestimating
	Heuristic(a, b NodeID) float64
	// MovementCost is the exact cost of stepping from one neighbour to another
	MovementCost(from, to NodeID) float64
	// Walkable reports whether (x, y) can be occupied
	Walkable(x, y int) bool
	// NodeCount bounds the id space: 0 <= id < NodeCount
	NodeCount() int
}

// Bounded maps expose their extent
type Bounded interface {
	Width() int
	Height() int
}
