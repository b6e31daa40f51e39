package search

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/parameter"
)

// Result is the outcome of a path query
type Result struct {
	Found         bool
	Path          []core.Point
	Cost          float64
	NodesSearched int
	FramesUsed    int
	IsPartial     bool         // Path ends at the closest reachable node, not the goal
	JumpPoints    []core.Point // Sparse waypoints of a JPS search
}

// NotFound returns the failure value for a query that searched n nodes
func NotFound(n int) Result {
	return Result{NodesSearched: n}
}

// Trivial returns the single-point path for start == end
func Trivial(p core.Point) Result {
	return Result{Found: true, Path: []core.Point{p}}
}

// Pathfinder finds a path between two cells
type Pathfinder interface {
	FindPath(start, end core.Point) Result
}

// Options shared by the base pathfinders
type Options struct {
	MaxNodes int         `yaml:"max_nodes"` // Fail once more than MaxNodes nodes were expanded
	Logger   *zap.Logger `yaml:"-"`         // Debug logging of search outcomes; nil disables
}

// DefaultOptions returns the parameter defaults
func DefaultOptions() Options {
	return Options{MaxNodes: parameter.SearchMaxNodes}
}

func (o Options) normalized() Options {
	if o.MaxNodes <= 0 {
		o.MaxNodes = parameter.SearchMaxNodes
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
