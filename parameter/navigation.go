package parameter

import (
	"math"
	"time"
)

// Grid
const (
	// GridDiagonalCost multiplies the destination cost on diagonal steps
	GridDiagonalCost = math.Sqrt2
)

// Search
const (
	// SearchMaxNodes aborts a single search after this many expansions
	SearchMaxNodes = 200_000
)

// Hierarchical pathfinding
const (
	// HPAClusterSize is the side length of a square cluster (cells)
	HPAClusterSize = 10

	// HPAMaxEntranceWidth is the widest boundary span served by a single entrance
	HPAMaxEntranceWidth = 6

	// HPAAnchorEntranceEnds places entrances at both ends of wide spans
	HPAAnchorEntranceEnds = true

	// HPALazyIntraEdges defers intra-cluster path computation to first use
	HPALazyIntraEdges = false

	// HPAMaxLocalNodes caps expansions of a single intra-cluster search
	HPAMaxLocalNodes = 4096
)

// Incremental sessions
const (
	// IncrementalMaxNodes fails a session after this many expansions
	IncrementalMaxNodes = 200_000

	// IncrementalUseCache commits completed sessions to the path cache
	IncrementalUseCache = true
)

// Path cache
const (
	// CacheMaxEntries bounds the LRU
	CacheMaxEntries = 1024

	// CacheTTL expires entries regardless of map version; zero disables expiry
	CacheTTL = 30 * time.Second

	// CacheApproximateRange is the neighbourhood searched around start/end (cells)
	CacheApproximateRange = 2
)

// Post-processing
const (
	// SmoothCatmullSegments is the number of samples per Catmull-Rom span
	SmoothCatmullSegments = 4

	// SmoothCatmullTension scales spline tangents; 0.5 is the centripetal default
	SmoothCatmullTension = 0.5

	// SmoothRaycastStep is the sampling distance of the fixed-step line test (cells)
	SmoothRaycastStep = 0.25

	// SmoothSimplifyEpsilon is the Douglas-Peucker tolerance (cells)
	SmoothSimplifyEpsilon = 0.5

	// ObstacleChangeRetain keeps flushed change regions queryable for this long
	ObstacleChangeRetain = 2 * time.Second
)

// Pathfinding scheduler
const (
	// SchedulerFrameBudget is the total search iterations spent per frame
	SchedulerFrameBudget = 2000

	// SchedulerAgentIterations caps iterations spent on one agent per frame
	SchedulerAgentIterations = 250

	// SchedulerMaxAgentsPerFrame caps agents stepped per frame
	SchedulerMaxAgentsPerFrame = 16

	// SchedulerRevalidateInterval re-checks active paths every N frames
	SchedulerRevalidateInterval = 30

	// SchedulerLookahead is the number of waypoints re-validated ahead of the agent
	SchedulerLookahead = 8

	// SchedulerArriveDistance marks a waypoint reached (cells)
	SchedulerArriveDistance = 0.35
)

// Spatial index
const (
	// KDTreeLeafSize is the maximum item count of a leaf
	KDTreeLeafSize = 10
)

// Local avoidance
const (
	// AvoidanceTimeStep is the simulation step the solver plans for (seconds)
	AvoidanceTimeStep = 1.0 / 30.0

	// AvoidanceNeighborDist is the neighbour search radius
	AvoidanceNeighborDist = 6.0

	// AvoidanceMaxNeighbors bounds the neighbours considered per agent
	AvoidanceMaxNeighbors = 10

	// AvoidanceTimeHorizon is the agent-agent look-ahead (seconds)
	AvoidanceTimeHorizon = 2.0

	// AvoidanceTimeHorizonObst is the agent-obstacle look-ahead (seconds)
	AvoidanceTimeHorizonObst = 1.0

	// AvoidanceRadius is the default agent radius
	AvoidanceRadius = 0.4

	// AvoidanceMaxSpeed is the default agent speed limit (cells per second)
	AvoidanceMaxSpeed = 3.0

	// AvoidanceEpsilon guards the LP against parallel lines
	AvoidanceEpsilon = 1e-5
)

// Steering
const (
	// SteeringSlowDistance starts braking this far from the final waypoint (cells)
	SteeringSlowDistance = 1.5
)

// System priorities, lower runs first
const (
	PriorityPathfinding = 10
	PrioritySteering    = 20
	PriorityAvoidance   = 30
	PriorityMovement    = 40
)

// Demo simulation
const (
	SimWidth       = 60
	SimHeight      = 24
	SimAgents      = 12
	SimSeed        = 1
	SimTickRate    = 30
	SimWallDensity = 0.18

	// SimMazeBraiding joins most dead ends so crowds have alternative routes
	SimMazeBraiding = 0.6

	// SimMazeCorridor keeps passages wide enough for two agents to pass
	SimMazeCorridor = 2

	// SimMaxFailures respawns an agent after this many failed searches in a row
	SimMaxFailures = 5
)
