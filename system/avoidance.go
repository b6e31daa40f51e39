package system

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/component"
	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/engine"
	"github.com/lixenwraith/navcrowd/metrics"
	"github.com/lixenwraith/navcrowd/orca"
	"github.com/lixenwraith/navcrowd/parameter"
	"github.com/lixenwraith/navcrowd/spatial"
)

// AvoidanceStats describes the last frame
type AvoidanceStats struct {
	Agents    int
	Fallbacks int
	Duration  time.Duration
}

// AvoidanceSystem snapshots agents into a KD-tree and solves each one's
// collision-free velocity against the frozen snapshot
type AvoidanceSystem struct {
	world  *engine.World
	solver *orca.Solver
	tree   *spatial.KDTree
	cfg    AvoidanceConfig
	log    *zap.Logger

	entities  []core.Entity
	agents    []orca.Agent
	index     map[core.Entity]int
	items     []spatial.Item
	hood      []spatial.Neighbor
	neighbors []orca.Agent
	results   []core.Vec2
	stats     AvoidanceStats
}

// NewAvoidanceSystem creates the avoidance pass; obstacles may be nil
func NewAvoidanceSystem(world *engine.World, obstacles *orca.ObstacleSet, cfg AvoidanceConfig, logger *zap.Logger) (*AvoidanceSystem, error) {
	solver, err := orca.NewSolver(cfg.Solver, obstacles)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvoidanceSystem{
		world:  world,
		solver: solver,
		tree:   spatial.NewKDTree(cfg.LeafSize),
		cfg:    cfg,
		log:    logger.Named("avoidance"),
		index:  make(map[core.Entity]int),
	}, nil
}

func (s *AvoidanceSystem) Name() string  { return "avoidance" }
func (s *AvoidanceSystem) Priority() int { return parameter.PriorityAvoidance }

// Stats returns counters for the last frame
func (s *AvoidanceSystem) Stats() AvoidanceStats { return s.stats }

// SetObstacles replaces the static obstacles, e.g. after the grid changed
func (s *AvoidanceSystem) SetObstacles(obstacles *orca.ObstacleSet) {
	s.solver.SetObstacles(obstacles)
}

func (s *AvoidanceSystem) Update(time.Duration) {
	_, span := tracer.Start(context.Background(), "AvoidanceSystem.Update")
	defer span.End()
	start := time.Now()

	s.snapshot()
	s.tree.Build(s.items)

	fallbacks := 0
	s.results = s.results[:0]
	for i := range s.agents {
		a := &s.agents[i]
		s.hood = s.tree.QueryInto(s.hood, a.Position, a.NeighborDist, a.MaxNeighbors, a.ID)
		s.neighbors = s.neighbors[:0]
		for _, n := range s.hood {
			s.neighbors = append(s.neighbors, s.agents[s.index[n.ID]])
		}
		sol := s.solver.ComputeNewVelocity(a, s.neighbors)
		if sol.Fallback {
			fallbacks++
		}
		s.results = append(s.results, sol.Velocity)
	}

	// Written after every agent is solved so all read the same snapshot
	for i, e := range s.entities {
		v := s.results[i]
		s.world.Motions.Mutate(e, func(m *component.MotionComponent) {
			m.NewVelocity = v
			if s.cfg.AutoApply {
				m.Velocity = v
			}
		})
	}

	s.stats = AvoidanceStats{Agents: len(s.agents), Fallbacks: fallbacks, Duration: time.Since(start)}
	metrics.AvoidanceAgents.Set(float64(len(s.agents)))
	metrics.AvoidanceFallbacks.Add(float64(fallbacks))
	metrics.AvoidanceDuration.Observe(s.stats.Duration.Seconds())
	span.SetAttributes(attribute.Int("agents", len(s.agents)), attribute.Int("fallbacks", fallbacks))
	if fallbacks > 0 {
		s.log.Debug("infeasible constraints", zap.Int("agents", fallbacks))
	}
}

func (s *AvoidanceSystem) snapshot() {
	s.entities = s.world.Query().With(s.world.Motions).With(s.world.Bodies).Execute()
	s.agents = s.agents[:0]
	s.items = s.items[:0]
	clear(s.index)
	for _, e := range s.entities {
		m, _ := s.world.Motions.Get(e)
		b, _ := s.world.Bodies.Get(e)
		s.index[e] = len(s.agents)
		s.agents = append(s.agents, orca.Agent{
			ID:              e,
			Position:        m.Position,
			Velocity:        m.Velocity,
			PrefVelocity:    m.PrefVelocity,
			Radius:          b.Radius,
			MaxSpeed:        b.MaxSpeed,
			NeighborDist:    b.NeighborDist,
			MaxNeighbors:    b.MaxNeighbors,
			TimeHorizon:     b.TimeHorizon,
			TimeHorizonObst: b.TimeHorizonObst,
		})
		s.items = append(s.items, spatial.Item{ID: e, Pos: m.Position})
	}
}
