package main

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/component"
	"github.com/lixenwraith/navcrowd/config"
	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/engine"
	"github.com/lixenwraith/navcrowd/hpa"
	"github.com/lixenwraith/navcrowd/incremental"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/orca"
	"github.com/lixenwraith/navcrowd/parameter"
	"github.com/lixenwraith/navcrowd/pathcache"
	"github.com/lixenwraith/navcrowd/postprocess"
	"github.com/lixenwraith/navcrowd/system"
)

// targetAttempts bounds the random search for a reachable destination
const targetAttempts = 32

// Sim owns the world and every system of the demo
type Sim struct {
	cfg    config.Config
	logger *zap.Logger
	rng    *rand.Rand

	grid   *navmap.GridMap
	world  *engine.World
	router *hpa.Pathfinder
	cache  *pathcache.Cache
	paths  *system.PathfindingSystem
	avoid  *system.AvoidanceSystem
	agents []core.Entity
	streak map[core.Entity]int // Consecutive failed searches

	arrivals       int
	respawns       int
	failures       int
	completed      int
	searchesFailed int
	replanned      int
}

// NewSim builds the configured layout and spawns cfg.Sim.Agents agents with targets
func NewSim(cfg config.Config, logger *zap.Logger) (*Sim, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sim{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(cfg.Sim.Seed)),
		world:  engine.NewWorld(),
		streak: make(map[core.Entity]int),
	}

	grid, err := s.layout()
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	s.grid = grid

	hcfg := cfg.HPA
	hcfg.Logger = logger
	if s.router, err = hpa.New(grid, hcfg); err != nil {
		return nil, fmt.Errorf("hpa: %w", err)
	}

	s.cache = pathcache.New(cfg.Cache)
	icfg := cfg.Incremental
	icfg.Logger = logger
	finder := incremental.New(grid, s.cache, icfg)

	if s.paths, err = system.NewPathfindingSystem(s.world, grid, finder, cfg.Pathfinding, logger); err != nil {
		return nil, err
	}
	obstacles, err := orca.FromGrid(grid)
	if err != nil {
		return nil, fmt.Errorf("obstacles: %w", err)
	}
	if s.avoid, err = system.NewAvoidanceSystem(s.world, obstacles, cfg.Avoidance, logger); err != nil {
		return nil, err
	}
	s.paths.Changes().Subscribe(s.onObstacleChange)

	s.world.AddSystem(s.paths)
	s.world.AddSystem(system.NewSteeringSystem(s.world, cfg.Steering))
	s.world.AddSystem(s.avoid)
	s.world.AddSystem(system.NewMovementSystem(s.world))

	for i := 0; i < cfg.Sim.Agents; i++ {
		if _, ok := s.Spawn(); !ok {
			break
		}
	}
	logger.Info("simulation ready",
		zap.Int("width", grid.Width()),
		zap.Int("height", grid.Height()),
		zap.Int("agents", len(s.agents)),
		zap.Int("clusters", len(s.router.Clusters())))
	return s, nil
}

// layout builds the starting grid for the configured layout
func (s *Sim) layout() (*navmap.GridMap, error) {
	sc := s.cfg.Sim
	if sc.Layout == config.LayoutMaze {
		return navmap.NewMaze(sc.Width, sc.Height, s.cfg.Grid.Options(), sc.Maze, s.rng)
	}
	grid, err := navmap.NewGridMap(sc.Width, sc.Height, s.cfg.Grid.Options())
	if err != nil {
		return nil, err
	}
	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			if s.rng.Float64() < sc.WallDensity {
				_ = grid.SetWalkable(x, y, false)
			}
		}
	}
	return grid, nil
}

// onObstacleChange keeps the abstract graph and the ORCA walls in step with the grid
func (s *Sim) onObstacleChange(ch postprocess.ObstacleChange) {
	s.router.NotifyRegionChange(ch.Area)
	obstacles, err := orca.FromGrid(s.grid)
	if err != nil {
		s.logger.Warn("obstacle rebuild failed", zap.Error(err))
		return
	}
	s.avoid.SetObstacles(obstacles)
	s.logger.Debug("obstacles rebuilt",
		zap.Uint64("epoch", ch.Epoch),
		zap.Int("vertices", obstacles.Len()))
}

// Step advances one frame and hands new targets to agents that stopped.
// Agents that keep failing are replaced by fresh ones elsewhere.
func (s *Sim) Step(dt time.Duration) {
	s.world.Update(dt)
	ps := s.paths.Stats()
	s.completed += ps.Completed
	s.searchesFailed += ps.Failed
	s.replanned += ps.Replanned

	var stuck []core.Entity
	for _, e := range s.agents {
		nav, ok := s.world.Navigations.Get(e)
		if !ok {
			continue
		}
		switch nav.State {
		case component.NavArrived:
			s.arrivals++
			s.streak[e] = 0
		case component.NavFailed:
			s.failures++
			s.streak[e]++
			if s.streak[e] >= parameter.SimMaxFailures {
				stuck = append(stuck, e)
				continue
			}
		default:
			continue
		}
		m, _ := s.world.Motions.Get(e)
		s.retarget(e, core.PointOf(m.Position))
	}

	if len(stuck) > 0 {
		s.Despawn(stuck...)
		for range stuck {
			if _, ok := s.Spawn(); ok {
				s.respawns++
			}
		}
		s.logger.Debug("respawned stuck agents", zap.Int("count", len(stuck)))
	}
}

// Spawn adds an agent on a random walkable cell with a reachable target
func (s *Sim) Spawn() (core.Entity, bool) {
	start, ok := s.randomCell()
	if !ok {
		return 0, false
	}
	e := s.world.SpawnAgent(start.Vec(), component.DefaultBody())
	s.agents = append(s.agents, e)
	s.retarget(e, start)
	return e, true
}

// Despawn releases the agents' searches and removes them from the world
func (s *Sim) Despawn(entities ...core.Entity) {
	if len(entities) == 0 {
		return
	}
	s.paths.Forget(entities...)
	s.world.DestroyEntities(entities)
	s.agents = slices.DeleteFunc(s.agents, func(e core.Entity) bool {
		return slices.Contains(entities, e)
	})
	for _, e := range entities {
		delete(s.streak, e)
	}
}

// Toggle flips a cell between wall and floor
func (s *Sim) Toggle(p core.Point) error {
	if !s.grid.InBounds(p.X, p.Y) {
		return nil
	}
	return s.paths.SetWalkable(p, !s.grid.Walkable(p.X, p.Y))
}

// retarget picks a destination the abstract graph can reach from 'from'
func (s *Sim) retarget(e core.Entity, from core.Point) {
	target, ok := s.randomCell()
	for i := 0; ok && i < targetAttempts; i++ {
		if s.router.FindPath(from, target).Found {
			break
		}
		target, ok = s.randomCell()
	}
	if !ok {
		return
	}
	priority := s.rng.Intn(3)
	s.world.Navigations.Mutate(e, func(n *component.NavigationComponent) {
		n.RequestTarget(target, priority)
	})
}

func (s *Sim) randomCell() (core.Point, bool) {
	for i := 0; i < s.grid.NodeCount(); i++ {
		p := core.Point{X: s.rng.Intn(s.grid.Width()), Y: s.rng.Intn(s.grid.Height())}
		if s.grid.Walkable(p.X, p.Y) {
			return p, true
		}
	}
	return core.Point{}, false
}
