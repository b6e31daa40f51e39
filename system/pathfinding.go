package system

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/component"
	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/engine"
	"github.com/lixenwraith/navcrowd/incremental"
	"github.com/lixenwraith/navcrowd/metrics"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/parameter"
	"github.com/lixenwraith/navcrowd/postprocess"
)

var tracer = otel.Tracer("github.com/lixenwraith/navcrowd/system")

// PathfindingStats describes the last frame
type PathfindingStats struct {
	Frame      int64
	Waiting    int // Agents with a live search before stepping
	Stepped    int
	Iterations int
	Completed  int
	Failed     int
	Replanned  int
}

type scheduled struct {
	entity   core.Entity
	priority int
	arrival  uint64
	session  incremental.SessionID
}

// PathfindingSystem spreads a per-frame expansion budget over agent searches
// and keeps followed paths valid as the grid changes
type PathfindingSystem struct {
	world     *engine.World
	grid      *navmap.GridMap
	finder    *incremental.Pathfinder
	validator *postprocess.Validator
	changes   *postprocess.ObstacleChangeManager
	cfg       PathfindingConfig
	log       *zap.Logger

	frame    int64
	arrivals uint64
	queue    []scheduled
	stats    PathfindingStats
}

// NewPathfindingSystem creates the scheduler; finder must search grid
func NewPathfindingSystem(world *engine.World, grid *navmap.GridMap, finder *incremental.Pathfinder, cfg PathfindingConfig, logger *zap.Logger) (*PathfindingSystem, error) {
	if grid == nil {
		return nil, ErrNilGrid
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PathfindingSystem{
		world:     world,
		grid:      grid,
		finder:    finder,
		validator: postprocess.NewValidator(grid),
		changes:   postprocess.NewObstacleChangeManager(cfg.Clock, parameter.ObstacleChangeRetain),
		cfg:       cfg,
		log:       logger.Named("pathfinding"),
	}, nil
}

func (s *PathfindingSystem) Name() string  { return "pathfinding" }
func (s *PathfindingSystem) Priority() int { return parameter.PriorityPathfinding }

// Stats returns counters for the last frame
func (s *PathfindingSystem) Stats() PathfindingStats { return s.stats }

// Changes returns the obstacle change batcher flushed at the start of each frame
func (s *PathfindingSystem) Changes() *postprocess.ObstacleChangeManager { return s.changes }

// SetWalkable toggles a grid cell and records the change for the next frame
func (s *PathfindingSystem) SetWalkable(p core.Point, walkable bool) error {
	if s.grid.Walkable(p.X, p.Y) == walkable {
		return nil
	}
	if err := s.grid.SetWalkable(p.X, p.Y, walkable); err != nil {
		return err
	}
	s.changes.MarkCell(p)
	return nil
}

// Update runs one scheduling frame
func (s *PathfindingSystem) Update(time.Duration) {
	s.frame++
	_, span := tracer.Start(context.Background(), "PathfindingSystem.Update",
		trace.WithAttributes(attribute.Int64("frame", s.frame)))
	defer span.End()

	s.stats = PathfindingStats{Frame: s.frame}
	entities := s.world.Query().With(s.world.Navigations).With(s.world.Motions).Execute()

	if ch, ok := s.changes.Flush(); ok {
		s.applyChange(ch, entities)
	}
	if s.cfg.RevalidateInterval > 0 && s.frame%int64(s.cfg.RevalidateInterval) == 0 {
		s.revalidate(entities)
	}

	s.queue = s.queue[:0]
	for _, e := range entities {
		s.collect(e)
	}
	s.stats.Waiting = len(s.queue)

	sort.SliceStable(s.queue, func(i, j int) bool {
		if s.queue[i].priority != s.queue[j].priority {
			return s.queue[i].priority > s.queue[j].priority
		}
		return s.queue[i].arrival < s.queue[j].arrival
	})

	budget := s.cfg.FrameBudget
	for _, q := range s.queue {
		if budget <= 0 || s.stats.Stepped >= s.cfg.MaxAgentsPerFrame {
			break
		}
		before, _ := s.finder.Progress(q.session)
		prog, err := s.finder.Step(q.session, min(s.cfg.AgentIterations, budget))
		if err != nil {
			s.log.Warn("step failed", zap.Uint64("entity", uint64(q.entity)), zap.Error(err))
			continue
		}
		spent := max(prog.NodesSearched-before.NodesSearched, 1)
		budget -= spent
		s.stats.Iterations += spent
		s.stats.Stepped++
		if prog.State.Terminal() {
			s.world.Navigations.Mutate(q.entity, func(nav *component.NavigationComponent) {
				s.finish(q.entity, nav)
			})
		}
	}
	if s.stats.Stepped < len(s.queue) {
		metrics.BudgetExhausted.Inc()
		s.log.Debug("frame budget exhausted",
			zap.Int64("frame", s.frame),
			zap.Int("waiting", len(s.queue)-s.stats.Stepped))
	}

	metrics.FrameIterations.Observe(float64(s.stats.Iterations))
	metrics.ActiveSessions.Set(float64(s.finder.ActiveSessions()))
	span.SetAttributes(
		attribute.Int("stepped", s.stats.Stepped),
		attribute.Int("iterations", s.stats.Iterations),
	)
}

// collect opens pending requests, finishes searches that ended outside a
// step, and queues the rest
func (s *PathfindingSystem) collect(e core.Entity) {
	nav, ok := s.world.Navigations.Get(e)
	if !ok {
		return
	}
	switch nav.State {
	case component.NavRequested:
		if nav.Session != incremental.InvalidSession {
			s.release(&nav)
			metrics.Replans.WithLabelValues(metrics.ReasonRetarget).Inc()
		}
		s.open(e, &nav)
	case component.NavSearching:
		prog, err := s.finder.Progress(nav.Session)
		switch {
		case err != nil:
			nav.Session = incremental.InvalidSession
			s.replan(e, &nav, metrics.ReasonStale)
		case prog.AffectedByChange && !prog.State.Terminal():
			s.replan(e, &nav, metrics.ReasonObstacle)
		}
	default:
		return
	}

	if nav.State == component.NavSearching {
		if prog, err := s.finder.Progress(nav.Session); err == nil && prog.State.Terminal() {
			s.finish(e, &nav)
		} else {
			s.queue = append(s.queue, scheduled{entity: e, priority: nav.Priority, arrival: nav.Arrival, session: nav.Session})
		}
	}
	s.world.Navigations.Set(e, nav)
}

func (s *PathfindingSystem) open(e core.Entity, nav *component.NavigationComponent) {
	motion, _ := s.world.Motions.Get(e)
	s.arrivals++
	nav.Arrival = s.arrivals
	nav.Path = nil
	nav.Waypoint = 0
	nav.Partial = false
	nav.Session = s.finder.RequestPath(incremental.PathRequest{
		Start:        core.PointOf(motion.Position),
		End:          nav.Target,
		Priority:     nav.Priority,
		AllowPartial: s.cfg.AllowPartial,
		Entity:       e,
	})
	nav.State = component.NavSearching
}

// Forget releases the session held by each entity; call before destroying them
func (s *PathfindingSystem) Forget(entities ...core.Entity) {
	for _, e := range entities {
		s.world.Navigations.Mutate(e, func(nav *component.NavigationComponent) {
			s.release(nav)
			nav.State = component.NavIdle
		})
	}
}

func (s *PathfindingSystem) release(nav *component.NavigationComponent) {
	if nav.Session == incremental.InvalidSession {
		return
	}
	if prog, err := s.finder.Progress(nav.Session); err == nil && !prog.State.Terminal() {
		_ = s.finder.Cancel(nav.Session)
	}
	_ = s.finder.Cleanup(nav.Session)
	nav.Session = incremental.InvalidSession
}

func (s *PathfindingSystem) replan(e core.Entity, nav *component.NavigationComponent, reason string) {
	s.release(nav)
	nav.Replans++
	s.stats.Replanned++
	metrics.Replans.WithLabelValues(reason).Inc()
	s.log.Debug("replanning",
		zap.Uint64("entity", uint64(e)),
		zap.String("reason", reason),
		zap.Int("replans", nav.Replans))
	s.open(e, nav)
}

// finish stores a terminal session's result on the agent and frees the session
func (s *PathfindingSystem) finish(e core.Entity, nav *component.NavigationComponent) {
	prog, _ := s.finder.Progress(nav.Session)
	res, err := s.finder.Result(nav.Session)
	s.release(nav)
	if err != nil {
		nav.State = component.NavFailed
		return
	}

	switch {
	case res.Found:
		s.stats.Completed++
		metrics.PathsCompleted.Inc()
		if prog.FromCache {
			metrics.PathsFromCache.Inc()
		}
	case res.IsPartial && len(res.Path) > 1:
		s.stats.Failed++
		metrics.PathsFailed.WithLabelValues("true").Inc()
		nav.Partial = true
	default:
		s.stats.Failed++
		metrics.PathsFailed.WithLabelValues("false").Inc()
		nav.State = component.NavFailed
		s.log.Debug("no path",
			zap.Uint64("entity", uint64(e)),
			zap.Int("nodes", res.NodesSearched))
		return
	}

	nav.Path = postprocess.Smooth(s.grid, res.Path, s.cfg.Smooth)
	nav.Waypoint = 0
	if len(nav.Path) > 1 {
		nav.Waypoint = 1
	}
	nav.State = component.NavFollowing
}

// applyChange notifies live sessions and replans agents whose remaining path
// is no longer clear
func (s *PathfindingSystem) applyChange(ch postprocess.ObstacleChange, entities []core.Entity) {
	flagged := s.finder.NotifyObstacleChange(ch.Area)
	s.log.Debug("obstacle change",
		zap.Uint64("epoch", ch.Epoch),
		zap.Int("sessions_flagged", flagged))
	for _, e := range entities {
		s.world.Navigations.Mutate(e, func(nav *component.NavigationComponent) {
			if nav.State == component.NavFollowing && s.validator.Validate(nav.Path, max(nav.Waypoint-1, 0), 0) >= 0 {
				s.replan(e, nav, metrics.ReasonObstacle)
			}
		})
	}
}

func (s *PathfindingSystem) revalidate(entities []core.Entity) {
	for _, e := range entities {
		s.world.Navigations.Mutate(e, func(nav *component.NavigationComponent) {
			if nav.State == component.NavFollowing && s.validator.Validate(nav.Path, max(nav.Waypoint-1, 0), s.cfg.Lookahead) >= 0 {
				s.replan(e, nav, metrics.ReasonRevalidate)
			}
		})
	}
}
