package incremental

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/parameter"
	"github.com/lixenwraith/navcrowd/pathcache"
	"github.com/lixenwraith/navcrowd/search"
)

// Options configures the session engine
type Options struct {
	MaxNodes     int  `yaml:"max_nodes"`
	UseCache     bool `yaml:"use_cache"`
	AllowPartial bool `yaml:"allow_partial"`

	Logger *zap.Logger `yaml:"-"`
}

// DefaultOptions returns the parameter defaults
func DefaultOptions() Options {
	return Options{
		MaxNodes: parameter.IncrementalMaxNodes,
		UseCache: parameter.IncrementalUseCache,
	}
}

type slot struct {
	gen  uint32
	live bool
	s    *session
}

// Pathfinder owns the sessions for one map
type Pathfinder struct {
	m          navmap.Map
	cache      *pathcache.Cache
	opts       Options
	log        *zap.Logger
	slots      []slot
	free       []uint32
	mapVersion uint64
	nbuf       []navmap.NodeID
}

// New creates a session engine over m. cache may be nil.
func New(m navmap.Map, cache *pathcache.Cache, opts Options) *Pathfinder {
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = parameter.IncrementalMaxNodes
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Pathfinder{
		m:     m,
		cache: cache,
		opts:  opts,
		log:   log,
		nbuf:  make([]navmap.NodeID, 0, 8),
	}
}

// Map returns the searched map
func (p *Pathfinder) Map() navmap.Map { return p.m }

// Cache returns the attached cache, possibly nil
func (p *Pathfinder) Cache() *pathcache.Cache { return p.cache }

// MapVersion increments on every obstacle notification
func (p *Pathfinder) MapVersion() uint64 { return p.mapVersion }

// ActiveSessions returns the number of sessions not yet cleaned up
func (p *Pathfinder) ActiveSessions() int {
	return len(p.slots) - len(p.free)
}

func (p *Pathfinder) alloc() (SessionID, *session) {
	var idx uint32
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		idx = uint32(len(p.slots))
		p.slots = append(p.slots, slot{s: newSession()})
	}
	sl := &p.slots[idx]
	sl.gen++
	if sl.gen == 0 {
		sl.gen = 1
	}
	sl.live = true
	return makeID(idx, sl.gen), sl.s
}

func (p *Pathfinder) lookup(id SessionID) (*session, error) {
	idx := id.index()
	if int(idx) >= len(p.slots) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSession, id)
	}
	sl := &p.slots[idx]
	if !sl.live || sl.gen != id.gen() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSession, id)
	}
	return sl.s, nil
}

// RequestPath opens a session. A valid cache entry completes it immediately;
// unwalkable endpoints fail it immediately.
func (p *Pathfinder) RequestPath(req PathRequest) SessionID {
	maxNodes := p.opts.MaxNodes
	if req.MaxNodes > 0 {
		maxNodes = req.MaxNodes
	}
	id, s := p.alloc()
	s.reset(req, maxNodes)

	if p.opts.UseCache && p.cache != nil {
		if res, ok := p.cache.Get(req.Start, req.End, p.mapVersion); ok {
			s.state = StateCompleted
			s.fromCache = true
			s.result = res
			return id
		}
	}

	startNode, ok1 := p.m.NodeAt(req.Start.X, req.Start.Y)
	goalNode, ok2 := p.m.NodeAt(req.End.X, req.End.Y)
	if !ok1 || !ok2 || !startNode.Walkable || !goalNode.Walkable {
		s.state = StateFailed
		s.result = search.NotFound(0)
		return id
	}
	if startNode.ID == goalNode.ID {
		s.state = StateCompleted
		s.result = search.Trivial(req.Start)
		return id
	}

	s.startID, s.goalID = startNode.ID, goalNode.ID
	root := s.arena.Get(s.startID)
	n := &s.arena.Nodes[root]
	n.H = p.m.Heuristic(s.startID, s.goalID)
	n.F = n.H
	n.Opened = true
	s.open.Push(root)
	s.initialH = n.H
	s.bestH = n.H
	s.bestSlot = root
	return id
}

// Step expands up to maxIterations nodes; maxIterations <= 0 runs to the end.
// Terminal sessions are returned unchanged.
func (p *Pathfinder) Step(id SessionID, maxIterations int) (Progress, error) {
	s, err := p.lookup(id)
	if err != nil {
		return Progress{}, err
	}
	switch s.state {
	case StatePaused:
		return s.progress(), fmt.Errorf("%w: step while %s", ErrInvalidState, s.state)
	case StateCompleted, StateFailed, StateCancelled:
		return s.progress(), nil
	}
	s.state = StateInProgress
	s.framesUsed++

	for i := 0; maxIterations <= 0 || i < maxIterations; i++ {
		cur, ok := s.open.Pop()
		if !ok {
			p.fail(s)
			break
		}
		s.nodesSearched++
		if s.nodesSearched > s.maxNodes {
			p.log.Debug("session node budget exhausted",
				zap.Uint64("session", uint64(id)),
				zap.Int("max_nodes", s.maxNodes))
			p.fail(s)
			break
		}
		if s.arena.Nodes[cur].ID == s.goalID {
			p.complete(s, cur)
			break
		}
		p.expand(s, cur)
	}
	return s.progress(), nil
}

func (p *Pathfinder) expand(s *session, cur int32) {
	cn := &s.arena.Nodes[cur]
	cn.Closed = true
	curID, curG := cn.ID, cn.G

	p.nbuf = p.m.Neighbors(curID, p.nbuf[:0])
	for _, nid := range p.nbuf {
		slot := s.arena.Get(nid)
		nb := &s.arena.Nodes[slot]
		if nb.Closed {
			continue
		}
		tentative := curG + p.m.MovementCost(curID, nid)
		if !nb.Opened {
			nb.G = tentative
			nb.H = p.m.Heuristic(nid, s.goalID)
			nb.F = nb.G + nb.H
			nb.Parent = cur
			nb.Opened = true
			s.open.Push(slot)
			if nb.H < s.bestH {
				s.bestH = nb.H
				s.bestSlot = slot
			}
		} else if tentative < nb.G {
			nb.G = tentative
			nb.F = nb.G + nb.H
			nb.Parent = cur
			s.open.Update(slot)
		}
	}
}

func (p *Pathfinder) pathTo(s *session, slot int32) []core.Point {
	ids := s.arena.Trace(slot)
	path := make([]core.Point, len(ids))
	for i, nid := range ids {
		path[i] = p.m.Node(nid).Position
	}
	path[0] = s.req.Start
	return path
}

func (p *Pathfinder) complete(s *session, goal int32) {
	path := p.pathTo(s, goal)
	path[len(path)-1] = s.req.End
	s.state = StateCompleted
	s.result = search.Result{
		Found:         true,
		Path:          path,
		Cost:          s.arena.Nodes[goal].G,
		NodesSearched: s.nodesSearched,
		FramesUsed:    s.framesUsed,
	}
	s.open.Clear()
	if p.opts.UseCache && p.cache != nil {
		p.cache.Set(s.req.Start, s.req.End, s.result, p.mapVersion)
	}
}

func (p *Pathfinder) fail(s *session) {
	s.state = StateFailed
	s.result = search.Result{NodesSearched: s.nodesSearched, FramesUsed: s.framesUsed}
	if (s.req.AllowPartial || p.opts.AllowPartial) && s.bestSlot > 0 {
		s.result.Path = p.pathTo(s, s.bestSlot)
		s.result.Cost = s.arena.Nodes[s.bestSlot].G
		s.result.IsPartial = true
	}
	s.open.Clear()
}

// Pause suspends an idle or running session
func (p *Pathfinder) Pause(id SessionID) error {
	s, err := p.lookup(id)
	if err != nil {
		return err
	}
	if s.state != StateIdle && s.state != StateInProgress {
		return fmt.Errorf("%w: pause while %s", ErrInvalidState, s.state)
	}
	s.state = StatePaused
	return nil
}

// Resume continues a paused session
func (p *Pathfinder) Resume(id SessionID) error {
	s, err := p.lookup(id)
	if err != nil {
		return err
	}
	if s.state != StatePaused {
		return fmt.Errorf("%w: resume while %s", ErrInvalidState, s.state)
	}
	s.state = StateInProgress
	return nil
}

// Cancel stops a session that has not finished
func (p *Pathfinder) Cancel(id SessionID) error {
	s, err := p.lookup(id)
	if err != nil {
		return err
	}
	if s.state.Terminal() {
		return fmt.Errorf("%w: cancel while %s", ErrInvalidState, s.state)
	}
	s.state = StateCancelled
	s.result = search.Result{NodesSearched: s.nodesSearched, FramesUsed: s.framesUsed}
	s.open.Clear()
	return nil
}

// Result returns the outcome of a finished session
func (p *Pathfinder) Result(id SessionID) (search.Result, error) {
	s, err := p.lookup(id)
	if err != nil {
		return search.Result{}, err
	}
	if !s.state.Terminal() {
		return search.Result{}, fmt.Errorf("%w: result while %s", ErrInvalidState, s.state)
	}
	return s.result, nil
}

// Progress returns a snapshot of the session
func (p *Pathfinder) Progress(id SessionID) (Progress, error) {
	s, err := p.lookup(id)
	if err != nil {
		return Progress{}, err
	}
	return s.progress(), nil
}

// Request returns the request a session was opened with
func (p *Pathfinder) Request(id SessionID) (PathRequest, error) {
	s, err := p.lookup(id)
	if err != nil {
		return PathRequest{}, err
	}
	return s.req, nil
}

// Cleanup releases a session; its id becomes invalid
func (p *Pathfinder) Cleanup(id SessionID) error {
	if _, err := p.lookup(id); err != nil {
		return err
	}
	idx := id.index()
	s := p.slots[idx].s
	s.open.Clear()
	s.arena.Reset()
	p.slots[idx].live = false
	p.free = append(p.free, idx)
	return nil
}

// FindPath runs a whole search in one call
func (p *Pathfinder) FindPath(start, end core.Point) search.Result {
	id := p.RequestPath(PathRequest{Start: start, End: end})
	_, _ = p.Step(id, 0)
	res, _ := p.Result(id)
	_ = p.Cleanup(id)
	return res
}

// NotifyObstacleChange bumps the map version, drops cached paths through
// area and flags every live session that touched it. Returns the number of
// sessions flagged.
func (p *Pathfinder) NotifyObstacleChange(area core.Area) int {
	p.mapVersion++
	if p.cache != nil {
		p.cache.InvalidateRegion(area)
	}
	flagged := 0
	for i := range p.slots {
		sl := &p.slots[i]
		if !sl.live || sl.s.affected || sl.s.state == StateCancelled {
			continue
		}
		if sl.s.touches(p.m, area) {
			sl.s.affected = true
			flagged++
		}
	}
	if flagged > 0 {
		p.log.Debug("sessions affected by obstacle change",
			zap.Int("sessions", flagged),
			zap.Uint64("map_version", p.mapVersion))
	}
	return flagged
}
