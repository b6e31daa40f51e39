// Package pathcache stores completed path results keyed by their endpoints.
// Entries are validated against the map version and an optional TTL.
package pathcache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lixenwraith/navcrowd/core"
	"github.com/lixenwraith/navcrowd/parameter"
	"github.com/lixenwraith/navcrowd/search"
)

// Key identifies a query by its endpoints
type Key struct {
	SX, SY, EX, EY int
}

// KeyOf builds the key for a start/end pair
func KeyOf(start, end core.Point) Key {
	return Key{SX: start.X, SY: start.Y, EX: end.X, EY: end.Y}
}

// Entry is a cached result
type Entry struct {
	Result     search.Result
	MapVersion uint64
	StoredAt   time.Time
	bounds     core.Area
}

// Config controls capacity and validation
type Config struct {
	MaxEntries       int           `yaml:"max_entries"`
	TTL              time.Duration `yaml:"ttl"`               // Zero disables expiry
	ApproximateRange int           `yaml:"approximate_range"` // Zero disables approximate matches
	Clock            core.Clock    `yaml:"-"`
}

// DefaultConfig returns the parameter defaults
func DefaultConfig() Config {
	return Config{
		MaxEntries:       parameter.CacheMaxEntries,
		TTL:              parameter.CacheTTL,
		ApproximateRange: parameter.CacheApproximateRange,
	}
}

// Stats counts cache traffic
type Stats struct {
	Hits          uint64
	ApproxHits    uint64
	Misses        uint64
	Evictions     uint64
	Invalidations uint64
	Size          int
}

// Cache is an LRU of path results
type Cache struct {
	cfg   Config
	lru   *lru.Cache[Key, *Entry]
	stats Stats
}

// New creates a cache; non-positive MaxEntries falls back to the default
func New(cfg Config) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = parameter.CacheMaxEntries
	}
	if cfg.Clock == nil {
		cfg.Clock = core.SystemClock{}
	}
	c, _ := lru.New[Key, *Entry](cfg.MaxEntries)
	return &Cache{cfg: cfg, lru: c}
}

// Set stores a found result. Failed results are not cached.
func (c *Cache) Set(start, end core.Point, res search.Result, mapVersion uint64) {
	if !res.Found || len(res.Path) == 0 {
		return
	}
	bounds := core.AreaOf(res.Path[0], res.Path[0])
	for _, p := range res.Path[1:] {
		bounds = bounds.Extend(p)
	}
	stored := res
	stored.Path = append([]core.Point(nil), res.Path...)
	stored.JumpPoints = nil
	if c.lru.Add(KeyOf(start, end), &Entry{
		Result:     stored,
		MapVersion: mapVersion,
		StoredAt:   c.cfg.Clock.Now(),
		bounds:     bounds,
	}) {
		c.stats.Evictions++
	}
}

// Get returns a copy of the cached result for start/end if it is still
// valid for mapVersion. With ApproximateRange set, a miss falls back to the
// entry with the nearest endpoints and patches its first and last waypoints.
func (c *Cache) Get(start, end core.Point, mapVersion uint64) (search.Result, bool) {
	if res, ok := c.lookup(KeyOf(start, end), mapVersion); ok {
		c.stats.Hits++
		return res, true
	}
	if r := c.cfg.ApproximateRange; r > 0 {
		if res, ok := c.approximate(start, end, mapVersion, r); ok {
			c.stats.ApproxHits++
			return res, true
		}
	}
	c.stats.Misses++
	return search.Result{}, false
}

func (c *Cache) lookup(key Key, mapVersion uint64) (search.Result, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return search.Result{}, false
	}
	if e.MapVersion != mapVersion || c.expired(e) {
		c.lru.Remove(key)
		c.stats.Invalidations++
		return search.Result{}, false
	}
	res := e.Result
	res.Path = append([]core.Point(nil), e.Result.Path...)
	return res, true
}

// approximate tries endpoint offsets in order of increasing distance
func (c *Cache) approximate(start, end core.Point, mapVersion uint64, r int) (search.Result, bool) {
	for d := 1; d <= r; d++ {
		for sdx := -d; sdx <= d; sdx++ {
			for sdy := -d; sdy <= d; sdy++ {
				for edx := -d; edx <= d; edx++ {
					for edy := -d; edy <= d; edy++ {
						if max(core.Abs(sdx), core.Abs(sdy), core.Abs(edx), core.Abs(edy)) != d {
							continue
						}
						key := Key{SX: start.X + sdx, SY: start.Y + sdy, EX: end.X + edx, EY: end.Y + edy}
						if !c.lru.Contains(key) {
							continue
						}
						res, ok := c.lookup(key, mapVersion)
						if !ok {
							continue
						}
						if len(res.Path) == 1 {
							res.Path = []core.Point{start, end}
						} else {
							res.Path[0] = start
							res.Path[len(res.Path)-1] = end
						}
						return res, true
					}
				}
			}
		}
	}
	return search.Result{}, false
}

func (c *Cache) expired(e *Entry) bool {
	return c.cfg.TTL > 0 && c.cfg.Clock.Now().Sub(e.StoredAt) > c.cfg.TTL
}

// InvalidateRegion drops every entry whose path passes through area and
// returns the number removed
func (c *Cache) InvalidateRegion(area core.Area) int {
	removed := 0
	for _, key := range c.lru.Keys() {
		e, ok := c.lru.Peek(key)
		if !ok || !e.bounds.Intersects(area) {
			continue
		}
		for _, p := range e.Result.Path {
			if area.ContainsPoint(p) {
				c.lru.Remove(key)
				removed++
				break
			}
		}
	}
	c.stats.Invalidations += uint64(removed)
	return removed
}

// Clear drops every entry
func (c *Cache) Clear() {
	c.lru.Purge()
}

// Len returns the number of stored entries
func (c *Cache) Len() int { return c.lru.Len() }

// Stats returns a snapshot of the counters
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Size = c.lru.Len()
	return s
}
