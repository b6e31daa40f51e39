// Package config aggregates every component configuration into one YAML
// document. Unset keys keep their defaults.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/navcrowd/hpa"
	"github.com/lixenwraith/navcrowd/incremental"
	"github.com/lixenwraith/navcrowd/logging"
	"github.com/lixenwraith/navcrowd/navmap"
	"github.com/lixenwraith/navcrowd/parameter"
	"github.com/lixenwraith/navcrowd/pathcache"
	"github.com/lixenwraith/navcrowd/search"
	"github.com/lixenwraith/navcrowd/system"
)

var (
	ErrInvalidSim  = errors.New("config: invalid simulation settings")
	ErrInvalidGrid = errors.New("config: invalid grid settings")
)

// Demo layouts
const (
	LayoutRandom = "random" // Independent walls at WallDensity
	LayoutMaze   = "maze"   // Carved maze, see SimConfig.Maze
)

// GridConfig is the serialisable part of navmap.GridOptions
type GridConfig struct {
	Diagonal     bool    `yaml:"diagonal"`
	AvoidCorners bool    `yaml:"avoid_corners"`
	DiagonalCost float64 `yaml:"diagonal_cost"`
}

// Options converts to grid options; the heuristic follows connectivity
func (g GridConfig) Options() navmap.GridOptions {
	return navmap.GridOptions{
		Diagonal:     g.Diagonal,
		AvoidCorners: g.AvoidCorners,
		DiagonalCost: g.DiagonalCost,
	}
}

// SimConfig drives the demo world
type SimConfig struct {
	Width       int               `yaml:"width"`
	Height      int               `yaml:"height"`
	Agents      int               `yaml:"agents"`
	Seed        int64             `yaml:"seed"`
	TickRate    int               `yaml:"tick_rate"`    // Frames per second
	Layout      string            `yaml:"layout"`       // random or maze
	WallDensity float64           `yaml:"wall_density"` // Fraction of cells blocked by the random layout
	Maze        navmap.MazeConfig `yaml:"maze"`
}

// Config is the root document
type Config struct {
	Log         logging.Config           `yaml:"log"`
	Grid        GridConfig               `yaml:"grid"`
	Search      search.Options           `yaml:"search"`
	HPA         hpa.Config               `yaml:"hpa"`
	Incremental incremental.Options      `yaml:"incremental"`
	Cache       pathcache.Config         `yaml:"cache"`
	Pathfinding system.PathfindingConfig `yaml:"pathfinding"`
	Steering    system.SteeringConfig    `yaml:"steering"`
	Avoidance   system.AvoidanceConfig   `yaml:"avoidance"`
	Sim         SimConfig                `yaml:"sim"`
}

// Default returns every component default
func Default() Config {
	grid := navmap.DefaultGridOptions()
	return Config{
		Log: logging.DefaultConfig(),
		Grid: GridConfig{
			Diagonal:     grid.Diagonal,
			AvoidCorners: grid.AvoidCorners,
			DiagonalCost: grid.DiagonalCost,
		},
		Search:      search.DefaultOptions(),
		HPA:         hpa.DefaultConfig(),
		Incremental: incremental.DefaultOptions(),
		Cache:       pathcache.DefaultConfig(),
		Pathfinding: system.DefaultPathfindingConfig(),
		Steering:    system.DefaultSteeringConfig(),
		Avoidance:   system.DefaultAvoidanceConfig(),
		Sim: SimConfig{
			Width:       parameter.SimWidth,
			Height:      parameter.SimHeight,
			Agents:      parameter.SimAgents,
			Seed:        parameter.SimSeed,
			TickRate:    parameter.SimTickRate,
			Layout:      LayoutRandom,
			WallDensity: parameter.SimWallDensity,
			Maze: navmap.MazeConfig{
				Braiding: parameter.SimMazeBraiding,
				Corridor: parameter.SimMazeCorridor,
			},
		},
	}
}

// Load reads path over the defaults and validates the result
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over cfg in place and validates
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// Marshal renders the configuration as YAML
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks every section. Pathfinding budgets that are not positive
// are replaced with defaults.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if c.Grid.DiagonalCost < 0 {
		return fmt.Errorf("%w: diagonal cost %.3f", ErrInvalidGrid, c.Grid.DiagonalCost)
	}
	if err := c.HPA.Validate(); err != nil {
		return err
	}
	if err := c.Pathfinding.Validate(); err != nil {
		return err
	}
	if err := c.Avoidance.Solver.Validate(); err != nil {
		return err
	}
	s := c.Sim
	switch {
	case s.Width <= 0 || s.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidSim, s.Width, s.Height)
	case s.Agents < 0:
		return fmt.Errorf("%w: agents %d", ErrInvalidSim, s.Agents)
	case s.TickRate <= 0:
		return fmt.Errorf("%w: tick rate %d", ErrInvalidSim, s.TickRate)
	case s.Layout != LayoutRandom && s.Layout != LayoutMaze:
		return fmt.Errorf("%w: layout %q", ErrInvalidSim, s.Layout)
	case s.WallDensity < 0 || s.WallDensity >= 1:
		return fmt.Errorf("%w: wall density %.2f", ErrInvalidSim, s.WallDensity)
	case s.Maze.Braiding < 0 || s.Maze.Braiding > 1:
		return fmt.Errorf("%w: maze braiding %.2f", ErrInvalidSim, s.Maze.Braiding)
	}
	return nil
}
