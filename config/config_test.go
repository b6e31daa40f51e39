package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/navcrowd/postprocess"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Grid.Options().Diagonal)
	assert.True(t, cfg.Avoidance.AutoApply)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navcrowd.yaml")
	doc := `
log:
  level: debug
hpa:
  cluster_size: 16
cache:
  ttl: 45s
pathfinding:
  frame_budget: 2000
  smooth:
    mode: catmull
sim:
  agents: 40
  layout: maze
  maze:
    corridor: 3
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 16, cfg.HPA.ClusterSize)
	assert.Equal(t, def.HPA.MaxEntranceWidth, cfg.HPA.MaxEntranceWidth)
	assert.Equal(t, 45*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 2000, cfg.Pathfinding.FrameBudget)
	assert.Equal(t, def.Pathfinding.AgentIterations, cfg.Pathfinding.AgentIterations)
	assert.Equal(t, postprocess.ModeCatmull, cfg.Pathfinding.Smooth.Mode)
	assert.Equal(t, 40, cfg.Sim.Agents)
	assert.Equal(t, def.Sim.Width, cfg.Sim.Width)
	assert.Equal(t, LayoutMaze, cfg.Sim.Layout)
	assert.Equal(t, 3, cfg.Sim.Maze.Corridor)
	assert.Equal(t, def.Sim.Maze.Braiding, cfg.Sim.Maze.Braiding)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad level", "log:\n  level: loud\n"},
		{"cluster too small", "hpa:\n  cluster_size: 1\n"},
		{"smooth mode", "pathfinding:\n  smooth:\n    mode: spline\n"},
		{"time step", "avoidance:\n  solver:\n    time_step: 0\n"},
		{"sim size", "sim:\n  width: 0\n"},
		{"wall density", "sim:\n  wall_density: 1.5\n"},
		{"tick rate", "sim:\n  tick_rate: -1\n"},
		{"layout", "sim:\n  layout: caves\n"},
		{"braiding", "sim:\n  maze:\n    braiding: 2\n"},
		{"syntax", "sim: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			assert.Error(t, Parse([]byte(tt.doc), &cfg))
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Sim.Agents = 7
	cfg.Cache.TTL = 90 * time.Second

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "ttl: 1m30s")

	back := Default()
	require.NoError(t, Parse(data, &back))
	assert.Equal(t, 7, back.Sim.Agents)
	assert.Equal(t, cfg.Cache.TTL, back.Cache.TTL)
}
