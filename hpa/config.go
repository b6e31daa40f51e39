package hpa

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lixenwraith/navcrowd/parameter"
)

// Config controls the abstraction
type Config struct {
	ClusterSize        int  `yaml:"cluster_size"`
	MaxEntranceWidth   int  `yaml:"max_entrance_width"`
	AnchorEntranceEnds bool `yaml:"anchor_entrance_ends"`
	LazyIntraEdges     bool `yaml:"lazy_intra_edges"`
	MaxLocalNodes      int  `yaml:"max_local_nodes"`

	Logger *zap.Logger `yaml:"-"`
}

// DefaultConfig returns the parameter defaults
func DefaultConfig() Config {
	return Config{
		ClusterSize:        parameter.HPAClusterSize,
		MaxEntranceWidth:   parameter.HPAMaxEntranceWidth,
		AnchorEntranceEnds: parameter.HPAAnchorEntranceEnds,
		LazyIntraEdges:     parameter.HPALazyIntraEdges,
		MaxLocalNodes:      parameter.HPAMaxLocalNodes,
	}
}

// Validate checks sizes
func (c Config) Validate() error {
	if c.ClusterSize < 2 {
		return fmt.Errorf("%w: %d", ErrInvalidClusterSize, c.ClusterSize)
	}
	if c.MaxEntranceWidth < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidEntranceWidth, c.MaxEntranceWidth)
	}
	return nil
}
