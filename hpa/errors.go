package hpa

import "errors"

var (
	// ErrInvalidClusterSize indicates a cluster side shorter than two cells
	ErrInvalidClusterSize = errors.New("hpa: cluster size must be at least 2")
	// ErrInvalidEntranceWidth indicates a non-positive entrance width
	ErrInvalidEntranceWidth = errors.New("hpa: max entrance width must be positive")
	// ErrNilGrid indicates a pathfinder constructed without a grid
	ErrNilGrid = errors.New("hpa: grid must not be nil")
)
