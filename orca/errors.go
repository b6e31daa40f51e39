package orca

import "errors"

var (
	// ErrDegenerateObstacle is returned for obstacles with fewer than two vertices
	ErrDegenerateObstacle = errors.New("orca: obstacle needs at least two vertices")

	// ErrInvalidTimeStep is returned for a non-positive solver time step
	ErrInvalidTimeStep = errors.New("orca: time step must be positive")
)
