package system

import "errors"

var (
	// ErrNilGrid is returned when a system needs a grid and got none
	ErrNilGrid = errors.New("system: grid is nil")

	// ErrInvalidSmoothMode is returned for an unknown smoother name
	ErrInvalidSmoothMode = errors.New("system: unknown smooth mode")
)
