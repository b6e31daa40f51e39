package navmap

import "errors"

var (
	// ErrInvalidDimensions indicates a grid with non-positive width or height
	ErrInvalidDimensions = errors.New("navmap: grid dimensions must be positive")
	// ErrInvalidCost indicates a cell cost below 1, which would break heuristic admissibility
	ErrInvalidCost = errors.New("navmap: cell cost must be >= 1")
	// ErrOutOfBounds indicates a cell coordinate outside the grid
	ErrOutOfBounds = errors.New("navmap: coordinate out of bounds")
	// ErrRaggedRows indicates a text map whose rows differ in length
	ErrRaggedRows = errors.New("navmap: all rows must have the same length")
	// ErrMazeTooSmall indicates a maze area that cannot hold one room and its walls
	ErrMazeTooSmall = errors.New("navmap: maze needs at least 3x3 corridor cells")
)
