package search

import "errors"

var (
	// ErrJPSRequiresDiagonal indicates JPS was given a 4-connected grid
	ErrJPSRequiresDiagonal = errors.New("search: jump point search requires an 8-connected grid")
	// ErrNilMap indicates a pathfinder constructed without a map
	ErrNilMap = errors.New("search: map must not be nil")
)
