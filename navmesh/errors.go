package navmesh

import "errors"

var (
	// ErrDegeneratePolygon indicates fewer than three vertices or zero area
	ErrDegeneratePolygon = errors.New("navmesh: degenerate polygon")
	// ErrUnknownPolygon indicates a polygon id not in the mesh
	ErrUnknownPolygon = errors.New("navmesh: unknown polygon")
	// ErrSelfConnection indicates a portal from a polygon to itself
	ErrSelfConnection = errors.New("navmesh: polygon cannot connect to itself")
)
