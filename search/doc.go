// Package search implements the base pathfinders: a generic A* over any
// navmap.Map, a flat-array grid A* with an optional bidirectional mode, and
// Jump Point Search for uniform-cost grids.
//
// All pathfinders report failure through Result.Found rather than errors.
// Search state is kept in arenas indexed by int32, parents are arena indices,
// and the open list is a pqueue.Heap over those indices.
package search
