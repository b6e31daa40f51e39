// Package navmap defines the map capability consumed by every search algorithm
// and its grid implementation.
//
// A Map exposes nodes by id, neighbour enumeration, a heuristic and a movement
// cost. GridMap stores one walkable flag and one cost multiplier per cell and
// enumerates 4- or 8-connected neighbours; with AvoidCorners set a diagonal
// step is rejected when either orthogonal cell next to it is blocked.
package navmap
