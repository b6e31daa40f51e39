// Package hpa implements hierarchical pathfinding (HPA*) over a GridMap.
//
// The grid is partitioned into square clusters. Walkable spans on shared
// cluster boundaries become entrances; each entrance contributes one abstract
// node per side joined by an inter-cluster edge. Abstract nodes of the same
// cluster are joined by intra-cluster edges whose concrete paths come from a
// local A* restricted to the cluster. Queries search the abstract graph and
// splice the cached concrete paths back together.
//
// Paths are near-optimal: crossings are restricted to entrance cells.
package hpa
