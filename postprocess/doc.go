// Package postprocess turns search output into paths agents can follow:
// line-of-sight tests, smoothing and simplification, validation of the path
// ahead of an agent, and batching of obstacle changes into regions.
package postprocess
