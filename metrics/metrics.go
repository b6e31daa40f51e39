// Package metrics exposes prometheus collectors for the navigation schedulers
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "navcrowd"

// Replan reasons
const (
	ReasonRetarget   = "retarget"
	ReasonObstacle   = "obstacle"
	ReasonRevalidate = "revalidate"
	ReasonStale      = "stale"
)

var (
	PathsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pathfinding",
		Name:      "paths_completed_total",
		Help:      "Searches that reached their goal",
	})

	PathsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pathfinding",
		Name:      "paths_failed_total",
		Help:      "Searches that ended without reaching their goal",
	}, []string{"partial"})

	PathsFromCache = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pathfinding",
		Name:      "paths_from_cache_total",
		Help:      "Requests satisfied by the path cache",
	})

	Replans = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pathfinding",
		Name:      "replans_total",
		Help:      "Searches restarted for an agent, by reason",
	}, []string{"reason"})

	FrameIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pathfinding",
		Name:      "frame_iterations",
		Help:      "Node expansions spent per frame",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pathfinding",
		Name:      "active_sessions",
		Help:      "Live incremental search sessions",
	})

	BudgetExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pathfinding",
		Name:      "budget_exhausted_total",
		Help:      "Frames that ended with searches still waiting",
	})

	AvoidanceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "avoidance",
		Name:      "frame_seconds",
		Help:      "Time spent building the KD-tree and solving all agents",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
	})

	AvoidanceFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "avoidance",
		Name:      "fallbacks_total",
		Help:      "Solves whose constraints were infeasible",
	})

	AvoidanceAgents = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "avoidance",
		Name:      "agents",
		Help:      "Agents solved in the last frame",
	})
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
