package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PointsAwarded counts points granted to users, by scoring reason.
	PointsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codelearn_points_awarded_total",
		Help: "Total number of points awarded, by reason",
	}, []string{"reason"})

	// ContestSubmissions counts contest submissions by outcome.
	ContestSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codelearn_contest_submissions_total",
		Help: "Total number of contest submissions, by outcome",
	}, []string{"outcome"})

	// VersionConflicts counts optimistic concurrency conflicts by aggregate.
	VersionConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codelearn_version_conflicts_total",
		Help: "Total number of optimistic concurrency conflicts, by aggregate",
	}, []string{"aggregate"})

	// CacheLookups counts cache-aside lookups by key family and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codelearn_cache_lookups_total",
		Help: "Total number of cache-aside lookups, by key family and result",
	}, []string{"family", "result"})
)
