// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the test coordination platform.
var (
	// Counters.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testquiz_submissions_total",
			Help: "Total number of test submissions recorded",
		},
		[]string{"status"},
	)

	ApprovalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "testquiz_approvals_total",
			Help: "Total number of submissions approved",
		},
	)

	PointsCreditedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testquiz_points_credited_total",
			Help: "Total points credited to tester balances",
		},
		[]string{"source"}, // 'submission', 'flow_bonus', 'useful_feedback'
	)

	PointsDeductedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "testquiz_points_deducted_total",
			Help: "Total points deducted by resets",
		},
	)

	RewardClaimsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "testquiz_reward_claims_total",
			Help: "Total number of reward claims created",
		},
	)

	SeasonClosesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "testquiz_season_closes_total",
			Help: "Total number of season close operations",
		},
	)

	ReassignmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "testquiz_group_reassignments_total",
			Help: "Total number of branching group reassignments",
		},
	)

	UnlocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "testquiz_test_case_unlocks_total",
			Help: "Total number of on-fail test case unlocks",
		},
	)

	// Gauges.
	PendingSubmissions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "testquiz_pending_submissions",
			Help: "Current number of submissions awaiting approval",
		},
	)

	// Histograms.
	SubmissionPoints = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "testquiz_submission_points",
			Help:    "Points computed per submission",
			Buckets: prometheus.LinearBuckets(1, 1, 6), // 1 to 6 points
		},
	)
)
