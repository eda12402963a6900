// Package ledger owns the points lifecycle: scoring a submission on
// intake, crediting the balance on approval, and the exact-inverse
// deductions on reset. Every balance mutation runs inside a single
// database transaction and invalidates the leaderboard cache.
package ledger

import (
	"context"
	"fmt"

	"github.com/aimd54/testquiz/internal/cache"
	"github.com/aimd54/testquiz/internal/config"
	"github.com/aimd54/testquiz/internal/metrics"
	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/internal/repository"
	"github.com/aimd54/testquiz/internal/service/branching"
	"github.com/aimd54/testquiz/internal/service/progression"
	"github.com/aimd54/testquiz/internal/service/visibility"
	"github.com/aimd54/testquiz/pkg/logger"
)

// Weights are the scoring components of a submission. Base is earned
// unconditionally; the rest only while the matching component is present
// and not rejected by an admin.
type Weights struct {
	Base       int
	Bug        int
	Feedback   int
	Screenshot int
	Useful     int
}

// WeightsFromConfig builds scoring weights from the points section.
func WeightsFromConfig(cfg config.PointsConfig) Weights {
	return Weights{
		Base:       cfg.Base,
		Bug:        cfg.Bug,
		Feedback:   cfg.Feedback,
		Screenshot: cfg.Screenshot,
		Useful:     cfg.Useful,
	}
}

// DefaultWeights returns the standard 1/3/1/1/1 scoring scheme.
func DefaultWeights() Weights {
	return Weights{Base: 1, Bug: 3, Feedback: 1, Screenshot: 1, Useful: 1}
}

// Service coordinates submissions, approvals, and resets over a shared
// database handle. Balance mutations open their own transaction via
// repository.DB.WithTx so the submission flags, the points column, and
// the flow progress always move together.
type Service struct {
	db      *repository.DB
	weights Weights
	cache   cache.Cache
	log     *logger.Logger
}

// NewService creates a new ledger service. The cache may be nil; balance
// mutations then skip leaderboard invalidation.
func NewService(db *repository.DB, weights Weights, c cache.Cache, log *logger.Logger) *Service {
	return &Service{
		db:      db,
		weights: weights,
		cache:   c,
		log:     log,
	}
}

// Compute scores a submission from its current component flags. The
// result depends only on the submission, so toggling a rejection flag and
// recomputing always lands on the same value the original components
// would have produced.
func (s *Service) Compute(sub *models.Submission) int {
	points := s.weights.Base
	if sub.Status == models.SubmissionFailed && !sub.RejectedBug {
		points += s.weights.Bug
	}
	if sub.HasFeedback() && !sub.RejectedFeedback {
		points += s.weights.Feedback
	}
	if sub.HasScreenshot() && !sub.RejectedScreenshot {
		points += s.weights.Screenshot
	}
	return points
}

// SubmitInput is a tester's test case submission.
type SubmitInput struct {
	TestCaseID uint
	Status     string
	Feedback   string
	Screenshot string
}

// Submit records a submission for a test case within a flow. Points are
// computed and stored pending on the record; the tester's balance does
// not move until an admin approves. A failed outcome on a test case with
// an unlock rule unlocks the target before progress is recomputed, so a
// flow that just grew a new visible test case is not marked complete.
func (s *Service) Submit(tester *models.Tester, flow *models.Flow, in SubmitInput) (*models.Submission, error) {
	if in.Status != models.SubmissionPassed && in.Status != models.SubmissionFailed {
		return nil, fmt.Errorf("invalid submission status %q", in.Status)
	}

	var target *models.TestCase
	for _, fc := range flow.TestCases {
		if fc.TestCaseID == in.TestCaseID {
			tc := fc.TestCase
			target = &tc
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("test case %d is not part of flow %d", in.TestCaseID, flow.ID)
	}
	if !visibility.IsVisible(tester, *target) {
		return nil, fmt.Errorf("test case %d is not visible to tester %d", target.ID, tester.ID)
	}

	sub := &models.Submission{
		TesterID:            tester.ID,
		TestCaseID:          target.ID,
		FlowID:              flow.ID,
		Status:              in.Status,
		Feedback:            in.Feedback,
		Screenshot:          in.Screenshot,
		GroupAtSubmissionID: tester.GroupID,
	}
	sub.PointsEarned = s.Compute(sub)

	err := s.db.WithTx(func(tx *repository.DB) error {
		subRepo := repository.NewSubmissionRepository(tx)
		testerRepo := repository.NewTesterRepository(tx)
		tracker := progression.NewTracker(repository.NewProgressRepository(tx), s.log)

		if err := subRepo.Create(sub); err != nil {
			return err
		}

		effects := branching.OutcomeEffects(target, in.Status)
		if effects.UnlockTestCase != nil {
			reason := fmt.Sprintf("failed test case %d", target.ID)
			if err := testerRepo.Unlock(tester.ID, *effects.UnlockTestCase, reason); err != nil {
				return err
			}
			sub.UnlockedTestCaseID = effects.UnlockTestCase
			if err := subRepo.Save(sub); err != nil {
				return err
			}
			tester.Unlocks = append(tester.Unlocks, models.TestCaseUnlock{
				TesterID:   tester.ID,
				TestCaseID: *effects.UnlockTestCase,
			})
			metrics.UnlocksTotal.Inc()
		}

		_, err := tracker.Advance(tester, flow, target.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.SubmissionsTotal.WithLabelValues(sub.Status).Inc()
	metrics.SubmissionPoints.Observe(float64(sub.PointsEarned))
	s.log.Info().
		Uint("tester_id", tester.ID).
		Uint("test_case_id", target.ID).
		Uint("flow_id", flow.ID).
		Str("status", sub.Status).
		Int("points_pending", sub.PointsEarned).
		Msg("Submission recorded")

	return sub, nil
}

// invalidateLeaderboard drops the cached standings after a balance change.
// Cache trouble is logged and swallowed; the database already holds the
// truth.
func (s *Service) invalidateLeaderboard() {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(context.Background(), cache.LeaderboardKey); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate leaderboard cache")
	}
}
