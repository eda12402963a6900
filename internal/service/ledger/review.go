package ledger

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aimd54/testquiz/internal/metrics"
	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/internal/repository"
	"github.com/aimd54/testquiz/internal/service/progression"
)

// Scoring components an admin can reject or restore on a submission.
const (
	ComponentBug        = "bug"
	ComponentFeedback   = "feedback"
	ComponentScreenshot = "screenshot"
)

// Approve credits a submission's pending points to the tester's balance
// and marks them awarded. Approving an already-awarded submission is a
// silent no-op, so repeated clicks cannot double-credit. When this
// approval is the last one of a completed flow, the flow's completion
// bonus is credited in the same transaction.
func (s *Service) Approve(submissionID uint) (*models.Submission, error) {
	var sub *models.Submission
	credited := false

	err := s.db.WithTx(func(tx *repository.DB) error {
		subRepo := repository.NewSubmissionRepository(tx)
		testerRepo := repository.NewTesterRepository(tx)
		progressRepo := repository.NewProgressRepository(tx)
		contentRepo := repository.NewContentRepository(tx)

		var err error
		sub, err = subRepo.GetByID(submissionID)
		if err != nil {
			return err
		}
		if sub.PointsAwarded {
			return nil
		}

		sub.PointsAwarded = true
		if err := subRepo.Save(sub); err != nil {
			return err
		}
		if err := testerRepo.AddPoints(sub.TesterID, sub.PointsEarned); err != nil {
			return err
		}
		credited = true
		metrics.PointsCreditedTotal.WithLabelValues("submission").Add(float64(sub.PointsEarned))

		return s.maybeAwardBonus(subRepo, testerRepo, progressRepo, contentRepo, sub)
	})
	if err != nil {
		return nil, err
	}

	if credited {
		metrics.ApprovalsTotal.Inc()
		s.invalidateLeaderboard()
		s.log.Info().
			Uint("submission_id", sub.ID).
			Uint("tester_id", sub.TesterID).
			Int("points", sub.PointsEarned).
			Msg("Submission approved")
	}
	return sub, nil
}

// maybeAwardBonus credits the flow completion bonus once per (tester,
// flow): the flow must be completed and every submission the tester made
// in it approved. Approval order does not matter, only the last approval
// of a completed flow passes all three checks.
func (s *Service) maybeAwardBonus(
	subRepo *repository.SubmissionRepository,
	testerRepo *repository.TesterRepository,
	progressRepo *repository.ProgressRepository,
	contentRepo *repository.ContentRepository,
	sub *models.Submission,
) error {
	progress, err := progressRepo.Get(sub.TesterID, sub.FlowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if !progress.IsCompleted || progress.BonusAwarded {
		return nil
	}

	subs, err := subRepo.ListByTesterFlow(sub.TesterID, sub.FlowID)
	if err != nil {
		return err
	}
	for _, other := range subs {
		if !other.PointsAwarded {
			return nil
		}
	}

	flow, err := contentRepo.GetFlowSummary(sub.FlowID)
	if err != nil {
		return err
	}
	if err := progressRepo.SetBonusAwarded(progress.ID, true); err != nil {
		return err
	}
	if err := testerRepo.AddPoints(sub.TesterID, flow.CompletionBonus); err != nil {
		return err
	}

	metrics.PointsCreditedTotal.WithLabelValues("flow_bonus").Add(float64(flow.CompletionBonus))
	s.log.Info().
		Uint("tester_id", sub.TesterID).
		Uint("flow_id", sub.FlowID).
		Int("bonus", flow.CompletionBonus).
		Msg("Flow completion bonus awarded")
	return nil
}

// MarkUseful flags a submission's feedback as useful and credits the
// bonus immediately, independent of approval. One-shot: a submission
// already flagged is left untouched.
func (s *Service) MarkUseful(submissionID uint) (*models.Submission, error) {
	var sub *models.Submission
	credited := false

	err := s.db.WithTx(func(tx *repository.DB) error {
		subRepo := repository.NewSubmissionRepository(tx)
		testerRepo := repository.NewTesterRepository(tx)

		var err error
		sub, err = subRepo.GetByID(submissionID)
		if err != nil {
			return err
		}
		if sub.IsUsefulFeedback {
			return nil
		}

		sub.IsUsefulFeedback = true
		if err := subRepo.Save(sub); err != nil {
			return err
		}
		if err := testerRepo.AddPoints(sub.TesterID, s.weights.Useful); err != nil {
			return err
		}
		credited = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if credited {
		metrics.PointsCreditedTotal.WithLabelValues("useful_feedback").Add(float64(s.weights.Useful))
		s.invalidateLeaderboard()
		s.log.Info().
			Uint("submission_id", sub.ID).
			Uint("tester_id", sub.TesterID).
			Msg("Useful feedback credited")
	}
	return sub, nil
}

// ToggleComponent flips a rejection flag on one scoring component. While
// the submission is still pending, the stored points are recomputed so
// approval credits the reviewed value. Once points are awarded the flag
// still flips for the record, but the earned value and the balance stay
// as credited.
func (s *Service) ToggleComponent(submissionID uint, component string) (*models.Submission, error) {
	sub, err := repository.NewSubmissionRepository(s.db).GetByID(submissionID)
	if err != nil {
		return nil, err
	}

	switch component {
	case ComponentBug:
		sub.RejectedBug = !sub.RejectedBug
	case ComponentFeedback:
		sub.RejectedFeedback = !sub.RejectedFeedback
	case ComponentScreenshot:
		sub.RejectedScreenshot = !sub.RejectedScreenshot
	default:
		return nil, fmt.Errorf("unknown scoring component %q", component)
	}

	if !sub.PointsAwarded {
		sub.PointsEarned = s.Compute(sub)
	}
	if err := repository.NewSubmissionRepository(s.db).Save(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// SetAdminNotes replaces the reviewer notes on a submission.
func (s *Service) SetAdminNotes(submissionID uint, notes string) (*models.Submission, error) {
	subRepo := repository.NewSubmissionRepository(s.db)
	sub, err := subRepo.GetByID(submissionID)
	if err != nil {
		return nil, err
	}
	sub.AdminNotes = notes
	if err := subRepo.Save(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Rerun reopens a test case for the tester without touching the
// submission or the balance: the test case leaves the completed set and
// the flow drops its completion flag, while an already-awarded bonus
// stands. The tester repeats the test case and the new submission is
// reviewed on its own.
func (s *Service) Rerun(submissionID uint) error {
	sub, err := repository.NewSubmissionRepository(s.db).GetByID(submissionID)
	if err != nil {
		return err
	}

	progressRepo := repository.NewProgressRepository(s.db)
	progress, err := progressRepo.Get(sub.TesterID, sub.FlowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	tracker := progression.NewTracker(progressRepo, s.log)
	if err := tracker.ResetTestCase(progress, sub.TestCaseID, false); err != nil {
		return err
	}

	s.log.Info().
		Uint("submission_id", sub.ID).
		Uint("tester_id", sub.TesterID).
		Uint("test_case_id", sub.TestCaseID).
		Msg("Test case reopened for rerun")
	return nil
}

// Reset deletes a submission and restores the balance to its
// pre-submission state: awarded points come back off, a credited
// useful-feedback bonus comes back off, and a completion bonus awarded
// for the flow is revoked together with its progress flag. The test case
// returns to the tester's open set.
func (s *Service) Reset(submissionID uint) error {
	var deducted int
	var testerID uint

	err := s.db.WithTx(func(tx *repository.DB) error {
		subRepo := repository.NewSubmissionRepository(tx)
		testerRepo := repository.NewTesterRepository(tx)
		progressRepo := repository.NewProgressRepository(tx)
		contentRepo := repository.NewContentRepository(tx)

		sub, err := subRepo.GetByID(submissionID)
		if err != nil {
			return err
		}
		testerID = sub.TesterID

		deduction := 0
		if sub.PointsAwarded {
			deduction += sub.PointsEarned
		}
		if sub.IsUsefulFeedback {
			deduction += s.weights.Useful
		}

		progress, err := progressRepo.Get(sub.TesterID, sub.FlowID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if progress != nil {
			if progress.BonusAwarded {
				flow, err := contentRepo.GetFlowSummary(sub.FlowID)
				if err != nil {
					return err
				}
				deduction += flow.CompletionBonus
			}
			tracker := progression.NewTracker(progressRepo, s.log)
			if err := tracker.ResetTestCase(progress, sub.TestCaseID, true); err != nil {
				return err
			}
		}

		if deduction > 0 {
			if err := testerRepo.AddPoints(sub.TesterID, -deduction); err != nil {
				return err
			}
		}
		if err := subRepo.Delete(sub.ID); err != nil {
			return err
		}

		deducted = deduction
		return nil
	})
	if err != nil {
		return err
	}

	if deducted > 0 {
		metrics.PointsDeductedTotal.Add(float64(deducted))
		s.invalidateLeaderboard()
	}
	s.log.Info().
		Uint("submission_id", submissionID).
		Uint("tester_id", testerID).
		Int("deducted", deducted).
		Msg("Submission reset")
	return nil
}

// ResetFlow wipes a tester's run of a flow: every submission goes, the
// progress record goes, and the balance drops by the sum of all stored
// submission points plus the completion bonus if it was awarded.
func (s *Service) ResetFlow(testerID, flowID uint) error {
	var deducted int

	err := s.db.WithTx(func(tx *repository.DB) error {
		subRepo := repository.NewSubmissionRepository(tx)
		testerRepo := repository.NewTesterRepository(tx)
		progressRepo := repository.NewProgressRepository(tx)
		contentRepo := repository.NewContentRepository(tx)

		subs, err := subRepo.ListByTesterFlow(testerID, flowID)
		if err != nil {
			return err
		}
		deduction := 0
		for _, sub := range subs {
			deduction += sub.PointsEarned
		}

		progress, err := progressRepo.Get(testerID, flowID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if progress != nil {
			if progress.BonusAwarded {
				flow, err := contentRepo.GetFlowSummary(flowID)
				if err != nil {
					return err
				}
				deduction += flow.CompletionBonus
			}
			if err := progressRepo.Delete(progress.ID); err != nil {
				return err
			}
		}

		if err := subRepo.DeleteByTesterFlow(testerID, flowID); err != nil {
			return err
		}
		if deduction > 0 {
			if err := testerRepo.AddPoints(testerID, -deduction); err != nil {
				return err
			}
		}

		deducted = deduction
		return nil
	})
	if err != nil {
		return err
	}

	if deducted > 0 {
		metrics.PointsDeductedTotal.Add(float64(deducted))
		s.invalidateLeaderboard()
	}
	s.log.Info().
		Uint("tester_id", testerID).
		Uint("flow_id", flowID).
		Int("deducted", deducted).
		Msg("Flow reset")
	return nil
}
