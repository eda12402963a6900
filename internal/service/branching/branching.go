// Package branching applies post-submission side effects: on-fail test case
// unlocks and branching-question group reassignment.
package branching

import (
	"fmt"

	"github.com/aimd54/testquiz/internal/metrics"
	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/internal/repository"
	"github.com/aimd54/testquiz/pkg/logger"
)

// Effects is the side-effect list a submission outcome produces. Both
// mechanisms are evaluated once per submission, synchronously, before
// control returns to the tester.
type Effects struct {
	UnlockTestCase *uint
}

// OutcomeEffects computes the effects of a submission outcome on a test
// case. Only a failed outcome on a test case with an unlock rule produces
// anything; the branching question is answered in a separate step.
func OutcomeEffects(tc *models.TestCase, status string) Effects {
	var e Effects
	if status == models.SubmissionFailed && tc.UnlockOnFailID != nil {
		e.UnlockTestCase = tc.UnlockOnFailID
	}
	return e
}

// TesterStore interface for tester group membership.
type TesterStore interface {
	SetGroup(testerID uint, groupID *uint) error
}

// SubmissionStore interface for submission audit updates.
type SubmissionStore interface {
	GetByID(id uint) (*models.Submission, error)
	Save(sub *models.Submission) error
}

// ContentStore interface for test case lookups.
type ContentStore interface {
	GetTestCase(id uint) (*models.TestCase, error)
}

// Service handles branching-question answers.
type Service struct {
	testerRepo  TesterStore
	subRepo     SubmissionStore
	contentRepo ContentStore
	log         *logger.Logger
}

// NewService creates a new branching service with concrete repository types.
func NewService(
	testerRepo *repository.TesterRepository,
	subRepo *repository.SubmissionRepository,
	contentRepo *repository.ContentRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		testerRepo:  testerRepo,
		subRepo:     subRepo,
		contentRepo: contentRepo,
		log:         log,
	}
}

// NewServiceWithInterfaces creates a new branching service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(
	testerRepo TesterStore,
	subRepo SubmissionStore,
	contentRepo ContentStore,
	log *logger.Logger,
) *Service {
	return &Service{
		testerRepo:  testerRepo,
		subRepo:     subRepo,
		contentRepo: contentRepo,
		log:         log,
	}
}

// AnswerQuestion records a tester's answer to a test case's branching
// question. A 'reassign' option moves the tester into the target group
// immediately and annotates the triggering submission for audit. A
// 'continue' option has no effect.
func (s *Service) AnswerQuestion(tester *models.Tester, submissionID, optionID uint) (*models.BranchOption, error) {
	sub, err := s.subRepo.GetByID(submissionID)
	if err != nil {
		return nil, err
	}
	if sub.TesterID != tester.ID {
		return nil, fmt.Errorf("submission %d does not belong to tester %d", submissionID, tester.ID)
	}

	tc, err := s.contentRepo.GetTestCase(sub.TestCaseID)
	if err != nil {
		return nil, err
	}

	var option *models.BranchOption
	for i := range tc.Options {
		if tc.Options[i].ID == optionID {
			option = &tc.Options[i]
			break
		}
	}
	if option == nil {
		return nil, fmt.Errorf("option %d not found on test case %d", optionID, tc.ID)
	}

	if option.Action != models.BranchActionReassign || option.TargetGroupID == nil {
		return option, nil
	}

	if err := s.testerRepo.SetGroup(tester.ID, option.TargetGroupID); err != nil {
		return nil, err
	}

	sub.WasReassigned = true
	sub.ReassignReason = fmt.Sprintf("branching answer %q on test case %d", option.Label, tc.ID)
	if err := s.subRepo.Save(sub); err != nil {
		return nil, err
	}

	priorGroup := tester.GroupID
	tester.GroupID = option.TargetGroupID

	metrics.ReassignmentsTotal.Inc()
	event := s.log.Info().
		Uint("tester_id", tester.ID).
		Uint("submission_id", sub.ID).
		Uint("target_group", *option.TargetGroupID)
	if priorGroup != nil {
		event = event.Uint("prior_group", *priorGroup)
	}
	event.Msg("Tester reassigned via branching question")

	return option, nil
}
