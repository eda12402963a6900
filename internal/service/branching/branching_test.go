package branching

import (
	"testing"

	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/pkg/logger"
)

type mockTesterStore struct {
	groups map[uint]*uint
}

func (m *mockTesterStore) SetGroup(testerID uint, groupID *uint) error {
	if m.groups == nil {
		m.groups = make(map[uint]*uint)
	}
	m.groups[testerID] = groupID
	return nil
}

type mockSubmissionStore struct {
	subs  map[uint]*models.Submission
	saved *models.Submission
}

func (m *mockSubmissionStore) GetByID(id uint) (*models.Submission, error) {
	sub, ok := m.subs[id]
	if !ok {
		return nil, &notFoundError{}
	}
	return sub, nil
}

func (m *mockSubmissionStore) Save(sub *models.Submission) error {
	m.saved = sub
	return nil
}

type mockContentStore struct {
	cases map[uint]*models.TestCase
}

func (m *mockContentStore) GetTestCase(id uint) (*models.TestCase, error) {
	tc, ok := m.cases[id]
	if !ok {
		return nil, &notFoundError{}
	}
	return tc, nil
}

type notFoundError struct{}

func (e *notFoundError) Error() string { return "record not found" }

func groupPtr(id uint) *uint {
	return &id
}

func TestOutcomeEffects_FailedWithUnlockRule(t *testing.T) {
	unlockID := uint(42)
	tc := &models.TestCase{ID: 1, UnlockOnFailID: &unlockID}

	effects := OutcomeEffects(tc, models.SubmissionFailed)

	if effects.UnlockTestCase == nil || *effects.UnlockTestCase != 42 {
		t.Errorf("Expected unlock of test case 42, got %v", effects.UnlockTestCase)
	}
}

func TestOutcomeEffects_PassedProducesNothing(t *testing.T) {
	unlockID := uint(42)
	tc := &models.TestCase{ID: 1, UnlockOnFailID: &unlockID}

	effects := OutcomeEffects(tc, models.SubmissionPassed)

	if effects.UnlockTestCase != nil {
		t.Errorf("Expected no unlock on a passed outcome, got %d", *effects.UnlockTestCase)
	}
}

func TestOutcomeEffects_FailedWithoutRule(t *testing.T) {
	tc := &models.TestCase{ID: 1}

	effects := OutcomeEffects(tc, models.SubmissionFailed)

	if effects.UnlockTestCase != nil {
		t.Errorf("Expected no unlock without a rule, got %d", *effects.UnlockTestCase)
	}
}

func branchingFixture() (*mockTesterStore, *mockSubmissionStore, *mockContentStore) {
	testers := &mockTesterStore{}
	subs := &mockSubmissionStore{subs: map[uint]*models.Submission{
		100: {ID: 100, TesterID: 1, TestCaseID: 10},
	}}
	content := &mockContentStore{cases: map[uint]*models.TestCase{
		10: {
			ID:       10,
			Question: "Did the payment screen load?",
			Options: []models.BranchOption{
				{ID: 1, TestCaseID: 10, Label: "Yes", Action: models.BranchActionContinue},
				{ID: 2, TestCaseID: 10, Label: "No", Action: models.BranchActionReassign, TargetGroupID: groupPtr(7)},
			},
		},
	}}
	return testers, subs, content
}

func TestAnswerQuestion_ContinueHasNoEffect(t *testing.T) {
	testers, subs, content := branchingFixture()
	svc := NewServiceWithInterfaces(testers, subs, content, logger.Get())
	tester := &models.Tester{ID: 1}

	option, err := svc.AnswerQuestion(tester, 100, 1)
	if err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}

	if option.Action != models.BranchActionContinue {
		t.Errorf("Expected continue option, got %s", option.Action)
	}
	if len(testers.groups) != 0 {
		t.Error("Expected no group change on a continue answer")
	}
	if subs.saved != nil {
		t.Error("Expected no submission update on a continue answer")
	}
}

func TestAnswerQuestion_ReassignMovesTester(t *testing.T) {
	testers, subs, content := branchingFixture()
	svc := NewServiceWithInterfaces(testers, subs, content, logger.Get())
	tester := &models.Tester{ID: 1, GroupID: groupPtr(3)}

	option, err := svc.AnswerQuestion(tester, 100, 2)
	if err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}

	if option.TargetGroupID == nil || *option.TargetGroupID != 7 {
		t.Fatalf("Expected target group 7, got %v", option.TargetGroupID)
	}
	moved, ok := testers.groups[1]
	if !ok || moved == nil || *moved != 7 {
		t.Errorf("Expected tester moved to group 7, got %v", moved)
	}
	if tester.GroupID == nil || *tester.GroupID != 7 {
		t.Errorf("Expected in-memory tester group updated to 7, got %v", tester.GroupID)
	}
	if subs.saved == nil || !subs.saved.WasReassigned {
		t.Fatal("Expected submission annotated as reassigned")
	}
	if subs.saved.ReassignReason == "" {
		t.Error("Expected a reassign reason on the submission")
	}
}

func TestAnswerQuestion_RejectsForeignSubmission(t *testing.T) {
	testers, subs, content := branchingFixture()
	svc := NewServiceWithInterfaces(testers, subs, content, logger.Get())
	tester := &models.Tester{ID: 2}

	if _, err := svc.AnswerQuestion(tester, 100, 1); err == nil {
		t.Error("Expected error answering another tester's submission")
	}
}

func TestAnswerQuestion_UnknownOption(t *testing.T) {
	testers, subs, content := branchingFixture()
	svc := NewServiceWithInterfaces(testers, subs, content, logger.Get())
	tester := &models.Tester{ID: 1}

	if _, err := svc.AnswerQuestion(tester, 100, 99); err == nil {
		t.Error("Expected error for an option not on the test case")
	}
}
