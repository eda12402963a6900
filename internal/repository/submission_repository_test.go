package repository

import (
	"testing"
	"time"

	"github.com/aimd54/testquiz/internal/models"
)

// submissionFixture seeds a tester, a flow with one test case, and returns
// the three IDs most tests need.
func submissionFixture(t *testing.T, db *DB) (testerID, flowID, testCaseID uint) {
	t.Helper()

	tester := createTester(t, NewTesterRepository(db), "alice", 0)
	content := NewContentRepository(db)
	tc := createTestCase(t, content, "login")
	flow := &models.Flow{Name: "intro", IsActive: true}
	if err := content.CreateFlow(flow); err != nil {
		t.Fatalf("CreateFlow failed: %v", err)
	}
	if err := content.SetFlowTestCases(flow.ID, []uint{tc.ID}); err != nil {
		t.Fatalf("SetFlowTestCases failed: %v", err)
	}
	return tester.ID, flow.ID, tc.ID
}

// createSubmission writes a submission with an explicit creation time so
// ordering assertions do not depend on clock resolution.
func createSubmission(t *testing.T, repo *SubmissionRepository, sub *models.Submission, at time.Time) *models.Submission {
	t.Helper()

	sub.CreatedAt = at
	if err := repo.Create(sub); err != nil {
		t.Fatalf("Failed to create submission: %v", err)
	}
	return sub
}

func TestSubmissionRepository_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	testerID, flowID, testCaseID := submissionFixture(t, db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	passed := createSubmission(t, repo, &models.Submission{
		TesterID: testerID, FlowID: flowID, TestCaseID: testCaseID,
		Status: models.SubmissionPassed, PointsEarned: 1,
	}, base)
	failed := createSubmission(t, repo, &models.Submission{
		TesterID: testerID, FlowID: flowID, TestCaseID: testCaseID,
		Status: models.SubmissionFailed, PointsEarned: 4, PointsAwarded: true,
	}, base.Add(time.Minute))

	all, err := repo.List(SubmissionFilter{TesterID: testerID})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 submissions, got %d", len(all))
	}
	// Newest first.
	if all[0].ID != failed.ID || all[1].ID != passed.ID {
		t.Errorf("Expected order [%d %d], got [%d %d]", failed.ID, passed.ID, all[0].ID, all[1].ID)
	}
	if all[0].Tester.Username != "alice" || all[0].Flow.Name != "intro" {
		t.Errorf("Expected tester and flow preloaded, got %+v", all[0])
	}

	byStatus, err := repo.List(SubmissionFilter{Status: models.SubmissionFailed})
	if err != nil {
		t.Fatalf("List by status failed: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != failed.ID {
		t.Errorf("Expected only the failed submission, got %+v", byStatus)
	}

	pending := false
	pendingOnly, err := repo.List(SubmissionFilter{Approved: &pending})
	if err != nil {
		t.Fatalf("List by approval failed: %v", err)
	}
	if len(pendingOnly) != 1 || pendingOnly[0].ID != passed.ID {
		t.Errorf("Expected only the pending submission, got %+v", pendingOnly)
	}

	none, err := repo.List(SubmissionFilter{TesterID: testerID + 100})
	if err != nil {
		t.Fatalf("List for unknown tester failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no submissions, got %d", len(none))
	}
}

func TestSubmissionRepository_ListByTesterFlow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	testerID, flowID, testCaseID := submissionFixture(t, db)

	otherFlow := &models.Flow{Name: "advanced", IsActive: true}
	if err := NewContentRepository(db).CreateFlow(otherFlow); err != nil {
		t.Fatalf("CreateFlow failed: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	createSubmission(t, repo, &models.Submission{
		TesterID: testerID, FlowID: flowID, TestCaseID: testCaseID, Status: models.SubmissionPassed,
	}, base)
	createSubmission(t, repo, &models.Submission{
		TesterID: testerID, FlowID: otherFlow.ID, TestCaseID: testCaseID, Status: models.SubmissionPassed,
	}, base)

	subs, err := repo.ListByTesterFlow(testerID, flowID)
	if err != nil {
		t.Fatalf("ListByTesterFlow failed: %v", err)
	}
	if len(subs) != 1 || subs[0].FlowID != flowID {
		t.Errorf("Expected one submission in flow %d, got %+v", flowID, subs)
	}
}

func TestSubmissionRepository_DeleteByTesterFlow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	testerID, flowID, testCaseID := submissionFixture(t, db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	createSubmission(t, repo, &models.Submission{
		TesterID: testerID, FlowID: flowID, TestCaseID: testCaseID, Status: models.SubmissionPassed,
	}, base)
	createSubmission(t, repo, &models.Submission{
		TesterID: testerID, FlowID: flowID, TestCaseID: testCaseID, Status: models.SubmissionFailed,
	}, base.Add(time.Minute))

	if err := repo.DeleteByTesterFlow(testerID, flowID); err != nil {
		t.Fatalf("DeleteByTesterFlow failed: %v", err)
	}

	subs, err := repo.ListByTesterFlow(testerID, flowID)
	if err != nil {
		t.Fatalf("ListByTesterFlow failed: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("Expected no submissions after delete, got %d", len(subs))
	}
}

func TestSubmissionRepository_Recent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	testerID, flowID, testCaseID := submissionFixture(t, db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var last *models.Submission
	for i := 0; i < 5; i++ {
		last = createSubmission(t, repo, &models.Submission{
			TesterID: testerID, FlowID: flowID, TestCaseID: testCaseID, Status: models.SubmissionPassed,
		}, base.Add(time.Duration(i)*time.Minute))
	}

	recent, err := repo.Recent(3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 submissions, got %d", len(recent))
	}
	if recent[0].ID != last.ID {
		t.Errorf("Expected newest submission %d first, got %d", last.ID, recent[0].ID)
	}
}
