package repository

import (
	"testing"

	"github.com/aimd54/testquiz/internal/models"
)

// createTestCase creates a test case in the database.
func createTestCase(t *testing.T, repo *ContentRepository, title string) *models.TestCase {
	t.Helper()

	tc := &models.TestCase{Title: title, Scenario: "do the thing", IsActive: true}
	if err := repo.CreateTestCase(tc); err != nil {
		t.Fatalf("Failed to create test case %s: %v", title, err)
	}
	return tc
}

func TestContentRepository_FlowTestCaseOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)

	first := createTestCase(t, repo, "login")
	second := createTestCase(t, repo, "checkout")
	third := createTestCase(t, repo, "logout")

	flow := &models.Flow{Name: "intro", IsActive: true}
	if err := repo.CreateFlow(flow); err != nil {
		t.Fatalf("CreateFlow failed: %v", err)
	}
	// Link in an order different from creation order.
	if err := repo.SetFlowTestCases(flow.ID, []uint{third.ID, first.ID, second.ID}); err != nil {
		t.Fatalf("SetFlowTestCases failed: %v", err)
	}

	loaded, err := repo.GetFlow(flow.ID)
	if err != nil {
		t.Fatalf("GetFlow failed: %v", err)
	}
	cases := loaded.OrderedTestCases()
	if len(cases) != 3 {
		t.Fatalf("Expected 3 test cases, got %d", len(cases))
	}
	if cases[0].ID != third.ID || cases[1].ID != first.ID || cases[2].ID != second.ID {
		t.Errorf("Expected linked order [%d %d %d], got [%d %d %d]",
			third.ID, first.ID, second.ID, cases[0].ID, cases[1].ID, cases[2].ID)
	}
}

func TestContentRepository_SetFlowTestCasesReplaces(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)

	first := createTestCase(t, repo, "login")
	second := createTestCase(t, repo, "checkout")

	flow := &models.Flow{Name: "intro", IsActive: true}
	if err := repo.CreateFlow(flow); err != nil {
		t.Fatalf("CreateFlow failed: %v", err)
	}
	if err := repo.SetFlowTestCases(flow.ID, []uint{first.ID, second.ID}); err != nil {
		t.Fatalf("SetFlowTestCases failed: %v", err)
	}
	if err := repo.SetFlowTestCases(flow.ID, []uint{second.ID}); err != nil {
		t.Fatalf("SetFlowTestCases replace failed: %v", err)
	}

	loaded, err := repo.GetFlow(flow.ID)
	if err != nil {
		t.Fatalf("GetFlow failed: %v", err)
	}
	if len(loaded.TestCases) != 1 || loaded.TestCases[0].TestCaseID != second.ID {
		t.Errorf("Expected only checkout linked, got %+v", loaded.TestCases)
	}
}

func TestContentRepository_VisibilityAssociation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)

	beta := &models.TesterGroup{Code: "beta", Name: "Beta Cohort"}
	vip := &models.TesterGroup{Code: "vip", Name: "VIP Cohort"}
	for _, g := range []*models.TesterGroup{beta, vip} {
		if err := repo.CreateGroup(g); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
	}

	tc := &models.TestCase{
		Title:     "beta checkout",
		Scenario:  "pay with the new flow",
		IsActive:  true,
		VisibleTo: []models.TesterGroup{*beta},
	}
	if err := repo.CreateTestCase(tc); err != nil {
		t.Fatalf("CreateTestCase failed: %v", err)
	}

	loaded, err := repo.GetTestCase(tc.ID)
	if err != nil {
		t.Fatalf("GetTestCase failed: %v", err)
	}
	if len(loaded.VisibleTo) != 1 || loaded.VisibleTo[0].Code != "beta" {
		t.Fatalf("Expected beta restriction, got %+v", loaded.VisibleTo)
	}

	// Replacing the restriction swaps the association set.
	loaded.VisibleTo = []models.TesterGroup{*vip}
	if err := repo.UpdateTestCase(loaded); err != nil {
		t.Fatalf("UpdateTestCase failed: %v", err)
	}
	updated, err := repo.GetTestCase(tc.ID)
	if err != nil {
		t.Fatalf("GetTestCase failed: %v", err)
	}
	if len(updated.VisibleTo) != 1 || updated.VisibleTo[0].Code != "vip" {
		t.Errorf("Expected vip restriction after update, got %+v", updated.VisibleTo)
	}
}

func TestContentRepository_Prerequisites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)

	intro := &models.Flow{Name: "intro", IsActive: true}
	advanced := &models.Flow{Name: "advanced", IsActive: true}
	for _, f := range []*models.Flow{intro, advanced} {
		if err := repo.CreateFlow(f); err != nil {
			t.Fatalf("CreateFlow failed: %v", err)
		}
	}

	if err := repo.SetFlowPrerequisites(advanced.ID, []uint{intro.ID}); err != nil {
		t.Fatalf("SetFlowPrerequisites failed: %v", err)
	}

	loaded, err := repo.GetFlow(advanced.ID)
	if err != nil {
		t.Fatalf("GetFlow failed: %v", err)
	}
	ids := loaded.PrerequisiteIDs()
	if len(ids) != 1 || ids[0] != intro.ID {
		t.Errorf("Expected prerequisite [%d], got %v", intro.ID, ids)
	}
}

func TestContentRepository_GetGroupByCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)

	group := &models.TesterGroup{Code: "beta", Name: "Beta Cohort"}
	if err := repo.CreateGroup(group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	found, err := repo.GetGroupByCode("beta")
	if err != nil {
		t.Fatalf("GetGroupByCode failed: %v", err)
	}
	if found.ID != group.ID {
		t.Errorf("Expected group %d, got %d", group.ID, found.ID)
	}

	if _, err := repo.GetGroupByCode("missing"); err == nil {
		t.Error("Expected error for an unknown code")
	}
}
