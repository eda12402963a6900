package export

import (
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/internal/repository"
	"github.com/aimd54/testquiz/pkg/logger"
)

func setupExportTestDB(t *testing.T) *repository.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db := &repository.DB{DB: gdb}
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}
	return db
}

// seedCatalog builds a small catalog: two groups, three test cases with a
// visibility restriction, a branching question, an unlock link, and two
// flows chained by a prerequisite.
func seedCatalog(t *testing.T, db *repository.DB) {
	t.Helper()
	repo := repository.NewContentRepository(db)

	beta := &models.TesterGroup{Code: "beta", Name: "Beta Cohort"}
	vip := &models.TesterGroup{Code: "vip", Name: "VIP Cohort"}
	for _, g := range []*models.TesterGroup{beta, vip} {
		if err := repo.CreateGroup(g); err != nil {
			t.Fatalf("Failed to create group: %v", err)
		}
	}

	hidden := &models.TestCase{Title: "recovery path", Scenario: "recover after crash", IsHidden: true, IsActive: true}
	if err := repo.CreateTestCase(hidden); err != nil {
		t.Fatalf("Failed to create test case: %v", err)
	}
	login := &models.TestCase{
		Title:          "login",
		Scenario:       "log in with valid credentials",
		ExpectedResult: "dashboard loads",
		Points:         1,
		IsActive:       true,
		UnlockOnFailID: &hidden.ID,
		Question:       "Did the captcha appear?",
		Options: []models.BranchOption{
			{Label: "No", Action: models.BranchActionContinue},
			{Label: "Yes", Action: models.BranchActionReassign, TargetGroupID: &vip.ID},
		},
	}
	if err := repo.CreateTestCase(login); err != nil {
		t.Fatalf("Failed to create test case: %v", err)
	}
	restricted := &models.TestCase{
		Title:     "beta checkout",
		Scenario:  "pay with the new flow",
		IsActive:  true,
		VisibleTo: []models.TesterGroup{*beta},
	}
	if err := repo.CreateTestCase(restricted); err != nil {
		t.Fatalf("Failed to create test case: %v", err)
	}

	intro := &models.Flow{Name: "intro", CompletionBonus: 3, IsActive: true}
	if err := repo.CreateFlow(intro); err != nil {
		t.Fatalf("Failed to create flow: %v", err)
	}
	if err := repo.SetFlowTestCases(intro.ID, []uint{login.ID, hidden.ID}); err != nil {
		t.Fatalf("Failed to link test cases: %v", err)
	}

	advanced := &models.Flow{Name: "advanced", CompletionBonus: 5, IsActive: true}
	if err := repo.CreateFlow(advanced); err != nil {
		t.Fatalf("Failed to create flow: %v", err)
	}
	if err := repo.SetFlowTestCases(advanced.ID, []uint{restricted.ID}); err != nil {
		t.Fatalf("Failed to link test cases: %v", err)
	}
	if err := repo.SetFlowPrerequisites(advanced.ID, []uint{intro.ID}); err != nil {
		t.Fatalf("Failed to set prerequisites: %v", err)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	source := setupExportTestDB(t)
	seedCatalog(t, source)

	data, err := NewService(source, logger.Get()).Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	target := setupExportTestDB(t)
	summary, err := NewService(target, logger.Get()).Import(data)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if summary.Groups != 2 || summary.TestCases != 3 || summary.Flows != 2 {
		t.Fatalf("Expected 2/3/2 created, got %d/%d/%d", summary.Groups, summary.TestCases, summary.Flows)
	}

	repo := repository.NewContentRepository(target)
	flows, err := repo.ListFlows(false)
	if err != nil {
		t.Fatalf("Failed to list flows: %v", err)
	}
	var intro, advanced *models.Flow
	for i := range flows {
		switch flows[i].Name {
		case "intro":
			intro = &flows[i]
		case "advanced":
			advanced = &flows[i]
		}
	}
	if intro == nil || advanced == nil {
		t.Fatal("Expected both flows imported")
	}
	if len(intro.TestCases) != 2 || intro.TestCases[0].TestCase.Title != "login" {
		t.Errorf("Expected intro flow order preserved, got %+v", intro.TestCases)
	}
	if len(advanced.Prerequisites) != 1 || advanced.Prerequisites[0].PrerequisiteID != intro.ID {
		t.Errorf("Expected advanced to require intro, got %+v", advanced.Prerequisites)
	}

	login := &intro.TestCases[0].TestCase
	if login.UnlockOnFailID == nil {
		t.Fatal("Expected unlock link rewired")
	}
	unlocked, err := repo.GetTestCase(*login.UnlockOnFailID)
	if err != nil {
		t.Fatalf("Failed to load unlock target: %v", err)
	}
	if unlocked.Title != "recovery path" || !unlocked.IsHidden {
		t.Errorf("Expected hidden recovery path as unlock target, got %+v", unlocked)
	}

	if len(login.Options) != 2 {
		t.Fatalf("Expected 2 branch options, got %d", len(login.Options))
	}
	vip, err := repo.GetGroupByCode("vip")
	if err != nil {
		t.Fatalf("Failed to load vip group: %v", err)
	}
	var reassign *models.BranchOption
	for i := range login.Options {
		if login.Options[i].Action == models.BranchActionReassign {
			reassign = &login.Options[i]
		}
	}
	if reassign == nil || reassign.TargetGroupID == nil || *reassign.TargetGroupID != vip.ID {
		t.Errorf("Expected reassign option targeting vip, got %+v", reassign)
	}

	restricted := &advanced.TestCases[0].TestCase
	if len(restricted.VisibleTo) != 1 || restricted.VisibleTo[0].Code != "beta" {
		t.Errorf("Expected beta visibility preserved, got %+v", restricted.VisibleTo)
	}
}

func TestImport_ReusesExistingGroups(t *testing.T) {
	source := setupExportTestDB(t)
	seedCatalog(t, source)
	data, err := NewService(source, logger.Get()).Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	target := setupExportTestDB(t)
	existing := &models.TesterGroup{Code: "beta", Name: "Existing Beta"}
	if err := repository.NewContentRepository(target).CreateGroup(existing); err != nil {
		t.Fatalf("Failed to create group: %v", err)
	}

	summary, err := NewService(target, logger.Get()).Import(data)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if summary.Groups != 1 {
		t.Errorf("Expected only the missing group created, got %d", summary.Groups)
	}

	reused, err := repository.NewContentRepository(target).GetGroupByCode("beta")
	if err != nil {
		t.Fatalf("Failed to load group: %v", err)
	}
	if reused.ID != existing.ID || reused.Name != "Existing Beta" {
		t.Errorf("Expected existing beta group untouched, got %+v", reused)
	}
}

func TestImport_RejectsDanglingReference(t *testing.T) {
	target := setupExportTestDB(t)
	bundle := `
flows:
  - name: broken
    test_cases: [99]
`
	if _, err := NewService(target, logger.Get()).Import([]byte(bundle)); err == nil {
		t.Error("Expected error for a flow referencing a missing test case")
	}
}

func TestSubmissionsCSV(t *testing.T) {
	db := setupExportTestDB(t)
	contentRepo := repository.NewContentRepository(db)

	tc := &models.TestCase{Title: "login", Scenario: "log in", IsActive: true}
	if err := contentRepo.CreateTestCase(tc); err != nil {
		t.Fatalf("Failed to create test case: %v", err)
	}
	flow := &models.Flow{Name: "intro", IsActive: true}
	if err := contentRepo.CreateFlow(flow); err != nil {
		t.Fatalf("Failed to create flow: %v", err)
	}
	tester := &models.Tester{Username: "alice", Role: models.RoleTester, IsActive: true}
	if err := repository.NewTesterRepository(db).Create(tester); err != nil {
		t.Fatalf("Failed to create tester: %v", err)
	}
	sub := &models.Submission{
		TesterID:     tester.ID,
		TestCaseID:   tc.ID,
		FlowID:       flow.ID,
		Status:       models.SubmissionFailed,
		Feedback:     "broke, with \"quotes\" and, commas",
		PointsEarned: 5,
	}
	if err := repository.NewSubmissionRepository(db).Create(sub); err != nil {
		t.Fatalf("Failed to create submission: %v", err)
	}

	out, err := NewService(db, logger.Get()).SubmissionsCSV(repository.SubmissionFilter{})
	if err != nil {
		t.Fatalf("SubmissionsCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header plus one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,tester,test_case,flow,status") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "alice") || !strings.Contains(lines[1], "failed") {
		t.Errorf("Expected row with tester and status, got %s", lines[1])
	}
	if !strings.Contains(lines[1], `"broke, with ""quotes"" and, commas"`) {
		t.Errorf("Expected feedback quoted, got %s", lines[1])
	}
}
