package visibility

import (
	"testing"

	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/pkg/logger"
)

type mockProgressRepository struct {
	progresses []models.FlowProgress
}

func (m *mockProgressRepository) ListByTester(testerID uint) ([]models.FlowProgress, error) {
	var result []models.FlowProgress
	for _, p := range m.progresses {
		if p.TesterID == testerID {
			result = append(result, p)
		}
	}
	return result, nil
}

func groupPtr(id uint) *uint {
	return &id
}

func TestVisibleTestCases_PublicAndHidden(t *testing.T) {
	tester := &models.Tester{ID: 1}
	cases := []models.TestCase{
		{ID: 10, Title: "login"},
		{ID: 11, Title: "secret", IsHidden: true},
		{ID: 12, Title: "checkout"},
	}

	visible := VisibleTestCases(tester, cases)

	if len(visible) != 2 {
		t.Fatalf("Expected 2 visible test cases, got %d", len(visible))
	}
	if visible[0].ID != 10 || visible[1].ID != 12 {
		t.Errorf("Expected flow order [10 12], got [%d %d]", visible[0].ID, visible[1].ID)
	}
}

func TestVisibleTestCases_UnlockOverridesHidden(t *testing.T) {
	tester := &models.Tester{
		ID:      1,
		Unlocks: []models.TestCaseUnlock{{TesterID: 1, TestCaseID: 11}},
	}
	cases := []models.TestCase{
		{ID: 10},
		{ID: 11, IsHidden: true},
	}

	visible := VisibleTestCases(tester, cases)

	if len(visible) != 2 {
		t.Fatalf("Expected unlocked hidden test case to be visible, got %d cases", len(visible))
	}
	if visible[1].ID != 11 {
		t.Errorf("Expected test case 11 visible after unlock, got %d", visible[1].ID)
	}
}

func TestVisibleTestCases_GroupRestriction(t *testing.T) {
	restricted := models.TestCase{
		ID:        20,
		VisibleTo: []models.TesterGroup{{ID: 5, Code: "beta"}},
	}

	member := &models.Tester{ID: 1, GroupID: groupPtr(5)}
	outsider := &models.Tester{ID: 2, GroupID: groupPtr(6)}
	groupless := &models.Tester{ID: 3}

	if !IsVisible(member, restricted) {
		t.Error("Expected group member to see restricted test case")
	}
	if IsVisible(outsider, restricted) {
		t.Error("Expected non-member to be excluded")
	}
	if IsVisible(groupless, restricted) {
		t.Error("Expected group-less tester to be excluded from group-restricted test case")
	}
}

func TestVisibleTestCases_UnlockOverridesGroupRestriction(t *testing.T) {
	restricted := models.TestCase{
		ID:        20,
		VisibleTo: []models.TesterGroup{{ID: 5}},
	}
	tester := &models.Tester{
		ID:      3,
		Unlocks: []models.TestCaseUnlock{{TesterID: 3, TestCaseID: 20}},
	}

	if !IsVisible(tester, restricted) {
		t.Error("Expected unlocked test case to be visible regardless of group restriction")
	}
}

func TestCanStartFlow_NoPrerequisites(t *testing.T) {
	svc := NewServiceWithInterfaces(&mockProgressRepository{}, logger.Get())

	ok, err := svc.CanStartFlow(1, &models.Flow{ID: 1})
	if err != nil {
		t.Fatalf("CanStartFlow() failed: %v", err)
	}
	if !ok {
		t.Error("Expected flow without prerequisites to be startable")
	}
}

func TestCanStartFlow_PrerequisiteGate(t *testing.T) {
	flow := &models.Flow{
		ID: 2,
		Prerequisites: []models.FlowPrerequisite{
			{FlowID: 2, PrerequisiteID: 1},
		},
	}

	repo := &mockProgressRepository{}
	svc := NewServiceWithInterfaces(repo, logger.Get())

	// No progress at all: refused.
	ok, err := svc.CanStartFlow(1, flow)
	if err != nil {
		t.Fatalf("CanStartFlow() failed: %v", err)
	}
	if ok {
		t.Error("Expected flow with unmet prerequisite to be refused")
	}

	// Incomplete prerequisite: still refused.
	repo.progresses = []models.FlowProgress{{TesterID: 1, FlowID: 1, IsCompleted: false}}
	ok, _ = svc.CanStartFlow(1, flow)
	if ok {
		t.Error("Expected incomplete prerequisite to refuse access")
	}

	// Completed prerequisite: startable.
	repo.progresses = []models.FlowProgress{{TesterID: 1, FlowID: 1, IsCompleted: true}}
	ok, _ = svc.CanStartFlow(1, flow)
	if !ok {
		t.Error("Expected completed prerequisite to allow access")
	}
}

func TestCanStartFlow_AllPrerequisitesRequired(t *testing.T) {
	flow := &models.Flow{
		ID: 3,
		Prerequisites: []models.FlowPrerequisite{
			{FlowID: 3, PrerequisiteID: 1},
			{FlowID: 3, PrerequisiteID: 2},
		},
	}

	repo := &mockProgressRepository{progresses: []models.FlowProgress{
		{TesterID: 1, FlowID: 1, IsCompleted: true},
		{TesterID: 1, FlowID: 2, IsCompleted: false},
	}}
	svc := NewServiceWithInterfaces(repo, logger.Get())

	ok, err := svc.CanStartFlow(1, flow)
	if err != nil {
		t.Fatalf("CanStartFlow() failed: %v", err)
	}
	if ok {
		t.Error("Expected access refused while any prerequisite is incomplete")
	}
}
