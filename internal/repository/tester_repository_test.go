package repository

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aimd54/testquiz/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	// Enable foreign key constraints (SQLite default is off)
	gdb.Exec("PRAGMA foreign_keys = ON")

	db := &DB{gdb}
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}
	return db
}

// createTester creates a tester account in the database.
func createTester(t *testing.T, repo *TesterRepository, username string, points int) *models.Tester {
	t.Helper()

	tester := &models.Tester{Username: username, Role: models.RoleTester, Points: points, IsActive: true}
	if err := repo.Create(tester); err != nil {
		t.Fatalf("Failed to create tester %s: %v", username, err)
	}
	return tester
}

func TestTesterRepository_AddPoints(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTesterRepository(db)
	tester := createTester(t, repo, "alice", 5)

	if err := repo.AddPoints(tester.ID, 4); err != nil {
		t.Fatalf("AddPoints failed: %v", err)
	}
	if err := repo.AddPoints(tester.ID, -3); err != nil {
		t.Fatalf("AddPoints with negative delta failed: %v", err)
	}

	updated, err := repo.GetByID(tester.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Points != 6 {
		t.Errorf("Expected 6 points, got %d", updated.Points)
	}
}

func TestTesterRepository_AddPointsUnknownTester(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTesterRepository(db)

	if err := repo.AddPoints(999, 1); err == nil {
		t.Error("Expected error adjusting points for a missing tester")
	}
}

func TestTesterRepository_ListTestersOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTesterRepository(db)
	createTester(t, repo, "alice", 10)
	createTester(t, repo, "bob", 25)
	createTester(t, repo, "carol", 10)

	admin := &models.Tester{Username: "root", Role: models.RoleAdmin, IsActive: true}
	if err := repo.Create(admin); err != nil {
		t.Fatalf("Failed to create admin: %v", err)
	}

	testers, err := repo.ListTesters()
	if err != nil {
		t.Fatalf("ListTesters failed: %v", err)
	}

	if len(testers) != 3 {
		t.Fatalf("Expected 3 testers (admin excluded), got %d", len(testers))
	}
	if testers[0].Username != "bob" {
		t.Errorf("Expected bob first, got %s", testers[0].Username)
	}
	if testers[1].Username != "alice" || testers[2].Username != "carol" {
		t.Errorf("Expected tie broken by ID: alice then carol, got %s then %s",
			testers[1].Username, testers[2].Username)
	}
}

func TestTesterRepository_UnlockIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTesterRepository(db)
	tester := createTester(t, repo, "alice", 0)

	if err := repo.Unlock(tester.ID, 42, "failed test case 7"); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if err := repo.Unlock(tester.ID, 42, "failed test case 7 again"); err != nil {
		t.Fatalf("Repeat unlock failed: %v", err)
	}

	updated, err := repo.GetByID(tester.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(updated.Unlocks) != 1 {
		t.Errorf("Expected a single unlock record, got %d", len(updated.Unlocks))
	}
	if !updated.UnlockedSet()[42] {
		t.Error("Expected test case 42 in the unlocked set")
	}
}

func TestTesterRepository_SetGroup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTesterRepository(db)
	tester := createTester(t, repo, "alice", 0)

	group := &models.TesterGroup{Code: "beta", Name: "Beta Cohort"}
	if err := NewContentRepository(db).CreateGroup(group); err != nil {
		t.Fatalf("Failed to create group: %v", err)
	}

	if err := repo.SetGroup(tester.ID, &group.ID); err != nil {
		t.Fatalf("SetGroup failed: %v", err)
	}
	updated, err := repo.GetByID(tester.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.GroupID == nil || *updated.GroupID != group.ID {
		t.Errorf("Expected tester in group %d, got %v", group.ID, updated.GroupID)
	}
	if updated.Group.Code != "beta" {
		t.Errorf("Expected group preloaded, got %+v", updated.Group)
	}

	if err := repo.SetGroup(tester.ID, nil); err != nil {
		t.Fatalf("SetGroup to nil failed: %v", err)
	}
	cleared, err := repo.GetByID(tester.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if cleared.GroupID != nil {
		t.Errorf("Expected membership cleared, got %v", cleared.GroupID)
	}
}

func TestTesterRepository_ZeroAllPoints(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTesterRepository(db)
	a := createTester(t, repo, "alice", 30)
	b := createTester(t, repo, "bob", 12)

	if err := repo.ZeroAllPoints(); err != nil {
		t.Fatalf("ZeroAllPoints failed: %v", err)
	}

	for _, id := range []uint{a.ID, b.ID} {
		tester, err := repo.GetByID(id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if tester.Points != 0 {
			t.Errorf("Expected tester %d zeroed, got %d", id, tester.Points)
		}
	}
}
