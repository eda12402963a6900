package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aimd54/testquiz/internal/models"
)

// TesterRepository handles tester-related database operations.
type TesterRepository struct {
	db *DB
}

// NewTesterRepository creates a new tester repository.
func NewTesterRepository(db *DB) *TesterRepository {
	return &TesterRepository{db: db}
}

// Create creates a new tester.
func (r *TesterRepository) Create(tester *models.Tester) error {
	if err := r.db.Create(tester).Error; err != nil {
		return fmt.Errorf("failed to create tester: %w", err)
	}
	return nil
}

// GetByID retrieves a tester by ID with group and unlocks preloaded.
func (r *TesterRepository) GetByID(id uint) (*models.Tester, error) {
	var tester models.Tester
	err := r.db.Preload("Group").Preload("Unlocks").First(&tester, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tester by id %d: %w", id, err)
	}
	return &tester, nil
}

// GetByUsername retrieves a tester by username.
func (r *TesterRepository) GetByUsername(username string) (*models.Tester, error) {
	var tester models.Tester
	err := r.db.Preload("Group").Preload("Unlocks").Where("username = ?", username).First(&tester).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tester by username %s: %w", username, err)
	}
	return &tester, nil
}

// Update updates a tester.
func (r *TesterRepository) Update(tester *models.Tester) error {
	if err := r.db.Save(tester).Error; err != nil {
		return fmt.Errorf("failed to update tester: %w", err)
	}
	return nil
}

// ListTesters retrieves all tester-role accounts ordered by descending
// points, then ascending ID for a stable tie order.
func (r *TesterRepository) ListTesters() ([]models.Tester, error) {
	var testers []models.Tester
	err := r.db.
		Where("role = ?", models.RoleTester).
		Order("points DESC, id ASC").
		Find(&testers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list testers: %w", err)
	}
	return testers, nil
}

// AddPoints adjusts a tester's balance by delta as a single atomic field
// update. Negative deltas deduct.
func (r *TesterRepository) AddPoints(testerID uint, delta int) error {
	result := r.db.Model(&models.Tester{}).
		Where("id = ?", testerID).
		UpdateColumn("points", gorm.Expr("points + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("failed to adjust points for tester %d: %w", testerID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to adjust points: tester %d not found", testerID)
	}
	return nil
}

// SetGroup moves a tester into the given group (nil clears membership).
func (r *TesterRepository) SetGroup(testerID uint, groupID *uint) error {
	err := r.db.Model(&models.Tester{}).
		Where("id = ?", testerID).
		Update("group_id", groupID).Error
	if err != nil {
		return fmt.Errorf("failed to set group for tester %d: %w", testerID, err)
	}
	return nil
}

// Unlock adds a test case to the tester's unlocked set. The set only grows;
// unlocking an already-unlocked test case is a no-op.
func (r *TesterRepository) Unlock(testerID, testCaseID uint, reason string) error {
	var existing models.TestCaseUnlock
	err := r.db.
		Where("tester_id = ? AND test_case_id = ?", testerID, testCaseID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check unlock for tester %d: %w", testerID, err)
	}

	unlock := &models.TestCaseUnlock{
		TesterID:   testerID,
		TestCaseID: testCaseID,
		Reason:     reason,
	}
	if err := r.db.Create(unlock).Error; err != nil {
		return fmt.Errorf("failed to unlock test case %d for tester %d: %w", testCaseID, testerID, err)
	}
	return nil
}

// ZeroAllPoints resets every tester balance to zero. Only season close calls
// this, inside the close transaction.
func (r *TesterRepository) ZeroAllPoints() error {
	err := r.db.Model(&models.Tester{}).
		Where("role = ?", models.RoleTester).
		UpdateColumn("points", 0).Error
	if err != nil {
		return fmt.Errorf("failed to zero tester points: %w", err)
	}
	return nil
}
