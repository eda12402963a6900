package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aimd54/testquiz/internal/models"
)

// ProgressRepository handles FlowProgress records.
type ProgressRepository struct {
	db *DB
}

// NewProgressRepository creates a new progress repository.
func NewProgressRepository(db *DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Get retrieves the progress record for a (tester, flow) pair, or
// gorm.ErrRecordNotFound wrapped if none exists yet.
func (r *ProgressRepository) Get(testerID, flowID uint) (*models.FlowProgress, error) {
	var progress models.FlowProgress
	err := r.db.Preload("Completed").
		Where("tester_id = ? AND flow_id = ?", testerID, flowID).
		First(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get progress for tester %d flow %d: %w", testerID, flowID, err)
	}
	return &progress, nil
}

// GetOrCreate returns the progress record for a (tester, flow) pair,
// creating an empty one on first flow access. The unique index keeps the
// pair single even if two requests race here.
func (r *ProgressRepository) GetOrCreate(testerID, flowID uint) (*models.FlowProgress, error) {
	progress, err := r.Get(testerID, flowID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.FlowProgress{TesterID: testerID, FlowID: flowID}
	if err := r.db.Create(created).Error; err != nil {
		return nil, fmt.Errorf("failed to create progress for tester %d flow %d: %w", testerID, flowID, err)
	}
	return created, nil
}

// AddCompleted adds a test case to the completed set. Idempotent: a repeat
// submission for an already-completed test case leaves the set unchanged.
func (r *ProgressRepository) AddCompleted(progressID, testCaseID uint) error {
	var existing models.CompletedTestCase
	err := r.db.
		Where("flow_progress_id = ? AND test_case_id = ?", progressID, testCaseID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check completed test case: %w", err)
	}

	entry := &models.CompletedTestCase{FlowProgressID: progressID, TestCaseID: testCaseID}
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to add completed test case %d: %w", testCaseID, err)
	}
	return nil
}

// RemoveCompleted pulls a test case out of the completed set.
func (r *ProgressRepository) RemoveCompleted(progressID, testCaseID uint) error {
	err := r.db.
		Where("flow_progress_id = ? AND test_case_id = ?", progressID, testCaseID).
		Delete(&models.CompletedTestCase{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove completed test case %d: %w", testCaseID, err)
	}
	return nil
}

// SetCompleted updates the isCompleted flag.
func (r *ProgressRepository) SetCompleted(progressID uint, completed bool) error {
	err := r.db.Model(&models.FlowProgress{}).
		Where("id = ?", progressID).
		Update("is_completed", completed).Error
	if err != nil {
		return fmt.Errorf("failed to set completion for progress %d: %w", progressID, err)
	}
	return nil
}

// SetBonusAwarded updates the bonusAwarded flag.
func (r *ProgressRepository) SetBonusAwarded(progressID uint, awarded bool) error {
	err := r.db.Model(&models.FlowProgress{}).
		Where("id = ?", progressID).
		Update("bonus_awarded", awarded).Error
	if err != nil {
		return fmt.Errorf("failed to set bonus flag for progress %d: %w", progressID, err)
	}
	return nil
}

// Delete removes a progress record and its completed set.
func (r *ProgressRepository) Delete(progressID uint) error {
	err := r.db.Where("flow_progress_id = ?", progressID).Delete(&models.CompletedTestCase{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete completed set for progress %d: %w", progressID, err)
	}
	if err := r.db.Delete(&models.FlowProgress{}, progressID).Error; err != nil {
		return fmt.Errorf("failed to delete progress %d: %w", progressID, err)
	}
	return nil
}

// ListByTester retrieves all progress records for a tester.
func (r *ProgressRepository) ListByTester(testerID uint) ([]models.FlowProgress, error) {
	var progresses []models.FlowProgress
	err := r.db.Preload("Completed").
		Where("tester_id = ?", testerID).
		Find(&progresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list progress for tester %d: %w", testerID, err)
	}
	return progresses, nil
}

// ListByFlow retrieves all progress records for a flow.
func (r *ProgressRepository) ListByFlow(flowID uint) ([]models.FlowProgress, error) {
	var progresses []models.FlowProgress
	err := r.db.Preload("Completed").
		Where("flow_id = ?", flowID).
		Find(&progresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list progress for flow %d: %w", flowID, err)
	}
	return progresses, nil
}
