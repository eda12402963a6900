package repository

import (
	"fmt"

	"github.com/aimd54/testquiz/internal/models"
)

// SubmissionFilter narrows submission listings. Nil/zero fields are ignored.
type SubmissionFilter struct {
	TesterID   uint
	FlowID     uint
	TestCaseID uint
	Status     string
	Approved   *bool
}

// SubmissionRepository handles the submission ledger.
type SubmissionRepository struct {
	db *DB
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(db *DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create appends a submission to the ledger.
func (r *SubmissionRepository) Create(sub *models.Submission) error {
	if err := r.db.Create(sub).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// GetByID retrieves a submission with tester, test case and flow populated.
func (r *SubmissionRepository) GetByID(id uint) (*models.Submission, error) {
	var sub models.Submission
	err := r.db.
		Preload("Tester").
		Preload("TestCase").
		Preload("Flow").
		First(&sub, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get submission %d: %w", id, err)
	}
	return &sub, nil
}

// Save persists mutable submission fields (approval, toggles, audit).
func (r *SubmissionRepository) Save(sub *models.Submission) error {
	if err := r.db.Save(sub).Error; err != nil {
		return fmt.Errorf("failed to save submission %d: %w", sub.ID, err)
	}
	return nil
}

// Delete removes a submission from the ledger. Only reset uses this.
func (r *SubmissionRepository) Delete(id uint) error {
	if err := r.db.Delete(&models.Submission{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete submission %d: %w", id, err)
	}
	return nil
}

// List retrieves submissions matching the filter, newest first.
func (r *SubmissionRepository) List(filter SubmissionFilter) ([]models.Submission, error) {
	query := r.db.Model(&models.Submission{}).
		Preload("Tester").
		Preload("TestCase").
		Preload("Flow").
		Order("created_at DESC")

	if filter.TesterID != 0 {
		query = query.Where("tester_id = ?", filter.TesterID)
	}
	if filter.FlowID != 0 {
		query = query.Where("flow_id = ?", filter.FlowID)
	}
	if filter.TestCaseID != 0 {
		query = query.Where("test_case_id = ?", filter.TestCaseID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Approved != nil {
		query = query.Where("points_awarded = ?", *filter.Approved)
	}

	var subs []models.Submission
	if err := query.Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

// ListByTesterFlow retrieves every submission a tester has for a flow. The
// completion bonus check scans this set because approvals can arrive out of
// order.
func (r *SubmissionRepository) ListByTesterFlow(testerID, flowID uint) ([]models.Submission, error) {
	var subs []models.Submission
	err := r.db.
		Where("tester_id = ? AND flow_id = ?", testerID, flowID).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for tester %d flow %d: %w", testerID, flowID, err)
	}
	return subs, nil
}

// DeleteByTesterFlow removes every submission a tester has for a flow.
func (r *SubmissionRepository) DeleteByTesterFlow(testerID, flowID uint) error {
	err := r.db.
		Where("tester_id = ? AND flow_id = ?", testerID, flowID).
		Delete(&models.Submission{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete submissions for tester %d flow %d: %w", testerID, flowID, err)
	}
	return nil
}

// Recent retrieves the newest submissions for the admin dashboard.
func (r *SubmissionRepository) Recent(limit int) ([]models.Submission, error) {
	var subs []models.Submission
	err := r.db.
		Preload("Tester").
		Preload("TestCase").
		Order("created_at DESC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent submissions: %w", err)
	}
	return subs, nil
}
