package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/aimd54/testquiz/internal/models"
)

// orderByPosition keeps preloaded flow test cases in flow order.
func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// ContentRepository handles flows, test cases and tester groups.
type ContentRepository struct {
	db *DB
}

// NewContentRepository creates a new content repository.
func NewContentRepository(db *DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// CreateGroup creates a tester group. The unique code constraint surfaces
// duplicates as an error with no partial state.
func (r *ContentRepository) CreateGroup(group *models.TesterGroup) error {
	if err := r.db.Create(group).Error; err != nil {
		return fmt.Errorf("failed to create tester group %q: %w", group.Code, err)
	}
	return nil
}

// GetGroupByCode retrieves a tester group by its stable code.
func (r *ContentRepository) GetGroupByCode(code string) (*models.TesterGroup, error) {
	var group models.TesterGroup
	if err := r.db.Where("code = ?", code).First(&group).Error; err != nil {
		return nil, fmt.Errorf("failed to get tester group %q: %w", code, err)
	}
	return &group, nil
}

// ListGroups retrieves all tester groups.
func (r *ContentRepository) ListGroups() ([]models.TesterGroup, error) {
	var groups []models.TesterGroup
	if err := r.db.Order("code ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to list tester groups: %w", err)
	}
	return groups, nil
}

// CreateTestCase creates a test case with its visibility and branching
// associations.
func (r *ContentRepository) CreateTestCase(tc *models.TestCase) error {
	if err := r.db.Create(tc).Error; err != nil {
		return fmt.Errorf("failed to create test case: %w", err)
	}
	return nil
}

// UpdateTestCase saves a test case and replaces its visibility list.
func (r *ContentRepository) UpdateTestCase(tc *models.TestCase) error {
	if err := r.db.Save(tc).Error; err != nil {
		return fmt.Errorf("failed to update test case %d: %w", tc.ID, err)
	}
	if err := r.db.Model(tc).Association("VisibleTo").Replace(tc.VisibleTo); err != nil {
		return fmt.Errorf("failed to update test case %d visibility: %w", tc.ID, err)
	}
	return nil
}

// GetTestCase retrieves a test case with visibility groups and branch options.
func (r *ContentRepository) GetTestCase(id uint) (*models.TestCase, error) {
	var tc models.TestCase
	err := r.db.Preload("VisibleTo").Preload("Options").First(&tc, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get test case %d: %w", id, err)
	}
	return &tc, nil
}

// ListTestCases retrieves all test cases, optionally only active ones.
func (r *ContentRepository) ListTestCases(activeOnly bool) ([]models.TestCase, error) {
	query := r.db.Preload("VisibleTo").Preload("Options").Order("id ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var cases []models.TestCase
	if err := query.Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("failed to list test cases: %w", err)
	}
	return cases, nil
}

// CreateFlow creates a flow.
func (r *ContentRepository) CreateFlow(flow *models.Flow) error {
	if err := r.db.Create(flow).Error; err != nil {
		return fmt.Errorf("failed to create flow: %w", err)
	}
	return nil
}

// UpdateFlow saves flow scalar fields.
func (r *ContentRepository) UpdateFlow(flow *models.Flow) error {
	err := r.db.Model(&models.Flow{}).Where("id = ?", flow.ID).Updates(map[string]interface{}{
		"name":             flow.Name,
		"description":      flow.Description,
		"point_value":      flow.PointValue,
		"completion_bonus": flow.CompletionBonus,
		"is_active":        flow.IsActive,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update flow %d: %w", flow.ID, err)
	}
	return nil
}

// GetFlow retrieves a flow with its ordered test cases fully populated
// (visibility groups, branch options) and its prerequisite links.
func (r *ContentRepository) GetFlow(id uint) (*models.Flow, error) {
	var flow models.Flow
	err := r.db.
		Preload("TestCases", orderByPosition).
		Preload("TestCases.TestCase.VisibleTo").
		Preload("TestCases.TestCase.Options").
		Preload("Prerequisites").
		First(&flow, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get flow %d: %w", id, err)
	}
	return &flow, nil
}

// GetFlowSummary retrieves flow scalar fields without associations. The
// ledger uses this for completion bonus lookups.
func (r *ContentRepository) GetFlowSummary(id uint) (*models.Flow, error) {
	var flow models.Flow
	if err := r.db.First(&flow, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get flow %d: %w", id, err)
	}
	return &flow, nil
}

// ListFlows retrieves flows, optionally only active ones, with ordered test
// cases populated.
func (r *ContentRepository) ListFlows(activeOnly bool) ([]models.Flow, error) {
	query := r.db.
		Preload("TestCases", orderByPosition).
		Preload("TestCases.TestCase.VisibleTo").
		Preload("TestCases.TestCase.Options").
		Preload("Prerequisites").
		Order("id ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var flows []models.Flow
	if err := query.Find(&flows).Error; err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	return flows, nil
}

// SetFlowTestCases replaces the flow's ordered test case list.
func (r *ContentRepository) SetFlowTestCases(flowID uint, testCaseIDs []uint) error {
	err := r.db.Where("flow_id = ?", flowID).Delete(&models.FlowTestCase{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear flow %d test cases: %w", flowID, err)
	}
	for i, tcID := range testCaseIDs {
		link := models.FlowTestCase{FlowID: flowID, TestCaseID: tcID, Position: i}
		if err := r.db.Create(&link).Error; err != nil {
			return fmt.Errorf("failed to link test case %d to flow %d: %w", tcID, flowID, err)
		}
	}
	return nil
}

// SetFlowPrerequisites replaces the flow's prerequisite links.
func (r *ContentRepository) SetFlowPrerequisites(flowID uint, prerequisiteIDs []uint) error {
	err := r.db.Where("flow_id = ?", flowID).Delete(&models.FlowPrerequisite{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear flow %d prerequisites: %w", flowID, err)
	}
	for _, pID := range prerequisiteIDs {
		link := models.FlowPrerequisite{FlowID: flowID, PrerequisiteID: pID}
		if err := r.db.Create(&link).Error; err != nil {
			return fmt.Errorf("failed to link prerequisite %d to flow %d: %w", pID, flowID, err)
		}
	}
	return nil
}
