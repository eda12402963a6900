package models

import (
	"time"
)

// FlowProgress tracks one tester's progress through one flow. There is at
// most one record per (tester, flow) pair, enforced by a unique index.
type FlowProgress struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	TesterID     uint   `gorm:"not null;uniqueIndex:idx_tester_flow" json:"tester_id"`
	Tester       Tester `gorm:"foreignKey:TesterID" json:"tester,omitempty"`
	FlowID       uint   `gorm:"not null;uniqueIndex:idx_tester_flow" json:"flow_id"`
	Flow         Flow   `gorm:"foreignKey:FlowID" json:"flow,omitempty"`
	IsCompleted  bool   `gorm:"default:false" json:"is_completed"`
	BonusAwarded bool   `gorm:"default:false" json:"bonus_awarded"`

	Completed []CompletedTestCase `gorm:"foreignKey:FlowProgressID" json:"completed,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for FlowProgress model.
func (FlowProgress) TableName() string {
	return "flow_progress"
}

// CompletedSet returns the set of completed test case IDs.
func (p *FlowProgress) CompletedSet() map[uint]bool {
	set := make(map[uint]bool, len(p.Completed))
	for _, c := range p.Completed {
		set[c.TestCaseID] = true
	}
	return set
}

// HasCompleted reports whether the test case is in the completed set.
func (p *FlowProgress) HasCompleted(testCaseID uint) bool {
	for _, c := range p.Completed {
		if c.TestCaseID == testCaseID {
			return true
		}
	}
	return false
}

// CompletedTestCase marks a test case as done within a FlowProgress record.
// Membership is a set: the unique index makes repeat completion a no-op.
type CompletedTestCase struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	FlowProgressID uint      `gorm:"not null;uniqueIndex:idx_progress_test_case" json:"flow_progress_id"`
	TestCaseID     uint      `gorm:"not null;uniqueIndex:idx_progress_test_case" json:"test_case_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for CompletedTestCase model.
func (CompletedTestCase) TableName() string {
	return "completed_test_cases"
}
