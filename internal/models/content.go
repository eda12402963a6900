package models

import (
	"time"
)

// Branch option actions.
const (
	BranchActionContinue = "continue"
	BranchActionReassign = "reassign"
)

// TesterGroup is a named audience segment used for content visibility
// partitioning and as a branching reassignment target.
type TesterGroup struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	Code        string    `gorm:"uniqueIndex;not null;size:100" json:"code"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"size:20;default:#6c757d" json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for TesterGroup model.
func (TesterGroup) TableName() string {
	return "tester_groups"
}

// TestCase is a single scenario/expected-result pair a tester evaluates as
// passed or failed.
//
// Visibility rules: an explicitly unlocked test case is always visible,
// a hidden one otherwise never is, and a non-empty VisibleTo list restricts
// the test case to members of those groups.
type TestCase struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Title          string        `gorm:"not null;size:255" json:"title"`
	Description    string        `gorm:"type:text" json:"description"`
	Scenario       string        `gorm:"type:text;not null" json:"scenario"`
	ExpectedResult string        `gorm:"type:text" json:"expected_result"`
	Points         int           `gorm:"default:1" json:"points"` // display value only, scoring uses the ledger formula
	IsActive       bool          `gorm:"default:true" json:"is_active"`
	IsHidden       bool          `gorm:"default:false" json:"is_hidden"`
	VisibleTo      []TesterGroup `gorm:"many2many:test_case_visible_groups" json:"visible_to,omitempty"`
	UnlockOnFailID *uint         `json:"unlock_on_fail_id"` // test case revealed to the tester on a failed outcome
	Question       string        `gorm:"type:text" json:"question"` // optional branching question shown after submission
	Options        []BranchOption `gorm:"foreignKey:TestCaseID" json:"options,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TableName specifies the table name for TestCase model.
func (TestCase) TableName() string {
	return "test_cases"
}

// VisibleToGroupIDs returns the IDs of the groups the test case is
// restricted to. Empty means visible to everyone.
func (tc *TestCase) VisibleToGroupIDs() []uint {
	ids := make([]uint, 0, len(tc.VisibleTo))
	for _, g := range tc.VisibleTo {
		ids = append(ids, g.ID)
	}
	return ids
}

// BranchOption is one labeled answer to a test case's branching question.
// A 'reassign' option moves the tester into TargetGroup when selected.
type BranchOption struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	TestCaseID    uint   `gorm:"not null;index" json:"test_case_id"`
	Label         string `gorm:"not null;size:255" json:"label"`
	Action        string `gorm:"size:50;default:continue" json:"action"` // 'continue' or 'reassign'
	TargetGroupID *uint  `json:"target_group_id"`
}

// TableName specifies the table name for BranchOption model.
func (BranchOption) TableName() string {
	return "branch_options"
}

// Flow is an ordered collection of test cases a tester works through.
type Flow struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"not null;size:255" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	PointValue      int            `gorm:"default:0" json:"point_value"` // display value shown to testers
	CompletionBonus int            `gorm:"default:3" json:"completion_bonus"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	TestCases       []FlowTestCase `gorm:"foreignKey:FlowID" json:"test_cases,omitempty"`
	Prerequisites   []FlowPrerequisite `gorm:"foreignKey:FlowID" json:"prerequisites,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TableName specifies the table name for Flow model.
func (Flow) TableName() string {
	return "flows"
}

// OrderedTestCases returns the flow's test cases in flow order.
// The slice is only meaningful when TestCases were preloaded with their
// TestCase association.
func (f *Flow) OrderedTestCases() []TestCase {
	cases := make([]TestCase, 0, len(f.TestCases))
	for _, ftc := range f.TestCases {
		cases = append(cases, ftc.TestCase)
	}
	return cases
}

// PrerequisiteIDs returns the IDs of flows that must be completed before
// this flow is startable.
func (f *Flow) PrerequisiteIDs() []uint {
	ids := make([]uint, 0, len(f.Prerequisites))
	for _, p := range f.Prerequisites {
		ids = append(ids, p.PrerequisiteID)
	}
	return ids
}

// FlowTestCase links a test case into a flow at a fixed position.
type FlowTestCase struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	FlowID     uint     `gorm:"not null;uniqueIndex:idx_flow_test_case" json:"flow_id"`
	TestCaseID uint     `gorm:"not null;uniqueIndex:idx_flow_test_case" json:"test_case_id"`
	Position   int      `gorm:"not null;default:0" json:"position"`
	TestCase   TestCase `gorm:"foreignKey:TestCaseID" json:"test_case,omitempty"`
}

// TableName specifies the table name for FlowTestCase model.
func (FlowTestCase) TableName() string {
	return "flow_test_cases"
}

// FlowPrerequisite links a flow to another flow that must be completed
// first. The prerequisite graph is assumed acyclic; this is not validated.
type FlowPrerequisite struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	FlowID         uint `gorm:"not null;uniqueIndex:idx_flow_prerequisite" json:"flow_id"`
	PrerequisiteID uint `gorm:"not null;uniqueIndex:idx_flow_prerequisite" json:"prerequisite_id"`
}

// TableName specifies the table name for FlowPrerequisite model.
func (FlowPrerequisite) TableName() string {
	return "flow_prerequisites"
}
