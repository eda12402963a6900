package models

import (
	"strings"
	"time"
)

// Submission outcomes.
const (
	SubmissionPassed = "passed"
	SubmissionFailed = "failed"
)

// Submission records one tester attempt at a test case. The point value is
// computed at creation and stays pending until an admin approves it;
// PointsAwarded is the gate that keeps the balance from being credited twice.
type Submission struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	TesterID   uint     `gorm:"not null;index" json:"tester_id"`
	Tester     Tester   `gorm:"foreignKey:TesterID" json:"tester,omitempty"`
	TestCaseID uint     `gorm:"not null;index" json:"test_case_id"`
	TestCase   TestCase `gorm:"foreignKey:TestCaseID" json:"test_case,omitempty"`
	FlowID     uint     `gorm:"not null;index" json:"flow_id"`
	Flow       Flow     `gorm:"foreignKey:FlowID" json:"flow,omitempty"`

	Status     string `gorm:"size:50;not null" json:"status"` // 'passed' or 'failed'
	Feedback   string `gorm:"type:text" json:"feedback"`
	Screenshot string `gorm:"size:512" json:"screenshot"` // blob-store key, never inspected

	PointsEarned  int  `gorm:"not null;default:0" json:"points_earned"`
	PointsAwarded bool `gorm:"not null;default:false;index" json:"points_awarded"`

	// Per-component admin rejections. Each toggle independently removes its
	// component from the point formula while the submission is unapproved.
	RejectedBug        bool `gorm:"default:false" json:"rejected_bug"`
	RejectedFeedback   bool `gorm:"default:false" json:"rejected_feedback"`
	RejectedScreenshot bool `gorm:"default:false" json:"rejected_screenshot"`

	IsUsefulFeedback bool   `gorm:"default:false" json:"is_useful_feedback"`
	AdminNotes       string `gorm:"type:text" json:"admin_notes"`

	// Reassignment and unlock audit trail, written once at submission time.
	GroupAtSubmissionID *uint  `json:"group_at_submission_id"`
	WasReassigned       bool   `gorm:"default:false" json:"was_reassigned"`
	ReassignReason      string `gorm:"type:text" json:"reassign_reason"`
	UnlockedTestCaseID  *uint  `json:"unlocked_test_case_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Submission model.
func (Submission) TableName() string {
	return "submissions"
}

// HasFeedback reports whether the submission carries non-empty feedback text.
func (s *Submission) HasFeedback() bool {
	return strings.TrimSpace(s.Feedback) != ""
}

// HasScreenshot reports whether a screenshot was attached.
func (s *Submission) HasScreenshot() bool {
	return s.Screenshot != ""
}
