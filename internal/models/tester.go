// Package models defines domain models for the test coordination platform.
package models

import (
	"time"
)

// Tester roles.
const (
	RoleTester = "tester"
	RoleAdmin  = "admin"
)

// Tester represents a registered tester (or admin) account.
// Points is the authoritative season balance; it is mutated only by the
// ledger and rewards services.
type Tester struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Username     string       `gorm:"uniqueIndex;not null;size:255" json:"username"`
	Email        string       `gorm:"size:255" json:"email"`
	Role         string       `gorm:"size:50;default:tester" json:"role"` // 'tester' or 'admin'
	Points       int          `gorm:"not null;default:0" json:"points"`
	GroupID      *uint        `gorm:"index" json:"group_id"`
	Group        *TesterGroup `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	IsActive     bool         `gorm:"default:true" json:"is_active"`
	TutorialSeen bool         `gorm:"default:false" json:"tutorial_seen"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Relationships
	Unlocks []TestCaseUnlock `gorm:"foreignKey:TesterID" json:"unlocks,omitempty"`
}

// TableName specifies the table name for Tester model.
func (Tester) TableName() string {
	return "testers"
}

// IsAdmin reports whether the tester has the admin role.
func (t *Tester) IsAdmin() bool {
	return t.Role == RoleAdmin
}

// UnlockedSet returns the set of test case IDs explicitly unlocked for the
// tester. Unlocks only ever grow; an unlocked test case stays visible.
func (t *Tester) UnlockedSet() map[uint]bool {
	set := make(map[uint]bool, len(t.Unlocks))
	for _, u := range t.Unlocks {
		set[u.TestCaseID] = true
	}
	return set
}

// TestCaseUnlock records that a hidden test case has been made permanently
// visible to a tester, typically by failing a designated prerequisite test.
type TestCaseUnlock struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TesterID   uint      `gorm:"not null;uniqueIndex:idx_tester_test_case_unlock" json:"tester_id"`
	TestCaseID uint      `gorm:"not null;uniqueIndex:idx_tester_test_case_unlock" json:"test_case_id"`
	Reason     string    `gorm:"type:text" json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for TestCaseUnlock model.
func (TestCaseUnlock) TableName() string {
	return "test_case_unlocks"
}
