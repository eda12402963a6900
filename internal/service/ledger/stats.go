package ledger

import (
	"fmt"

	"github.com/aimd54/testquiz/internal/metrics"
	"github.com/aimd54/testquiz/internal/models"
)

// FlowStats aggregates submission activity for one flow.
type FlowStats struct {
	FlowID        uint   `json:"flow_id"`
	Name          string `json:"name"`
	Submissions   int64  `json:"submissions"`
	Passed        int64  `json:"passed"`
	Failed        int64  `json:"failed"`
	Approved      int64  `json:"approved"`
	Testers       int64  `json:"testers"`
	Started       int64  `json:"started"`
	Completions   int64  `json:"completions"`
	PointsPending int64  `json:"points_pending"`
}

// Overview is the admin dashboard headline block.
type Overview struct {
	Testers          int64 `json:"testers"`
	Submissions      int64 `json:"submissions"`
	PendingApprovals int64 `json:"pending_approvals"`
	PointsCredited   int64 `json:"points_credited"`
}

// FlowAnalytics computes per-flow submission aggregates for every flow.
func (s *Service) FlowAnalytics() ([]FlowStats, error) {
	var flows []models.Flow
	if err := s.db.Order("id ASC").Find(&flows).Error; err != nil {
		return nil, fmt.Errorf("failed to list flows for analytics: %w", err)
	}

	stats := make([]FlowStats, 0, len(flows))
	for _, flow := range flows {
		fs := FlowStats{FlowID: flow.ID, Name: flow.Name}

		if err := s.db.Model(&models.Submission{}).
			Where("flow_id = ?", flow.ID).
			Count(&fs.Submissions).Error; err != nil {
			return nil, fmt.Errorf("failed to count submissions for flow %d: %w", flow.ID, err)
		}
		if err := s.db.Model(&models.Submission{}).
			Where("flow_id = ? AND status = ?", flow.ID, models.SubmissionPassed).
			Count(&fs.Passed).Error; err != nil {
			return nil, err
		}
		fs.Failed = fs.Submissions - fs.Passed
		if err := s.db.Model(&models.Submission{}).
			Where("flow_id = ? AND points_awarded = ?", flow.ID, true).
			Count(&fs.Approved).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.Submission{}).
			Where("flow_id = ?", flow.ID).
			Distinct("tester_id").
			Count(&fs.Testers).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.FlowProgress{}).
			Where("flow_id = ?", flow.ID).
			Count(&fs.Started).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.FlowProgress{}).
			Where("flow_id = ? AND is_completed = ?", flow.ID, true).
			Count(&fs.Completions).Error; err != nil {
			return nil, err
		}

		var pending struct{ Total int64 }
		if err := s.db.Model(&models.Submission{}).
			Select("COALESCE(SUM(points_earned), 0) AS total").
			Where("flow_id = ? AND points_awarded = ?", flow.ID, false).
			Scan(&pending).Error; err != nil {
			return nil, err
		}
		fs.PointsPending = pending.Total

		stats = append(stats, fs)
	}
	return stats, nil
}

// TestCaseStats aggregates submission outcomes for one test case.
type TestCaseStats struct {
	TestCaseID  uint    `json:"test_case_id"`
	Title       string  `json:"title"`
	Submissions int64   `json:"submissions"`
	Passed      int64   `json:"passed"`
	Failed      int64   `json:"failed"`
	Approved    int64   `json:"approved"`
	Pending     int64   `json:"pending"`
	PassRate    float64 `json:"pass_rate"`
}

// TestCaseAnalytics computes per-test-case outcome aggregates.
func (s *Service) TestCaseAnalytics() ([]TestCaseStats, error) {
	var cases []models.TestCase
	if err := s.db.Order("id ASC").Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("failed to list test cases for analytics: %w", err)
	}

	stats := make([]TestCaseStats, 0, len(cases))
	for _, tc := range cases {
		ts := TestCaseStats{TestCaseID: tc.ID, Title: tc.Title}

		if err := s.db.Model(&models.Submission{}).
			Where("test_case_id = ?", tc.ID).
			Count(&ts.Submissions).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.Submission{}).
			Where("test_case_id = ? AND status = ?", tc.ID, models.SubmissionPassed).
			Count(&ts.Passed).Error; err != nil {
			return nil, err
		}
		ts.Failed = ts.Submissions - ts.Passed
		if err := s.db.Model(&models.Submission{}).
			Where("test_case_id = ? AND points_awarded = ?", tc.ID, true).
			Count(&ts.Approved).Error; err != nil {
			return nil, err
		}
		ts.Pending = ts.Submissions - ts.Approved
		if ts.Submissions > 0 {
			ts.PassRate = float64(ts.Passed) / float64(ts.Submissions)
		}

		stats = append(stats, ts)
	}
	return stats, nil
}

// AdminOverview computes the headline numbers for the admin dashboard and
// refreshes the pending-submissions gauge as a side effect.
func (s *Service) AdminOverview() (*Overview, error) {
	var o Overview

	if err := s.db.Model(&models.Tester{}).
		Where("role = ?", models.RoleTester).
		Count(&o.Testers).Error; err != nil {
		return nil, fmt.Errorf("failed to count testers: %w", err)
	}
	if err := s.db.Model(&models.Submission{}).Count(&o.Submissions).Error; err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	if err := s.db.Model(&models.Submission{}).
		Where("points_awarded = ?", false).
		Count(&o.PendingApprovals).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending submissions: %w", err)
	}

	var credited struct{ Total int64 }
	if err := s.db.Model(&models.Tester{}).
		Select("COALESCE(SUM(points), 0) AS total").
		Where("role = ?", models.RoleTester).
		Scan(&credited).Error; err != nil {
		return nil, fmt.Errorf("failed to sum credited points: %w", err)
	}
	o.PointsCredited = credited.Total

	metrics.PendingSubmissions.Set(float64(o.PendingApprovals))
	return &o, nil
}
