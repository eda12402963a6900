// Package visibility computes which test cases a tester may currently see
// and whether a flow is startable for them.
package visibility

import (
	"fmt"

	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/internal/repository"
	"github.com/aimd54/testquiz/pkg/logger"
)

// ProgressRepository interface for progress lookups.
type ProgressRepository interface {
	ListByTester(testerID uint) ([]models.FlowProgress, error)
}

// VisibleTestCases returns, in flow order, the subset of test cases the
// tester may currently see. Rules, per test case:
//
//  1. explicitly unlocked -> visible, even when hidden
//  2. hidden -> not visible
//  3. no group restriction -> visible to everyone
//  4. group-restricted -> visible only to members; group-less testers are
//     excluded
func VisibleTestCases(tester *models.Tester, cases []models.TestCase) []models.TestCase {
	unlocked := tester.UnlockedSet()

	visible := make([]models.TestCase, 0, len(cases))
	for _, tc := range cases {
		if unlocked[tc.ID] {
			visible = append(visible, tc)
			continue
		}
		if tc.IsHidden {
			continue
		}
		groups := tc.VisibleToGroupIDs()
		if len(groups) == 0 {
			visible = append(visible, tc)
			continue
		}
		if tester.GroupID == nil {
			continue
		}
		for _, gID := range groups {
			if gID == *tester.GroupID {
				visible = append(visible, tc)
				break
			}
		}
	}
	return visible
}

// IsVisible reports whether a single test case is visible to the tester.
func IsVisible(tester *models.Tester, tc models.TestCase) bool {
	return len(VisibleTestCases(tester, []models.TestCase{tc})) == 1
}

// Service gates flow access on prerequisite completion.
type Service struct {
	progressRepo ProgressRepository
	log          *logger.Logger
}

// NewService creates a new visibility service with concrete repository types.
func NewService(progressRepo *repository.ProgressRepository, log *logger.Logger) *Service {
	return &Service{progressRepo: progressRepo, log: log}
}

// NewServiceWithInterfaces creates a new visibility service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(progressRepo ProgressRepository, log *logger.Logger) *Service {
	return &Service{progressRepo: progressRepo, log: log}
}

// CanStartFlow reports whether every prerequisite flow has a completed
// progress record for the tester. Flows without prerequisites are always
// startable.
func (s *Service) CanStartFlow(testerID uint, flow *models.Flow) (bool, error) {
	prereqs := flow.PrerequisiteIDs()
	if len(prereqs) == 0 {
		return true, nil
	}

	progresses, err := s.progressRepo.ListByTester(testerID)
	if err != nil {
		return false, fmt.Errorf("failed to check prerequisites for flow %d: %w", flow.ID, err)
	}

	completed := make(map[uint]bool, len(progresses))
	for _, p := range progresses {
		if p.IsCompleted {
			completed[p.FlowID] = true
		}
	}

	for _, prereqID := range prereqs {
		if !completed[prereqID] {
			s.log.Debug().
				Uint("tester_id", testerID).
				Uint("flow_id", flow.ID).
				Uint("missing_prerequisite", prereqID).
				Msg("Flow access refused, prerequisite incomplete")
			return false, nil
		}
	}
	return true, nil
}
