package export

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/internal/repository"
)

// ImportSummary reports what an import created.
type ImportSummary struct {
	Groups    int `json:"groups"`
	TestCases int `json:"test_cases"`
	Flows     int `json:"flows"`
}

// Import restores a content bundle into the database inside one
// transaction. Groups are matched by code and reused when present;
// test cases and flows are always created fresh. Links that reference
// bundle IDs are rewired in later passes, after every target exists:
// groups, then flows and test cases, then flow prerequisites, then
// unlock-on-fail targets.
func (s *Service) Import(data []byte) (*ImportSummary, error) {
	var bundle Bundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse content bundle: %w", err)
	}

	summary := &ImportSummary{}
	err := s.db.WithTx(func(tx *repository.DB) error {
		repo := repository.NewContentRepository(tx)

		groupIDs, created, err := importGroups(repo, bundle.Groups)
		if err != nil {
			return err
		}
		summary.Groups = created

		caseIDs, err := importTestCases(repo, bundle.TestCases, groupIDs)
		if err != nil {
			return err
		}
		summary.TestCases = len(caseIDs)

		flowIDs, err := importFlows(repo, bundle.Flows, caseIDs)
		if err != nil {
			return err
		}
		summary.Flows = len(flowIDs)

		if err := linkPrerequisites(repo, bundle.Flows, flowIDs); err != nil {
			return err
		}
		return linkUnlockTargets(repo, bundle.TestCases, caseIDs)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("groups", summary.Groups).
		Int("test_cases", summary.TestCases).
		Int("flows", summary.Flows).
		Msg("Content bundle imported")
	return summary, nil
}

func importGroups(repo *repository.ContentRepository, entries []GroupEntry) (map[string]uint, int, error) {
	ids := make(map[string]uint, len(entries))
	created := 0
	for _, e := range entries {
		existing, err := repo.GetGroupByCode(e.Code)
		if err == nil {
			ids[e.Code] = existing.ID
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, err
		}

		group := &models.TesterGroup{
			Code:        e.Code,
			Name:        e.Name,
			Description: e.Description,
			Color:       e.Color,
		}
		if err := repo.CreateGroup(group); err != nil {
			return nil, 0, err
		}
		ids[e.Code] = group.ID
		created++
	}
	return ids, created, nil
}

func importTestCases(repo *repository.ContentRepository, entries []TestCaseEntry, groupIDs map[string]uint) (map[uint]uint, error) {
	ids := make(map[uint]uint, len(entries))
	for _, e := range entries {
		tc := &models.TestCase{
			Title:          e.Title,
			Description:    e.Description,
			Scenario:       e.Scenario,
			ExpectedResult: e.ExpectedResult,
			Points:         e.Points,
			IsActive:       e.IsActive,
			IsHidden:       e.IsHidden,
			Question:       e.Question,
		}
		for _, code := range e.VisibleTo {
			id, ok := groupIDs[code]
			if !ok {
				return nil, fmt.Errorf("test case %q references unknown group %q", e.Title, code)
			}
			tc.VisibleTo = append(tc.VisibleTo, models.TesterGroup{ID: id})
		}
		for _, opt := range e.Options {
			option := models.BranchOption{Label: opt.Label, Action: opt.Action}
			if opt.TargetGroup != "" {
				id, ok := groupIDs[opt.TargetGroup]
				if !ok {
					return nil, fmt.Errorf("option %q references unknown group %q", opt.Label, opt.TargetGroup)
				}
				option.TargetGroupID = &id
			}
			tc.Options = append(tc.Options, option)
		}
		if err := repo.CreateTestCase(tc); err != nil {
			return nil, err
		}
		ids[e.ID] = tc.ID
	}
	return ids, nil
}

func importFlows(repo *repository.ContentRepository, entries []FlowEntry, caseIDs map[uint]uint) (map[string]uint, error) {
	ids := make(map[string]uint, len(entries))
	for _, e := range entries {
		flow := &models.Flow{
			Name:            e.Name,
			Description:     e.Description,
			PointValue:      e.PointValue,
			CompletionBonus: e.CompletionBonus,
			IsActive:        e.IsActive,
		}
		if err := repo.CreateFlow(flow); err != nil {
			return nil, err
		}

		linked := make([]uint, 0, len(e.TestCases))
		for _, oldID := range e.TestCases {
			id, ok := caseIDs[oldID]
			if !ok {
				return nil, fmt.Errorf("flow %q references unknown test case %d", e.Name, oldID)
			}
			linked = append(linked, id)
		}
		if err := repo.SetFlowTestCases(flow.ID, linked); err != nil {
			return nil, err
		}
		ids[e.Name] = flow.ID
	}
	return ids, nil
}

func linkPrerequisites(repo *repository.ContentRepository, entries []FlowEntry, flowIDs map[string]uint) error {
	for _, e := range entries {
		if len(e.Prerequisites) == 0 {
			continue
		}
		prereqs := make([]uint, 0, len(e.Prerequisites))
		for _, name := range e.Prerequisites {
			id, ok := flowIDs[name]
			if !ok {
				return fmt.Errorf("flow %q requires unknown flow %q", e.Name, name)
			}
			prereqs = append(prereqs, id)
		}
		if err := repo.SetFlowPrerequisites(flowIDs[e.Name], prereqs); err != nil {
			return err
		}
	}
	return nil
}

func linkUnlockTargets(repo *repository.ContentRepository, entries []TestCaseEntry, caseIDs map[uint]uint) error {
	for _, e := range entries {
		if e.UnlockOnFail == nil {
			continue
		}
		target, ok := caseIDs[*e.UnlockOnFail]
		if !ok {
			return fmt.Errorf("test case %q unlocks unknown test case %d", e.Title, *e.UnlockOnFail)
		}
		tc, err := repo.GetTestCase(caseIDs[e.ID])
		if err != nil {
			return err
		}
		tc.UnlockOnFailID = &target
		if err := repo.UpdateTestCase(tc); err != nil {
			return err
		}
	}
	return nil
}
