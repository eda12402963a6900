// Package export moves content catalogs between environments: a YAML
// bundle for groups, test cases, and flows, plus CSV dumps of submission
// review data.
package export

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aimd54/testquiz/internal/repository"
	"github.com/aimd54/testquiz/pkg/logger"
)

// Bundle is the YAML document a content export produces. Group codes and
// exported test case IDs are the stable keys the import remaps against;
// database IDs never survive the round trip.
type Bundle struct {
	Groups    []GroupEntry    `yaml:"groups,omitempty"`
	TestCases []TestCaseEntry `yaml:"test_cases,omitempty"`
	Flows     []FlowEntry     `yaml:"flows,omitempty"`
}

// GroupEntry is one tester group in the bundle, keyed by code.
type GroupEntry struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Color       string `yaml:"color,omitempty"`
}

// TestCaseEntry is one test case in the bundle. ID is the exporting
// database's ID, used only to wire flow order and unlock links.
type TestCaseEntry struct {
	ID             uint          `yaml:"id"`
	Title          string        `yaml:"title"`
	Description    string        `yaml:"description,omitempty"`
	Scenario       string        `yaml:"scenario"`
	ExpectedResult string        `yaml:"expected_result,omitempty"`
	Points         int           `yaml:"points"`
	IsActive       bool          `yaml:"is_active"`
	IsHidden       bool          `yaml:"is_hidden"`
	VisibleTo      []string      `yaml:"visible_to,omitempty"` // group codes
	UnlockOnFail   *uint         `yaml:"unlock_on_fail,omitempty"`
	Question       string        `yaml:"question,omitempty"`
	Options        []OptionEntry `yaml:"options,omitempty"`
}

// OptionEntry is one branching answer. TargetGroup is a group code.
type OptionEntry struct {
	Label       string `yaml:"label"`
	Action      string `yaml:"action"`
	TargetGroup string `yaml:"target_group,omitempty"`
}

// FlowEntry is one flow in the bundle. TestCases lists bundle test case
// IDs in position order; Prerequisites lists flow names.
type FlowEntry struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description,omitempty"`
	PointValue      int      `yaml:"point_value"`
	CompletionBonus int      `yaml:"completion_bonus"`
	IsActive        bool     `yaml:"is_active"`
	TestCases       []uint   `yaml:"test_cases"`
	Prerequisites   []string `yaml:"prerequisites,omitempty"`
}

// Service serializes and restores content bundles.
type Service struct {
	db  *repository.DB
	log *logger.Logger
}

// NewService creates a new export service.
func NewService(db *repository.DB, log *logger.Logger) *Service {
	return &Service{db: db, log: log}
}

// Export serializes the whole content catalog to YAML.
func (s *Service) Export() ([]byte, error) {
	repo := repository.NewContentRepository(s.db)

	groups, err := repo.ListGroups()
	if err != nil {
		return nil, err
	}
	cases, err := repo.ListTestCases(false)
	if err != nil {
		return nil, err
	}
	flows, err := repo.ListFlows(false)
	if err != nil {
		return nil, err
	}

	groupCodes := make(map[uint]string, len(groups))
	for _, g := range groups {
		groupCodes[g.ID] = g.Code
	}

	bundle := Bundle{}
	for _, g := range groups {
		bundle.Groups = append(bundle.Groups, GroupEntry{
			Code:        g.Code,
			Name:        g.Name,
			Description: g.Description,
			Color:       g.Color,
		})
	}
	for _, tc := range cases {
		entry := TestCaseEntry{
			ID:             tc.ID,
			Title:          tc.Title,
			Description:    tc.Description,
			Scenario:       tc.Scenario,
			ExpectedResult: tc.ExpectedResult,
			Points:         tc.Points,
			IsActive:       tc.IsActive,
			IsHidden:       tc.IsHidden,
			UnlockOnFail:   tc.UnlockOnFailID,
			Question:       tc.Question,
		}
		for _, g := range tc.VisibleTo {
			entry.VisibleTo = append(entry.VisibleTo, g.Code)
		}
		sort.Strings(entry.VisibleTo)
		for _, opt := range tc.Options {
			oe := OptionEntry{Label: opt.Label, Action: opt.Action}
			if opt.TargetGroupID != nil {
				oe.TargetGroup = groupCodes[*opt.TargetGroupID]
			}
			entry.Options = append(entry.Options, oe)
		}
		bundle.TestCases = append(bundle.TestCases, entry)
	}

	flowNames := make(map[uint]string, len(flows))
	for _, f := range flows {
		flowNames[f.ID] = f.Name
	}
	for _, f := range flows {
		entry := FlowEntry{
			Name:            f.Name,
			Description:     f.Description,
			PointValue:      f.PointValue,
			CompletionBonus: f.CompletionBonus,
			IsActive:        f.IsActive,
		}
		for _, fc := range f.TestCases {
			entry.TestCases = append(entry.TestCases, fc.TestCaseID)
		}
		for _, p := range f.Prerequisites {
			entry.Prerequisites = append(entry.Prerequisites, flowNames[p.PrerequisiteID])
		}
		bundle.Flows = append(bundle.Flows, entry)
	}

	out, err := yaml.Marshal(&bundle)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content bundle: %w", err)
	}
	return out, nil
}
