// Package progression tracks per-(tester, flow) completion state.
package progression

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/internal/repository"
	"github.com/aimd54/testquiz/internal/service/visibility"
	"github.com/aimd54/testquiz/pkg/logger"
)

// ProgressStore interface for progress persistence.
type ProgressStore interface {
	Get(testerID, flowID uint) (*models.FlowProgress, error)
	GetOrCreate(testerID, flowID uint) (*models.FlowProgress, error)
	AddCompleted(progressID, testCaseID uint) error
	RemoveCompleted(progressID, testCaseID uint) error
	SetCompleted(progressID uint, completed bool) error
	SetBonusAwarded(progressID uint, awarded bool) error
}

// Tracker advances and recomputes flow progress. Completion is always
// derived from the tester's current visible set, so unlocking test cases
// can retroactively flip a flow between complete and incomplete.
type Tracker struct {
	store ProgressStore
	log   *logger.Logger
}

// NewTracker creates a tracker over the concrete progress repository.
func NewTracker(store *repository.ProgressRepository, log *logger.Logger) *Tracker {
	return &Tracker{store: store, log: log}
}

// NewTrackerWithStore creates a tracker with an interface store (useful for
// testing).
func NewTrackerWithStore(store ProgressStore, log *logger.Logger) *Tracker {
	return &Tracker{store: store, log: log}
}

// Access returns the tester's progress for the flow, creating an empty
// record on first access, and recomputes completion against the current
// visible set.
func (t *Tracker) Access(tester *models.Tester, flow *models.Flow) (*models.FlowProgress, error) {
	progress, err := t.store.GetOrCreate(tester.ID, flow.ID)
	if err != nil {
		return nil, err
	}
	if err := t.recompute(tester, flow, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// Peek returns the tester's progress for the flow without creating one.
// Returns nil when the flow was never accessed.
func (t *Tracker) Peek(testerID, flowID uint) (*models.FlowProgress, error) {
	progress, err := t.store.Get(testerID, flowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return progress, nil
}

// Advance marks a test case completed for the tester and recomputes flow
// completion. Adding an already-completed test case is a no-op on the set.
func (t *Tracker) Advance(tester *models.Tester, flow *models.Flow, testCaseID uint) (*models.FlowProgress, error) {
	progress, err := t.store.GetOrCreate(tester.ID, flow.ID)
	if err != nil {
		return nil, err
	}

	if !progress.HasCompleted(testCaseID) {
		if err := t.store.AddCompleted(progress.ID, testCaseID); err != nil {
			return nil, err
		}
		progress.Completed = append(progress.Completed, models.CompletedTestCase{
			FlowProgressID: progress.ID,
			TestCaseID:     testCaseID,
		})
	}

	if err := t.recompute(tester, flow, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// NextTestCase returns the first visible test case, in flow order, not yet
// completed. Nil means the flow-complete view applies.
func (t *Tracker) NextTestCase(tester *models.Tester, flow *models.Flow, progress *models.FlowProgress) *models.TestCase {
	completed := progress.CompletedSet()
	for _, tc := range visibility.VisibleTestCases(tester, flow.OrderedTestCases()) {
		if !completed[tc.ID] {
			next := tc
			return &next
		}
	}
	return nil
}

// ResetTestCase pulls one test case out of the completed set and clears the
// completion flag, permitting a retake. clearBonus additionally resets the
// bonus flag (reset), while rerun leaves awarded bonuses standing.
func (t *Tracker) ResetTestCase(progress *models.FlowProgress, testCaseID uint, clearBonus bool) error {
	if err := t.store.RemoveCompleted(progress.ID, testCaseID); err != nil {
		return err
	}
	if err := t.store.SetCompleted(progress.ID, false); err != nil {
		return err
	}
	if clearBonus && progress.BonusAwarded {
		if err := t.store.SetBonusAwarded(progress.ID, false); err != nil {
			return err
		}
		progress.BonusAwarded = false
	}

	kept := progress.Completed[:0]
	for _, c := range progress.Completed {
		if c.TestCaseID != testCaseID {
			kept = append(kept, c)
		}
	}
	progress.Completed = kept
	progress.IsCompleted = false
	return nil
}

// recompute derives isCompleted from the visible set: true when the set is
// non-empty and every visible test case is completed.
func (t *Tracker) recompute(tester *models.Tester, flow *models.Flow, progress *models.FlowProgress) error {
	visible := visibility.VisibleTestCases(tester, flow.OrderedTestCases())
	completed := progress.CompletedSet()

	done := len(visible) > 0
	for _, tc := range visible {
		if !completed[tc.ID] {
			done = false
			break
		}
	}

	if done == progress.IsCompleted {
		return nil
	}
	if err := t.store.SetCompleted(progress.ID, done); err != nil {
		return fmt.Errorf("failed to update completion for tester %d flow %d: %w", tester.ID, flow.ID, err)
	}
	progress.IsCompleted = done

	t.log.Debug().
		Uint("tester_id", tester.ID).
		Uint("flow_id", flow.ID).
		Bool("is_completed", done).
		Msg("Flow completion recomputed")
	return nil
}
