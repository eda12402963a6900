package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/aimd54/testquiz/internal/repository"
)

var submissionCSVHeader = []string{
	"id", "tester", "test_case", "flow", "status", "points_earned",
	"points_awarded", "useful_feedback", "was_reassigned", "feedback",
	"screenshot", "admin_notes", "created_at",
}

// SubmissionsCSV renders the submissions matching the filter as CSV, one
// row per submission, newest first.
func (s *Service) SubmissionsCSV(filter repository.SubmissionFilter) ([]byte, error) {
	subs, err := repository.NewSubmissionRepository(s.db).List(filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(submissionCSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, sub := range subs {
		row := []string{
			strconv.FormatUint(uint64(sub.ID), 10),
			sub.Tester.Username,
			sub.TestCase.Title,
			sub.Flow.Name,
			sub.Status,
			strconv.Itoa(sub.PointsEarned),
			strconv.FormatBool(sub.PointsAwarded),
			strconv.FormatBool(sub.IsUsefulFeedback),
			strconv.FormatBool(sub.WasReassigned),
			sub.Feedback,
			sub.Screenshot,
			sub.AdminNotes,
			sub.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
