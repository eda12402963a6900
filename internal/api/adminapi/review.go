package adminapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/testquiz/internal/repository"
)

// submissionFilterFromQuery builds the review filter from query params:
// tester_id, flow_id, test_case_id, status, approved.
func (h *Handler) submissionFilterFromQuery(c *gin.Context) (repository.SubmissionFilter, error) {
	var filter repository.SubmissionFilter
	for _, q := range []struct {
		name   string
		target *uint
	}{
		{"tester_id", &filter.TesterID},
		{"flow_id", &filter.FlowID},
		{"test_case_id", &filter.TestCaseID},
	} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return filter, errInvalidQuery(q.name, raw)
		}
		*q.target = uint(id)
	}

	filter.Status = c.Query("status")
	if raw := c.Query("approved"); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errInvalidQuery("approved", raw)
		}
		filter.Approved = &approved
	}
	return filter, nil
}

type queryError struct{ name, value string }

func (e *queryError) Error() string { return "invalid " + e.name + ": " + e.value }

func errInvalidQuery(name, value string) error { return &queryError{name, value} }

// ListSubmissions returns submissions matching the review filters.
// GET /api/v1/admin/submissions?flow_id=&status=&approved=.
func (h *Handler) ListSubmissions(c *gin.Context) {
	filter, err := h.submissionFilterFromQuery(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	subs, err := h.subRepo.List(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list submissions")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve submissions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}

// ExportSubmissionsCSV downloads the filtered submissions as CSV.
// GET /api/v1/admin/submissions.csv.
func (h *Handler) ExportSubmissionsCSV(c *gin.Context) {
	filter, err := h.submissionFilterFromQuery(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.export.SubmissionsCSV(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to export submissions")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to export submissions")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="submissions.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// ApproveSubmission credits a submission's pending points. Idempotent.
// POST /api/v1/admin/submissions/:id/approve.
func (h *Handler) ApproveSubmission(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.ledger.Approve(id)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Submission not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

// MarkUseful credits the one-shot useful-feedback bonus.
// POST /api/v1/admin/submissions/:id/useful.
func (h *Handler) MarkUseful(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.ledger.MarkUseful(id)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Submission not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

// toggleRequest names the scoring component to flip.
type toggleRequest struct {
	Component string `json:"component" binding:"required"`
}

// ToggleComponent flips a rejection flag on a scoring component.
// POST /api/v1/admin/submissions/:id/toggle.
func (h *Handler) ToggleComponent(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "component is required")
		return
	}

	sub, err := h.ledger.ToggleComponent(id, req.Component)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

// notesRequest carries reviewer notes.
type notesRequest struct {
	Notes string `json:"notes"`
}

// SetNotes replaces the reviewer notes on a submission.
// PUT /api/v1/admin/submissions/:id/notes.
func (h *Handler) SetNotes(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid body")
		return
	}

	sub, err := h.ledger.SetAdminNotes(id, req.Notes)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Submission not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

// RerunSubmission reopens the test case without touching the balance.
// POST /api/v1/admin/submissions/:id/rerun.
func (h *Handler) RerunSubmission(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledger.Rerun(id); err != nil {
		h.errorResponse(c, http.StatusNotFound, "Submission not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reopened"})
}

// ResetSubmission deletes the submission and reverses its credits.
// DELETE /api/v1/admin/submissions/:id.
func (h *Handler) ResetSubmission(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledger.Reset(id); err != nil {
		h.errorResponse(c, http.StatusNotFound, "Submission not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// ResetFlow wipes a tester's whole run of a flow.
// DELETE /api/v1/admin/flows/:id/testers/:tester_id.
func (h *Handler) ResetFlow(c *gin.Context) {
	flowID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	testerID, err := h.parseID(c, "tester_id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledger.ResetFlow(testerID, flowID); err != nil {
		h.log.Error().Err(err).Uint("flow_id", flowID).Uint("tester_id", testerID).Msg("Failed to reset flow")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to reset flow")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
