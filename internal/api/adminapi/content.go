package adminapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/testquiz/internal/models"
)

// ListGroups returns every tester group.
// GET /api/v1/admin/groups.
func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.contentRepo.ListGroups()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list groups")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve groups")
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// groupRequest creates a tester group.
type groupRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// CreateGroup registers a tester group.
// POST /api/v1/admin/groups.
func (h *Handler) CreateGroup(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "code and name are required")
		return
	}

	group := &models.TesterGroup{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}
	if err := h.contentRepo.CreateGroup(group); err != nil {
		h.errorResponse(c, http.StatusConflict, "Failed to create group")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// testCaseRequest creates or updates a test case.
type testCaseRequest struct {
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description"`
	Scenario       string `json:"scenario" binding:"required"`
	ExpectedResult string `json:"expected_result"`
	Points         int    `json:"points"`
	IsActive       *bool  `json:"is_active"`
	IsHidden       bool   `json:"is_hidden"`
	VisibleTo      []uint `json:"visible_to"`
	UnlockOnFailID *uint  `json:"unlock_on_fail_id"`
	Question       string `json:"question"`
	Options        []struct {
		Label         string `json:"label" binding:"required"`
		Action        string `json:"action"`
		TargetGroupID *uint  `json:"target_group_id"`
	} `json:"options"`
}

func (r *testCaseRequest) toModel(tc *models.TestCase) {
	tc.Title = r.Title
	tc.Description = r.Description
	tc.Scenario = r.Scenario
	tc.ExpectedResult = r.ExpectedResult
	tc.Points = r.Points
	tc.IsActive = r.IsActive == nil || *r.IsActive
	tc.IsHidden = r.IsHidden
	tc.UnlockOnFailID = r.UnlockOnFailID
	tc.Question = r.Question

	tc.VisibleTo = nil
	for _, id := range r.VisibleTo {
		tc.VisibleTo = append(tc.VisibleTo, models.TesterGroup{ID: id})
	}
	tc.Options = nil
	for _, opt := range r.Options {
		action := opt.Action
		if action == "" {
			action = models.BranchActionContinue
		}
		tc.Options = append(tc.Options, models.BranchOption{
			TestCaseID:    tc.ID,
			Label:         opt.Label,
			Action:        action,
			TargetGroupID: opt.TargetGroupID,
		})
	}
}

// ListTestCases returns the test case catalog.
// GET /api/v1/admin/test-cases.
func (h *Handler) ListTestCases(c *gin.Context) {
	cases, err := h.contentRepo.ListTestCases(false)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list test cases")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve test cases")
		return
	}
	c.JSON(http.StatusOK, gin.H{"test_cases": cases})
}

// CreateTestCase registers a test case.
// POST /api/v1/admin/test-cases.
func (h *Handler) CreateTestCase(c *gin.Context) {
	var req testCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "title and scenario are required")
		return
	}

	var tc models.TestCase
	req.toModel(&tc)
	if err := h.contentRepo.CreateTestCase(&tc); err != nil {
		h.log.Error().Err(err).Msg("Failed to create test case")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to create test case")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"test_case": tc})
}

// UpdateTestCase replaces a test case's fields, visibility, and options.
// PUT /api/v1/admin/test-cases/:id.
func (h *Handler) UpdateTestCase(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req testCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "title and scenario are required")
		return
	}

	tc, err := h.contentRepo.GetTestCase(id)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Test case not found")
		return
	}
	req.toModel(tc)
	if err := h.contentRepo.UpdateTestCase(tc); err != nil {
		h.log.Error().Err(err).Uint("test_case_id", id).Msg("Failed to update test case")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to update test case")
		return
	}
	c.JSON(http.StatusOK, gin.H{"test_case": tc})
}

// flowRequest creates or updates a flow.
type flowRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	PointValue      int    `json:"point_value"`
	CompletionBonus *int   `json:"completion_bonus"`
	IsActive        *bool  `json:"is_active"`
}

// ListFlows returns every flow with ordered test cases.
// GET /api/v1/admin/flows.
func (h *Handler) ListFlows(c *gin.Context) {
	flows, err := h.contentRepo.ListFlows(false)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list flows")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve flows")
		return
	}
	c.JSON(http.StatusOK, gin.H{"flows": flows})
}

// CreateFlow registers a flow.
// POST /api/v1/admin/flows.
func (h *Handler) CreateFlow(c *gin.Context) {
	var req flowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "name is required")
		return
	}

	flow := &models.Flow{
		Name:            req.Name,
		Description:     req.Description,
		PointValue:      req.PointValue,
		CompletionBonus: 3,
		IsActive:        req.IsActive == nil || *req.IsActive,
	}
	if req.CompletionBonus != nil {
		flow.CompletionBonus = *req.CompletionBonus
	}
	if err := h.contentRepo.CreateFlow(flow); err != nil {
		h.log.Error().Err(err).Msg("Failed to create flow")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to create flow")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"flow": flow})
}

// UpdateFlow updates a flow's scalar fields.
// PUT /api/v1/admin/flows/:id.
func (h *Handler) UpdateFlow(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req flowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "name is required")
		return
	}

	flow, err := h.contentRepo.GetFlow(id)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Flow not found")
		return
	}
	flow.Name = req.Name
	flow.Description = req.Description
	flow.PointValue = req.PointValue
	if req.CompletionBonus != nil {
		flow.CompletionBonus = *req.CompletionBonus
	}
	if req.IsActive != nil {
		flow.IsActive = *req.IsActive
	}
	if err := h.contentRepo.UpdateFlow(flow); err != nil {
		h.log.Error().Err(err).Uint("flow_id", id).Msg("Failed to update flow")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to update flow")
		return
	}
	c.JSON(http.StatusOK, gin.H{"flow": flow})
}

// idListRequest carries an ordered list of IDs.
type idListRequest struct {
	IDs []uint `json:"ids"`
}

// SetFlowTestCases replaces a flow's test case list with the given order.
// PUT /api/v1/admin/flows/:id/test-cases.
func (h *Handler) SetFlowTestCases(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req idListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "ids are required")
		return
	}

	if err := h.contentRepo.SetFlowTestCases(id, req.IDs); err != nil {
		h.log.Error().Err(err).Uint("flow_id", id).Msg("Failed to set flow test cases")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to update flow")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// SetFlowPrerequisites replaces a flow's prerequisite flows.
// PUT /api/v1/admin/flows/:id/prerequisites.
func (h *Handler) SetFlowPrerequisites(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req idListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "ids are required")
		return
	}

	if err := h.contentRepo.SetFlowPrerequisites(id, req.IDs); err != nil {
		h.log.Error().Err(err).Uint("flow_id", id).Msg("Failed to set prerequisites")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to update flow")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// ListTesters returns every tester account ranked by points.
// GET /api/v1/admin/testers.
func (h *Handler) ListTesters(c *gin.Context) {
	testers, err := h.testerRepo.ListTesters()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list testers")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve testers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"testers": testers})
}

// setGroupRequest moves a tester into a group; null clears membership.
type setGroupRequest struct {
	GroupID *uint `json:"group_id"`
}

// SetTesterGroup changes a tester's group membership.
// PUT /api/v1/admin/testers/:id/group.
func (h *Handler) SetTesterGroup(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req setGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid body")
		return
	}

	if err := h.testerRepo.SetGroup(id, req.GroupID); err != nil {
		h.errorResponse(c, http.StatusNotFound, "Tester not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
