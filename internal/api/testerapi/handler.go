// Package testerapi provides the tester-facing REST handlers: browsing
// flows, submitting test case outcomes, answering branching questions,
// and reading the leaderboard.
package testerapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/testquiz/internal/api/identity"
	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/internal/repository"
	"github.com/aimd54/testquiz/internal/service/branching"
	"github.com/aimd54/testquiz/internal/service/ledger"
	"github.com/aimd54/testquiz/internal/service/progression"
	"github.com/aimd54/testquiz/internal/service/rewards"
	"github.com/aimd54/testquiz/internal/service/visibility"
	"github.com/aimd54/testquiz/pkg/logger"
)

// Handler handles tester API requests.
type Handler struct {
	contentRepo *repository.ContentRepository
	subRepo     *repository.SubmissionRepository
	testerRepo  *repository.TesterRepository
	visibility  *visibility.Service
	tracker     *progression.Tracker
	ledger      *ledger.Service
	rewards     *rewards.Service
	branching   *branching.Service
	log         *logger.Logger
}

// NewHandler creates a new tester API handler.
func NewHandler(
	db *repository.DB,
	visibilitySvc *visibility.Service,
	tracker *progression.Tracker,
	ledgerSvc *ledger.Service,
	rewardsSvc *rewards.Service,
	branchingSvc *branching.Service,
	log *logger.Logger,
) *Handler {
	return &Handler{
		contentRepo: repository.NewContentRepository(db),
		subRepo:     repository.NewSubmissionRepository(db),
		testerRepo:  repository.NewTesterRepository(db),
		visibility:  visibilitySvc,
		tracker:     tracker,
		ledger:      ledgerSvc,
		rewards:     rewardsSvc,
		branching:   branchingSvc,
		log:         log,
	}
}

// RegisterRoutes mounts the tester endpoints on the group. The group is
// expected to carry the identity middleware.
func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/dashboard", h.GetDashboard)
	g.GET("/flows", h.ListFlows)
	g.GET("/flows/:id", h.GetFlow)
	g.POST("/flows/:id/submissions", h.Submit)
	g.GET("/submissions", h.ListSubmissions)
	g.POST("/submissions/:id/answer", h.AnswerQuestion)
	g.GET("/leaderboard", h.GetLeaderboard)
	g.GET("/claims", h.ListClaims)
	g.POST("/tutorial", h.MarkTutorialSeen)
}

// flowSummary is one row of the tester's flow list.
type flowSummary struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	PointValue      int    `json:"point_value"`
	CompletionBonus int    `json:"completion_bonus"`
	TestCases       int    `json:"test_cases"`
	Completed       int    `json:"completed"`
	IsCompleted     bool   `json:"is_completed"`
	Startable       bool   `json:"startable"`
	Prerequisites   []uint `json:"prerequisites,omitempty"`
}

// ListFlows returns the active flows with the tester's visible test case
// counts, completion state, and whether prerequisites allow starting.
// GET /api/v1/flows.
func (h *Handler) ListFlows(c *gin.Context) {
	tester := identity.CurrentTester(c)

	flows, err := h.contentRepo.ListFlows(true)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list flows")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve flows")
		return
	}

	summaries := make([]flowSummary, 0, len(flows))
	for i := range flows {
		flow := &flows[i]
		startable, err := h.visibility.CanStartFlow(tester.ID, flow)
		if err != nil {
			h.log.Error().Err(err).Uint("flow_id", flow.ID).Msg("Failed to evaluate prerequisites")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve flows")
			return
		}

		visible := visibility.VisibleTestCases(tester, flow.OrderedTestCases())
		summary := flowSummary{
			ID:              flow.ID,
			Name:            flow.Name,
			Description:     flow.Description,
			PointValue:      flow.PointValue,
			CompletionBonus: flow.CompletionBonus,
			TestCases:       len(visible),
			Startable:       startable,
			Prerequisites:   flow.PrerequisiteIDs(),
		}

		progress, err := h.tracker.Peek(tester.ID, flow.ID)
		if err != nil {
			h.log.Error().Err(err).Uint("flow_id", flow.ID).Msg("Failed to read progress")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve flows")
			return
		}
		if progress != nil {
			completed := progress.CompletedSet()
			for _, tc := range visible {
				if completed[tc.ID] {
					summary.Completed++
				}
			}
			summary.IsCompleted = progress.IsCompleted
		}
		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, gin.H{"flows": summaries})
}

// testCaseView is a visible test case with the tester's completion state.
type testCaseView struct {
	ID             uint   `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Scenario       string `json:"scenario"`
	ExpectedResult string `json:"expected_result"`
	Points         int    `json:"points"`
	Question       string `json:"question,omitempty"`
	Completed      bool   `json:"completed"`
}

// GetFlow returns a flow's visible test cases and the tester's position in
// it. Accessing the flow creates the progress record. A flow whose
// prerequisites are unmet is not entered; the response names the flows to
// finish first.
// GET /api/v1/flows/:id.
func (h *Handler) GetFlow(c *gin.Context) {
	tester := identity.CurrentTester(c)
	flowID, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	flow, err := h.contentRepo.GetFlow(flowID)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Flow not found")
		return
	}
	if !flow.IsActive {
		h.errorResponse(c, http.StatusNotFound, "Flow not found")
		return
	}

	startable, err := h.visibility.CanStartFlow(tester.ID, flow)
	if err != nil {
		h.log.Error().Err(err).Uint("flow_id", flow.ID).Msg("Failed to evaluate prerequisites")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to open flow")
		return
	}
	if !startable {
		c.JSON(http.StatusForbidden, gin.H{
			"error":         "prerequisites not met",
			"prerequisites": flow.PrerequisiteIDs(),
		})
		return
	}

	progress, err := h.tracker.Access(tester, flow)
	if err != nil {
		h.log.Error().Err(err).Uint("flow_id", flow.ID).Msg("Failed to open flow")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to open flow")
		return
	}

	completed := progress.CompletedSet()
	visible := visibility.VisibleTestCases(tester, flow.OrderedTestCases())
	views := make([]testCaseView, 0, len(visible))
	for _, tc := range visible {
		views = append(views, testCaseView{
			ID:             tc.ID,
			Title:          tc.Title,
			Description:    tc.Description,
			Scenario:       tc.Scenario,
			ExpectedResult: tc.ExpectedResult,
			Points:         tc.Points,
			Question:       tc.Question,
			Completed:      completed[tc.ID],
		})
	}

	resp := gin.H{
		"id":               flow.ID,
		"name":             flow.Name,
		"description":      flow.Description,
		"point_value":      flow.PointValue,
		"completion_bonus": flow.CompletionBonus,
		"is_completed":     progress.IsCompleted,
		"test_cases":       views,
	}
	if next := h.tracker.NextTestCase(tester, flow, progress); next != nil {
		resp["next_test_case_id"] = next.ID
	}
	c.JSON(http.StatusOK, resp)
}

// submitRequest is the body of a test case submission.
type submitRequest struct {
	TestCaseID uint   `json:"test_case_id" binding:"required"`
	Status     string `json:"status" binding:"required"`
	Feedback   string `json:"feedback"`
	Screenshot string `json:"screenshot"`
}

// Submit records a test case outcome. Points are stored pending on the
// submission; the response carries the branching question when the test
// case has one.
// POST /api/v1/flows/:id/submissions.
func (h *Handler) Submit(c *gin.Context) {
	tester := identity.CurrentTester(c)
	flowID, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "test_case_id and status are required")
		return
	}

	flow, err := h.contentRepo.GetFlow(flowID)
	if err != nil || !flow.IsActive {
		h.errorResponse(c, http.StatusNotFound, "Flow not found")
		return
	}

	startable, err := h.visibility.CanStartFlow(tester.ID, flow)
	if err != nil {
		h.log.Error().Err(err).Uint("flow_id", flow.ID).Msg("Failed to evaluate prerequisites")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to record submission")
		return
	}
	if !startable {
		h.errorResponse(c, http.StatusForbidden, "prerequisites not met")
		return
	}

	sub, err := h.ledger.Submit(tester, flow, ledger.SubmitInput{
		TestCaseID: req.TestCaseID,
		Status:     req.Status,
		Feedback:   req.Feedback,
		Screenshot: req.Screenshot,
	})
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp := gin.H{"submission": sub}
	for _, fc := range flow.TestCases {
		if fc.TestCaseID == req.TestCaseID && fc.TestCase.Question != "" {
			resp["question"] = fc.TestCase.Question
			resp["options"] = fc.TestCase.Options
			break
		}
	}
	c.JSON(http.StatusCreated, resp)
}

// answerRequest selects a branching option.
type answerRequest struct {
	OptionID uint `json:"option_id" binding:"required"`
}

// AnswerQuestion records the tester's branching answer; a reassign option
// moves the tester to its target group.
// POST /api/v1/submissions/:id/answer.
func (h *Handler) AnswerQuestion(c *gin.Context) {
	tester := identity.CurrentTester(c)
	subID, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "option_id is required")
		return
	}

	option, err := h.branching.AnswerQuestion(tester, subID, req.OptionID)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp := gin.H{"action": option.Action}
	if option.Action == models.BranchActionReassign && option.TargetGroupID != nil {
		resp["group_id"] = *option.TargetGroupID
	}
	c.JSON(http.StatusOK, resp)
}

// ListSubmissions returns the tester's own submissions, newest first.
// GET /api/v1/submissions?flow_id=.
func (h *Handler) ListSubmissions(c *gin.Context) {
	tester := identity.CurrentTester(c)

	filter := repository.SubmissionFilter{TesterID: tester.ID}
	if raw := c.Query("flow_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			h.errorResponse(c, http.StatusBadRequest, "invalid flow_id")
			return
		}
		filter.FlowID = uint(id)
	}

	subs, err := h.subRepo.List(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list submissions")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve submissions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}

// GetLeaderboard returns the ranked standings.
// GET /api/v1/leaderboard?limit=50.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.errorResponse(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.rewards.Top(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read leaderboard")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "generated_at": time.Now().UTC()})
}

// GetDashboard returns the tester's rank, reward tiers, and the top of
// the leaderboard.
// GET /api/v1/dashboard.
func (h *Handler) GetDashboard(c *gin.Context) {
	tester := identity.CurrentTester(c)

	d, err := h.rewards.TesterDashboard(tester.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build dashboard")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve dashboard")
		return
	}
	c.JSON(http.StatusOK, d)
}

// ListClaims returns the tester's reward claims.
// GET /api/v1/claims.
func (h *Handler) ListClaims(c *gin.Context) {
	tester := identity.CurrentTester(c)

	claims, err := h.rewards.ListClaimsByTester(tester.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list claims")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve claims")
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

// MarkTutorialSeen records that the tester dismissed the intro tour.
// POST /api/v1/tutorial.
func (h *Handler) MarkTutorialSeen(c *gin.Context) {
	tester := identity.CurrentTester(c)
	if !tester.TutorialSeen {
		tester.TutorialSeen = true
		if err := h.testerRepo.Update(tester); err != nil {
			h.log.Error().Err(err).Msg("Failed to update tester")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to save")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"tutorial_seen": true})
}

// parseID extracts the numeric ID from the URL parameter.
func (h *Handler) parseID(c *gin.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid ID: %s", raw)
	}
	return uint(id), nil
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
