// Package adminapi provides the admin REST handlers: submission review,
// content management, rewards, season lifecycle, analytics, and content
// export/import.
package adminapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/testquiz/internal/repository"
	"github.com/aimd54/testquiz/internal/service/export"
	"github.com/aimd54/testquiz/internal/service/ledger"
	"github.com/aimd54/testquiz/internal/service/rewards"
	"github.com/aimd54/testquiz/pkg/logger"
)

// Handler handles admin API requests.
type Handler struct {
	contentRepo *repository.ContentRepository
	subRepo     *repository.SubmissionRepository
	testerRepo  *repository.TesterRepository
	ledger      *ledger.Service
	rewards     *rewards.Service
	export      *export.Service
	log         *logger.Logger
}

// NewHandler creates a new admin API handler.
func NewHandler(
	db *repository.DB,
	ledgerSvc *ledger.Service,
	rewardsSvc *rewards.Service,
	exportSvc *export.Service,
	log *logger.Logger,
) *Handler {
	return &Handler{
		contentRepo: repository.NewContentRepository(db),
		subRepo:     repository.NewSubmissionRepository(db),
		testerRepo:  repository.NewTesterRepository(db),
		ledger:      ledgerSvc,
		rewards:     rewardsSvc,
		export:      exportSvc,
		log:         log,
	}
}

// RegisterRoutes mounts the admin endpoints on the group. The group is
// expected to carry the identity and admin middlewares.
func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/overview", h.GetOverview)

	g.GET("/submissions", h.ListSubmissions)
	g.GET("/submissions.csv", h.ExportSubmissionsCSV)
	g.POST("/submissions/:id/approve", h.ApproveSubmission)
	g.POST("/submissions/:id/useful", h.MarkUseful)
	g.POST("/submissions/:id/toggle", h.ToggleComponent)
	g.POST("/submissions/:id/rerun", h.RerunSubmission)
	g.PUT("/submissions/:id/notes", h.SetNotes)
	g.DELETE("/submissions/:id", h.ResetSubmission)

	g.GET("/groups", h.ListGroups)
	g.POST("/groups", h.CreateGroup)
	g.GET("/test-cases", h.ListTestCases)
	g.POST("/test-cases", h.CreateTestCase)
	g.PUT("/test-cases/:id", h.UpdateTestCase)
	g.GET("/flows", h.ListFlows)
	g.POST("/flows", h.CreateFlow)
	g.PUT("/flows/:id", h.UpdateFlow)
	g.PUT("/flows/:id/test-cases", h.SetFlowTestCases)
	g.PUT("/flows/:id/prerequisites", h.SetFlowPrerequisites)
	g.DELETE("/flows/:id/testers/:tester_id", h.ResetFlow)

	g.GET("/testers", h.ListTesters)
	g.PUT("/testers/:id/group", h.SetTesterGroup)

	g.GET("/rewards", h.ListRewards)
	g.POST("/rewards", h.CreateReward)
	g.PUT("/rewards/:id", h.UpdateReward)
	g.DELETE("/rewards/:id", h.DeleteReward)
	g.POST("/rewards/award", h.AwardRewards)
	g.GET("/claims", h.ListClaims)
	g.PUT("/claims/:id/status", h.UpdateClaimStatus)

	g.GET("/season", h.GetSeason)
	g.PUT("/season", h.UpdateSeason)
	g.POST("/season/close", h.CloseSeason)
	g.GET("/season/archives", h.ListArchives)
	g.GET("/season/archives/:id", h.GetArchive)

	g.GET("/analytics/flows", h.GetFlowAnalytics)
	g.GET("/analytics/test-cases", h.GetTestCaseAnalytics)

	g.GET("/content/export", h.ExportContent)
	g.POST("/content/import", h.ImportContent)
}

// GetOverview returns the admin dashboard headline numbers and the most
// recent submissions.
// GET /api/v1/admin/overview.
func (h *Handler) GetOverview(c *gin.Context) {
	overview, err := h.ledger.AdminOverview()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute overview")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve overview")
		return
	}
	recent, err := h.subRepo.Recent(10)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list recent submissions")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve overview")
		return
	}
	c.JSON(http.StatusOK, gin.H{"overview": overview, "recent_submissions": recent})
}

// GetFlowAnalytics returns per-flow submission aggregates.
// GET /api/v1/admin/analytics/flows.
func (h *Handler) GetFlowAnalytics(c *gin.Context) {
	stats, err := h.ledger.FlowAnalytics()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute flow analytics")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve analytics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"flows": stats})
}

// GetTestCaseAnalytics returns per-test-case outcome aggregates.
// GET /api/v1/admin/analytics/test-cases.
func (h *Handler) GetTestCaseAnalytics(c *gin.Context) {
	stats, err := h.ledger.TestCaseAnalytics()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute test case analytics")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve analytics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"test_cases": stats})
}

// ExportContent returns the content catalog as a YAML bundle.
// GET /api/v1/admin/content/export.
func (h *Handler) ExportContent(c *gin.Context) {
	data, err := h.export.Export()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to export content")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to export content")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="content.yaml"`)
	c.Data(http.StatusOK, "application/yaml", data)
}

// ImportContent restores a YAML content bundle.
// POST /api/v1/admin/content/import.
func (h *Handler) ImportContent(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil || len(data) == 0 {
		h.errorResponse(c, http.StatusBadRequest, "bundle body is required")
		return
	}

	summary, err := h.export.Import(data)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}

// parseID extracts a numeric URL parameter.
func (h *Handler) parseID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", name, raw)
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
