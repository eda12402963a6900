package adminapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/testquiz/internal/models"
)

// rewardRequest creates or updates a reward tier.
type rewardRequest struct {
	Name             string  `json:"name" binding:"required"`
	Description      string  `json:"description"`
	PositionFrom     int     `json:"position_from" binding:"required"`
	PositionTo       int     `json:"position_to" binding:"required"`
	PrizeAmount      float64 `json:"prize_amount"`
	PrizeDescription string  `json:"prize_description"`
	IsActive         *bool   `json:"is_active"`
}

func (r *rewardRequest) valid() bool {
	return r.PositionFrom >= 1 && r.PositionTo >= r.PositionFrom
}

// ListRewards returns every reward tier.
// GET /api/v1/admin/rewards.
func (h *Handler) ListRewards(c *gin.Context) {
	list, err := h.rewards.ListRewards()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list rewards")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve rewards")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": list})
}

// CreateReward registers a position range and its prize.
// POST /api/v1/admin/rewards.
func (h *Handler) CreateReward(c *gin.Context) {
	var req rewardRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() {
		h.errorResponse(c, http.StatusBadRequest, "name and a valid position range are required")
		return
	}

	reward := &models.Reward{
		Name:             req.Name,
		Description:      req.Description,
		PositionFrom:     req.PositionFrom,
		PositionTo:       req.PositionTo,
		PrizeAmount:      req.PrizeAmount,
		PrizeDescription: req.PrizeDescription,
		IsActive:         req.IsActive == nil || *req.IsActive,
	}
	if err := h.rewards.CreateReward(reward); err != nil {
		h.log.Error().Err(err).Msg("Failed to create reward")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to create reward")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reward": reward})
}

// UpdateReward saves changes to a reward tier.
// PUT /api/v1/admin/rewards/:id.
func (h *Handler) UpdateReward(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req rewardRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() {
		h.errorResponse(c, http.StatusBadRequest, "name and a valid position range are required")
		return
	}

	reward := &models.Reward{
		ID:               id,
		Name:             req.Name,
		Description:      req.Description,
		PositionFrom:     req.PositionFrom,
		PositionTo:       req.PositionTo,
		PrizeAmount:      req.PrizeAmount,
		PrizeDescription: req.PrizeDescription,
		IsActive:         req.IsActive == nil || *req.IsActive,
	}
	if err := h.rewards.UpdateReward(reward); err != nil {
		h.errorResponse(c, http.StatusNotFound, "Reward not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reward": reward})
}

// DeleteReward removes a reward tier. Frozen claims keep their values.
// DELETE /api/v1/admin/rewards/:id.
func (h *Handler) DeleteReward(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.rewards.DeleteReward(id); err != nil {
		h.errorResponse(c, http.StatusNotFound, "Reward not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// AwardRewards creates pending claims for every rewarded position.
// POST /api/v1/admin/rewards/award.
func (h *Handler) AwardRewards(c *gin.Context) {
	created, err := h.rewards.AwardRewards()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to award rewards")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to award rewards")
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims_created": len(created), "claims": created})
}

// ListClaims returns every reward claim.
// GET /api/v1/admin/claims.
func (h *Handler) ListClaims(c *gin.Context) {
	claims, err := h.rewards.ListClaims()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list claims")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve claims")
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

// claimStatusRequest moves a claim to a new status.
type claimStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateClaimStatus moves a claim along pending -> claimed -> delivered.
// PUT /api/v1/admin/claims/:id/status.
func (h *Handler) UpdateClaimStatus(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req claimStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "status is required")
		return
	}

	if err := h.rewards.UpdateClaimStatus(id, req.Status); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// seasonRequest updates the running season's settings.
type seasonRequest struct {
	Name      string     `json:"name"`
	Budget    float64    `json:"budget"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// GetSeason returns the active season settings.
// GET /api/v1/admin/season.
func (h *Handler) GetSeason(c *gin.Context) {
	settings, err := h.rewards.Settings()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load season settings")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve season")
		return
	}
	c.JSON(http.StatusOK, gin.H{"season": settings})
}

// UpdateSeason saves season name, budget, and dates.
// PUT /api/v1/admin/season.
func (h *Handler) UpdateSeason(c *gin.Context) {
	var req seasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid body")
		return
	}

	settings, err := h.rewards.Settings()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load season settings")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to update season")
		return
	}
	if req.Name != "" {
		settings.Name = req.Name
	}
	settings.Budget = req.Budget
	settings.StartDate = req.StartDate
	settings.EndDate = req.EndDate
	if err := h.rewards.UpdateSettings(settings); err != nil {
		h.log.Error().Err(err).Msg("Failed to update season settings")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to update season")
		return
	}
	c.JSON(http.StatusOK, gin.H{"season": settings})
}

// closeSeasonRequest optionally names the next season.
type closeSeasonRequest struct {
	NextName string `json:"next_name"`
}

// CloseSeason archives the leaderboard, zeroes balances, and starts a
// fresh season.
// POST /api/v1/admin/season/close.
func (h *Handler) CloseSeason(c *gin.Context) {
	var req closeSeasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.errorResponse(c, http.StatusBadRequest, "invalid body")
			return
		}
	}

	archive, err := h.rewards.CloseSeason(req.NextName)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to close season")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to close season")
		return
	}
	c.JSON(http.StatusOK, gin.H{"archive": archive})
}

// ListArchives returns closed seasons, newest first.
// GET /api/v1/admin/season/archives.
func (h *Handler) ListArchives(c *gin.Context) {
	archives, err := h.rewards.Archives()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list archives")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve archives")
		return
	}
	c.JSON(http.StatusOK, gin.H{"archives": archives})
}

// GetArchive returns one closed season's frozen leaderboard.
// GET /api/v1/admin/season/archives/:id.
func (h *Handler) GetArchive(c *gin.Context) {
	id, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	archive, err := h.rewards.Archive(id)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Archive not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"archive": archive})
}
