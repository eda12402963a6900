package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aimd54/testquiz/internal/models"
)

// RewardRepository handles rewards and reward claims.
type RewardRepository struct {
	db *DB
}

// NewRewardRepository creates a new reward repository.
func NewRewardRepository(db *DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// Create creates a reward.
func (r *RewardRepository) Create(reward *models.Reward) error {
	if err := r.db.Create(reward).Error; err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}
	return nil
}

// GetByID retrieves a reward.
func (r *RewardRepository) GetByID(id uint) (*models.Reward, error) {
	var reward models.Reward
	if err := r.db.First(&reward, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get reward %d: %w", id, err)
	}
	return &reward, nil
}

// Update saves a reward.
func (r *RewardRepository) Update(reward *models.Reward) error {
	if err := r.db.Save(reward).Error; err != nil {
		return fmt.Errorf("failed to update reward %d: %w", reward.ID, err)
	}
	return nil
}

// Delete removes a reward.
func (r *RewardRepository) Delete(id uint) error {
	if err := r.db.Delete(&models.Reward{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete reward %d: %w", id, err)
	}
	return nil
}

// ListActive retrieves active rewards in positionFrom order. Resolution and
// award both rely on this order for first-match semantics.
func (r *RewardRepository) ListActive() ([]models.Reward, error) {
	var rewards []models.Reward
	err := r.db.
		Where("is_active = ?", true).
		Order("position_from ASC").
		Find(&rewards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active rewards: %w", err)
	}
	return rewards, nil
}

// ListAll retrieves every reward.
func (r *RewardRepository) ListAll() ([]models.Reward, error) {
	var rewards []models.Reward
	if err := r.db.Order("position_from ASC").Find(&rewards).Error; err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, nil
}

// GetClaim retrieves the claim a tester holds for a reward, if any.
func (r *RewardRepository) GetClaim(testerID, rewardID uint) (*models.RewardClaim, error) {
	var claim models.RewardClaim
	err := r.db.
		Where("tester_id = ? AND reward_id = ?", testerID, rewardID).
		First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim for tester %d reward %d: %w", testerID, rewardID, err)
	}
	return &claim, nil
}

// CreateClaim records that a tester occupied a rewarded position.
func (r *RewardRepository) CreateClaim(claim *models.RewardClaim) error {
	if err := r.db.Create(claim).Error; err != nil {
		return fmt.Errorf("failed to create reward claim: %w", err)
	}
	return nil
}

// ListClaimsByTester retrieves a tester's claims, newest first, with rewards
// populated.
func (r *RewardRepository) ListClaimsByTester(testerID uint) ([]models.RewardClaim, error) {
	var claims []models.RewardClaim
	err := r.db.
		Preload("Reward").
		Where("tester_id = ?", testerID).
		Order("created_at DESC").
		Find(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list claims for tester %d: %w", testerID, err)
	}
	return claims, nil
}

// ListClaims retrieves all claims with testers and rewards populated.
func (r *RewardRepository) ListClaims() ([]models.RewardClaim, error) {
	var claims []models.RewardClaim
	err := r.db.
		Preload("Tester").
		Preload("Reward").
		Order("position ASC").
		Find(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reward claims: %w", err)
	}
	return claims, nil
}

// UpdateClaimStatus moves a claim through its lifecycle. claimedAt is set
// when the status becomes 'claimed' and cleared otherwise.
func (r *RewardRepository) UpdateClaimStatus(claimID uint, status string) error {
	var claimedAt *time.Time
	if status == models.ClaimClaimed {
		now := time.Now()
		claimedAt = &now
	}
	err := r.db.Model(&models.RewardClaim{}).
		Where("id = ?", claimID).
		Updates(map[string]interface{}{
			"status":     status,
			"claimed_at": claimedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update claim %d status: %w", claimID, err)
	}
	return nil
}
