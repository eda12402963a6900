// Package rewards ranks testers, maps leaderboard positions to prizes,
// and runs the season lifecycle.
package rewards

import (
	"fmt"

	"github.com/aimd54/testquiz/internal/cache"
	"github.com/aimd54/testquiz/internal/config"
	"github.com/aimd54/testquiz/internal/metrics"
	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/internal/repository"
	"github.com/aimd54/testquiz/pkg/logger"
)

// Service computes standings and manages rewards, claims, and seasons.
type Service struct {
	db    *repository.DB
	cache cache.Cache
	cfg   config.SeasonConfig
	log   *logger.Logger
}

// NewService creates a new rewards service. The cache may be nil; standings
// are then computed from the database on every read.
func NewService(db *repository.DB, c cache.Cache, cfg config.SeasonConfig, log *logger.Logger) *Service {
	return &Service{
		db:    db,
		cache: c,
		cfg:   cfg,
		log:   log,
	}
}

// ResolveReward returns the active reward covering a leaderboard position.
// Ranges are scanned in positionFrom order and the first match wins, so
// overlapping ranges resolve deterministically.
func ResolveReward(rewards []models.Reward, position int) *models.Reward {
	for i := range rewards {
		if rewards[i].Covers(position) {
			return &rewards[i]
		}
	}
	return nil
}

// CreateReward registers a position range and its prize.
func (s *Service) CreateReward(reward *models.Reward) error {
	return repository.NewRewardRepository(s.db).Create(reward)
}

// UpdateReward saves changes to a reward.
func (s *Service) UpdateReward(reward *models.Reward) error {
	return repository.NewRewardRepository(s.db).Update(reward)
}

// DeleteReward removes a reward. Existing claims keep their frozen prize
// values.
func (s *Service) DeleteReward(id uint) error {
	return repository.NewRewardRepository(s.db).Delete(id)
}

// ListRewards returns all rewards, active first by position.
func (s *Service) ListRewards() ([]models.Reward, error) {
	return repository.NewRewardRepository(s.db).ListAll()
}

// AwardRewards walks the current standings and creates a pending claim for
// every tester sitting in a rewarded position. Idempotent per (tester,
// reward): re-running after rank shuffles only adds claims for newly
// covered testers. Returns the claims created by this run.
func (s *Service) AwardRewards() ([]models.RewardClaim, error) {
	standings, err := s.Standings()
	if err != nil {
		return nil, err
	}

	rewardRepo := repository.NewRewardRepository(s.db)
	active, err := rewardRepo.ListActive()
	if err != nil {
		return nil, err
	}

	var created []models.RewardClaim
	for _, entry := range standings {
		reward := ResolveReward(active, entry.Position)
		if reward == nil {
			continue
		}

		existing, err := rewardRepo.GetClaim(entry.TesterID, reward.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		claim := models.RewardClaim{
			TesterID:    entry.TesterID,
			RewardID:    reward.ID,
			Position:    entry.Position,
			Points:      entry.Points,
			PrizeAmount: reward.PrizeAmount,
			Status:      models.ClaimPending,
		}
		if err := rewardRepo.CreateClaim(&claim); err != nil {
			return nil, err
		}
		created = append(created, claim)
		metrics.RewardClaimsTotal.Inc()
	}

	s.log.Info().Int("claims_created", len(created)).Msg("Reward claims awarded")
	return created, nil
}

// ListClaims returns all claims with tester and reward loaded.
func (s *Service) ListClaims() ([]models.RewardClaim, error) {
	return repository.NewRewardRepository(s.db).ListClaims()
}

// ListClaimsByTester returns a tester's claims, newest first.
func (s *Service) ListClaimsByTester(testerID uint) ([]models.RewardClaim, error) {
	return repository.NewRewardRepository(s.db).ListClaimsByTester(testerID)
}

// UpdateClaimStatus moves a claim along pending -> claimed -> delivered.
// The claim timestamp is stamped when the status lands on claimed.
func (s *Service) UpdateClaimStatus(claimID uint, status string) error {
	switch status {
	case models.ClaimPending, models.ClaimClaimed, models.ClaimDelivered:
	default:
		return fmt.Errorf("invalid claim status %q", status)
	}
	return repository.NewRewardRepository(s.db).UpdateClaimStatus(claimID, status)
}
