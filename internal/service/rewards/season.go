package rewards

import (
	"context"
	"time"

	"github.com/aimd54/testquiz/internal/cache"
	"github.com/aimd54/testquiz/internal/metrics"
	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/internal/repository"
)

// Settings returns the active season, creating the default on first use.
func (s *Service) Settings() (*models.SeasonSettings, error) {
	return repository.NewSeasonRepository(s.db).GetActiveSettings(s.cfg.DefaultName)
}

// UpdateSettings saves season name, budget, and dates.
func (s *Service) UpdateSettings(settings *models.SeasonSettings) error {
	return repository.NewSeasonRepository(s.db).UpdateSettings(settings)
}

// Archives lists closed seasons, newest first.
func (s *Service) Archives() ([]models.SeasonArchive, error) {
	return repository.NewSeasonRepository(s.db).ListArchives()
}

// Archive returns one closed season with its frozen leaderboard.
func (s *Service) Archive(id uint) (*models.SeasonArchive, error) {
	return repository.NewSeasonRepository(s.db).GetArchive(id)
}

// CloseSeason freezes the current leaderboard into an archive with the
// reward each position resolved to, zeroes every tester's balance, and
// rolls the settings into a fresh season named nextName. The whole close
// is one transaction; a failure leaves the running season untouched.
func (s *Service) CloseSeason(nextName string) (*models.SeasonArchive, error) {
	if nextName == "" {
		nextName = s.cfg.DefaultName
	}

	var archive *models.SeasonArchive
	err := s.db.WithTx(func(tx *repository.DB) error {
		seasonRepo := repository.NewSeasonRepository(tx)
		testerRepo := repository.NewTesterRepository(tx)
		rewardRepo := repository.NewRewardRepository(tx)

		settings, err := seasonRepo.GetActiveSettings(s.cfg.DefaultName)
		if err != nil {
			return err
		}
		testers, err := testerRepo.ListTesters()
		if err != nil {
			return err
		}
		active, err := rewardRepo.ListActive()
		if err != nil {
			return err
		}

		now := time.Now()
		archive = &models.SeasonArchive{
			Name:      settings.Name,
			StartDate: settings.StartDate,
			EndDate:   settings.EndDate,
			ClosedAt:  now,
		}
		for i, tester := range testers {
			position := i + 1
			entry := models.SeasonArchiveEntry{
				TesterID: tester.ID,
				Username: tester.Username,
				Position: position,
				Points:   tester.Points,
			}
			if reward := ResolveReward(active, position); reward != nil {
				entry.RewardName = reward.Name
				entry.PrizeDescription = reward.PrizeDescription
				entry.PrizeAmount = reward.PrizeAmount
			}
			archive.Entries = append(archive.Entries, entry)
		}
		if err := seasonRepo.CreateArchive(archive); err != nil {
			return err
		}

		if err := testerRepo.ZeroAllPoints(); err != nil {
			return err
		}

		settings.IsActive = false
		if err := seasonRepo.UpdateSettings(settings); err != nil {
			return err
		}
		next := &models.SeasonSettings{
			Name:      nextName,
			StartDate: &now,
			IsActive:  true,
		}
		return seasonRepo.UpdateSettings(next)
	})
	if err != nil {
		return nil, err
	}

	metrics.SeasonClosesTotal.Inc()
	if s.cache != nil {
		if err := s.cache.Del(context.Background(), cache.LeaderboardKey); err != nil {
			s.log.Warn().Err(err).Msg("Failed to invalidate leaderboard cache")
		}
	}
	s.log.Info().
		Str("season", archive.Name).
		Int("entries", len(archive.Entries)).
		Str("next_season", nextName).
		Msg("Season closed")

	return archive, nil
}
