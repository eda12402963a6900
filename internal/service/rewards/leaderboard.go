package rewards

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aimd54/testquiz/internal/cache"
	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/internal/repository"
)

// Entry is one leaderboard row. Positions start at 1; ties break by the
// lower tester ID, so earlier registrations rank ahead on equal points.
type Entry struct {
	Position int    `json:"position"`
	TesterID uint   `json:"tester_id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
}

// Standings returns every active tester ranked by points. The full list
// is cached; ledger mutations invalidate it.
func (s *Service) Standings() ([]Entry, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(context.Background(), cache.LeaderboardKey)
		if err != nil {
			s.log.Warn().Err(err).Msg("Leaderboard cache read failed")
		} else if raw != "" {
			var cached []Entry
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
			s.log.Warn().Msg("Discarding malformed leaderboard cache entry")
		}
	}

	testers, err := repository.NewTesterRepository(s.db).ListTesters()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(testers))
	for i, tester := range testers {
		entries = append(entries, Entry{
			Position: i + 1,
			TesterID: tester.ID,
			Username: tester.Username,
			Points:   tester.Points,
		})
	}

	if s.cache != nil {
		if raw, err := json.Marshal(entries); err == nil {
			ttl := time.Duration(s.cfg.LeaderboardCacheTTL) * time.Second
			if err := s.cache.Set(context.Background(), cache.LeaderboardKey, string(raw), ttl); err != nil {
				s.log.Warn().Err(err).Msg("Leaderboard cache write failed")
			}
		}
	}
	return entries, nil
}

// Top returns the first limit standings rows. A non-positive limit falls
// back to the configured default.
func (s *Service) Top(limit int) ([]Entry, error) {
	entries, err := s.Standings()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.LeaderboardLimit
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Rank returns a tester's leaderboard entry, or nil when the tester is
// not ranked.
func (s *Service) Rank(testerID uint) (*Entry, error) {
	entries, err := s.Standings()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].TesterID == testerID {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// Dashboard is the tester's points-and-rank home view.
type Dashboard struct {
	Entry         *Entry          `json:"entry"`
	CurrentReward *models.Reward  `json:"current_reward"`
	NextReward    *models.Reward  `json:"next_reward"`
	PointsToNext  int             `json:"points_to_next"`
	Top           []Entry         `json:"top"`
	Season        *models.SeasonSettings `json:"season"`
}

// TesterDashboard assembles rank, current and next reward, the points gap
// to the next rewarded tier, and the top of the leaderboard.
func (s *Service) TesterDashboard(testerID uint) (*Dashboard, error) {
	entries, err := s.Standings()
	if err != nil {
		return nil, err
	}

	d := &Dashboard{}
	for i := range entries {
		if entries[i].TesterID == testerID {
			d.Entry = &entries[i]
			break
		}
	}

	if len(entries) > 10 {
		d.Top = entries[:10]
		// A tester ranked below the cut still sees their own row.
		if d.Entry != nil && d.Entry.Position > 10 {
			d.Top = append(d.Top[:10:10], *d.Entry)
		}
	} else {
		d.Top = entries
	}

	season, err := repository.NewSeasonRepository(s.db).GetActiveSettings(s.cfg.DefaultName)
	if err != nil {
		return nil, err
	}
	d.Season = season

	if d.Entry == nil {
		return d, nil
	}

	active, err := repository.NewRewardRepository(s.db).ListActive()
	if err != nil {
		return nil, err
	}
	d.CurrentReward = ResolveReward(active, d.Entry.Position)

	// The next tier is the rewarded range closest above the tester's
	// position. Beating the tester at its bottom position takes that
	// tester's points plus one.
	for i := range active {
		if active[i].PositionTo < d.Entry.Position {
			d.NextReward = &active[i]
		}
	}
	if d.NextReward != nil {
		target := d.NextReward.PositionTo
		if target >= 1 && target <= len(entries) {
			gap := entries[target-1].Points - d.Entry.Points + 1
			if gap > 0 {
				d.PointsToNext = gap
			}
		}
	}
	return d, nil
}
