package rewards

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aimd54/testquiz/internal/cache"
	"github.com/aimd54/testquiz/internal/config"
	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/internal/repository"
	"github.com/aimd54/testquiz/pkg/logger"
)

func setupRewardsTest(t *testing.T) (*Service, *repository.DB) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db := &repository.DB{DB: gdb}
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	cfg := config.SeasonConfig{DefaultName: "Current Season", LeaderboardCacheTTL: 30, LeaderboardLimit: 50}
	return NewService(db, nil, cfg, logger.Get()), db
}

func setupRewardsTestWithCache(t *testing.T) (*Service, *repository.DB, *miniredis.Miniredis) {
	t.Helper()

	svc, db := setupRewardsTest(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc.cache = cache.NewRedisCacheFromClient(client)
	return svc, db, mr
}

func createRankedTester(t *testing.T, db *repository.DB, username string, points int) *models.Tester {
	t.Helper()

	tester := &models.Tester{Username: username, Role: models.RoleTester, Points: points, IsActive: true}
	if err := repository.NewTesterRepository(db).Create(tester); err != nil {
		t.Fatalf("Failed to create tester: %v", err)
	}
	return tester
}

func createTestReward(t *testing.T, db *repository.DB, name string, from, to int, amount float64) *models.Reward {
	t.Helper()

	reward := &models.Reward{Name: name, PositionFrom: from, PositionTo: to, PrizeAmount: amount, IsActive: true}
	if err := repository.NewRewardRepository(db).Create(reward); err != nil {
		t.Fatalf("Failed to create reward: %v", err)
	}
	return reward
}

func TestResolveReward_FirstMatchWins(t *testing.T) {
	rewards := []models.Reward{
		{ID: 1, Name: "gold", PositionFrom: 1, PositionTo: 3},
		{ID: 2, Name: "silver", PositionFrom: 3, PositionTo: 10},
	}

	got := ResolveReward(rewards, 3)
	if got == nil || got.Name != "gold" {
		t.Errorf("Expected overlapping position 3 to resolve to gold, got %v", got)
	}
	if ResolveReward(rewards, 11) != nil {
		t.Error("Expected no reward outside every range")
	}
}

func TestStandings_OrderAndTieBreak(t *testing.T) {
	svc, db := setupRewardsTest(t)
	a := createRankedTester(t, db, "alice", 10)
	b := createRankedTester(t, db, "bob", 25)
	c := createRankedTester(t, db, "carol", 10)

	entries, err := svc.Standings()
	if err != nil {
		t.Fatalf("Standings failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].TesterID != b.ID || entries[0].Position != 1 {
		t.Errorf("Expected bob first, got %s at %d", entries[0].Username, entries[0].Position)
	}
	// Equal points break toward the earlier-created tester.
	if entries[1].TesterID != a.ID || entries[2].TesterID != c.ID {
		t.Errorf("Expected tie order alice then carol, got %s then %s", entries[1].Username, entries[2].Username)
	}
}

func TestStandings_ServedFromCache(t *testing.T) {
	svc, db, _ := setupRewardsTestWithCache(t)
	createRankedTester(t, db, "alice", 10)

	first, err := svc.Standings()
	if err != nil {
		t.Fatalf("Standings failed: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(first))
	}

	// A direct balance change is invisible until the cache is dropped.
	if err := repository.NewTesterRepository(db).AddPoints(first[0].TesterID, 5); err != nil {
		t.Fatalf("AddPoints failed: %v", err)
	}

	cached, err := svc.Standings()
	if err != nil {
		t.Fatalf("Standings failed: %v", err)
	}
	if cached[0].Points != 10 {
		t.Errorf("Expected cached points 10, got %d", cached[0].Points)
	}
}

func TestAwardRewards_Idempotent(t *testing.T) {
	svc, db := setupRewardsTest(t)
	first := createRankedTester(t, db, "alice", 30)
	createRankedTester(t, db, "bob", 20)
	createRankedTester(t, db, "carol", 10)
	reward := createTestReward(t, db, "gold", 1, 2, 100)

	created, err := svc.AwardRewards()
	if err != nil {
		t.Fatalf("AwardRewards failed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("Expected 2 claims for positions 1-2, got %d", len(created))
	}
	if created[0].TesterID != first.ID || created[0].Position != 1 {
		t.Errorf("Expected alice claimed at position 1, got tester %d position %d", created[0].TesterID, created[0].Position)
	}
	if created[0].PrizeAmount != 100 || created[0].Status != models.ClaimPending {
		t.Errorf("Expected pending claim with frozen prize 100, got %s %.0f", created[0].Status, created[0].PrizeAmount)
	}

	again, err := svc.AwardRewards()
	if err != nil {
		t.Fatalf("Second AwardRewards failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("Expected no new claims on rerun, got %d", len(again))
	}

	claims, err := repository.NewRewardRepository(db).ListClaims()
	if err != nil {
		t.Fatalf("ListClaims failed: %v", err)
	}
	if len(claims) != 2 {
		t.Errorf("Expected 2 claims total for reward %d, got %d", reward.ID, len(claims))
	}
}

func TestUpdateClaimStatus(t *testing.T) {
	svc, db := setupRewardsTest(t)
	tester := createRankedTester(t, db, "alice", 30)
	reward := createTestReward(t, db, "gold", 1, 1, 100)

	claim := &models.RewardClaim{TesterID: tester.ID, RewardID: reward.ID, Position: 1, Points: 30, Status: models.ClaimPending}
	if err := repository.NewRewardRepository(db).CreateClaim(claim); err != nil {
		t.Fatalf("CreateClaim failed: %v", err)
	}

	if err := svc.UpdateClaimStatus(claim.ID, "lost"); err == nil {
		t.Error("Expected error for invalid status")
	}

	if err := svc.UpdateClaimStatus(claim.ID, models.ClaimClaimed); err != nil {
		t.Fatalf("UpdateClaimStatus failed: %v", err)
	}
	updated, err := repository.NewRewardRepository(db).GetClaim(tester.ID, reward.ID)
	if err != nil {
		t.Fatalf("GetClaim failed: %v", err)
	}
	if updated.Status != models.ClaimClaimed {
		t.Errorf("Expected status claimed, got %s", updated.Status)
	}
	if updated.ClaimedAt == nil {
		t.Error("Expected claimed_at stamped")
	}
}

func TestCloseSeason(t *testing.T) {
	svc, db := setupRewardsTest(t)
	alice := createRankedTester(t, db, "alice", 30)
	createRankedTester(t, db, "bob", 20)
	createTestReward(t, db, "gold", 1, 1, 100)

	settings, err := svc.Settings()
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	settings.Name = "Spring"
	if err := svc.UpdateSettings(settings); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	archive, err := svc.CloseSeason("Summer")
	if err != nil {
		t.Fatalf("CloseSeason failed: %v", err)
	}

	if archive.Name != "Spring" {
		t.Errorf("Expected archive named Spring, got %s", archive.Name)
	}
	if len(archive.Entries) != 2 {
		t.Fatalf("Expected 2 archive entries, got %d", len(archive.Entries))
	}
	top := archive.Entries[0]
	if top.TesterID != alice.ID || top.Points != 30 || top.RewardName != "gold" {
		t.Errorf("Expected alice archived at 30 points with gold, got %+v", top)
	}
	if archive.Entries[1].RewardName != "" {
		t.Errorf("Expected no reward at position 2, got %s", archive.Entries[1].RewardName)
	}

	reloaded, err := repository.NewTesterRepository(db).GetByID(alice.ID)
	if err != nil {
		t.Fatalf("Failed to reload tester: %v", err)
	}
	if reloaded.Points != 0 {
		t.Errorf("Expected balances zeroed, got %d", reloaded.Points)
	}

	next, err := svc.Settings()
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if next.Name != "Summer" || !next.IsActive {
		t.Errorf("Expected active Summer season, got %s active=%v", next.Name, next.IsActive)
	}
	if next.ID == settings.ID {
		t.Error("Expected a fresh settings row for the new season")
	}
}

func TestTesterDashboard(t *testing.T) {
	svc, db := setupRewardsTest(t)
	createRankedTester(t, db, "alice", 30)
	createRankedTester(t, db, "bob", 20)
	carol := createRankedTester(t, db, "carol", 10)
	createTestReward(t, db, "gold", 1, 2, 100)

	d, err := svc.TesterDashboard(carol.ID)
	if err != nil {
		t.Fatalf("TesterDashboard failed: %v", err)
	}

	if d.Entry == nil || d.Entry.Position != 3 {
		t.Fatalf("Expected carol at position 3, got %+v", d.Entry)
	}
	if d.CurrentReward != nil {
		t.Error("Expected no reward at position 3")
	}
	if d.NextReward == nil || d.NextReward.Name != "gold" {
		t.Fatalf("Expected gold as next tier, got %v", d.NextReward)
	}
	// Bob holds the tier's bottom slot with 20 points; beating that takes 11 more.
	if d.PointsToNext != 11 {
		t.Errorf("Expected 11 points to next tier, got %d", d.PointsToNext)
	}
	if len(d.Top) != 3 {
		t.Errorf("Expected full top list, got %d", len(d.Top))
	}
	if d.Season == nil {
		t.Error("Expected active season on dashboard")
	}
}
