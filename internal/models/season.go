package models

import (
	"time"
)

// SeasonSettings holds the single active season's name, budget and dates.
// Closing a season archives the leaderboard, zeroes every tester balance and
// rolls these settings into a fresh season.
type SeasonSettings struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:255;default:Current Season" json:"name"`
	Budget    float64    `gorm:"default:0" json:"budget"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	IsActive  bool       `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for SeasonSettings model.
func (SeasonSettings) TableName() string {
	return "season_settings"
}

// SeasonArchive is the immutable snapshot of a closed season's leaderboard.
// After the close it is the sole historical record of that season's points.
type SeasonArchive struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"not null;size:255" json:"name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	ClosedAt  time.Time  `gorm:"not null" json:"closed_at"`

	Entries []SeasonArchiveEntry `gorm:"foreignKey:ArchiveID" json:"entries,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for SeasonArchive model.
func (SeasonArchive) TableName() string {
	return "season_archives"
}

// SeasonArchiveEntry is one leaderboard row frozen at season close, with the
// reward resolved for that position (if any).
type SeasonArchiveEntry struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	ArchiveID        uint    `gorm:"not null;index" json:"archive_id"`
	TesterID         uint    `gorm:"not null" json:"tester_id"`
	Username         string  `gorm:"not null;size:255" json:"username"`
	Position         int     `gorm:"not null" json:"position"`
	Points           int     `gorm:"not null" json:"points"`
	RewardName       string  `gorm:"size:255" json:"reward_name"`
	PrizeDescription string  `gorm:"size:512" json:"prize_description"`
	PrizeAmount      float64 `gorm:"default:0" json:"prize_amount"`
}

// TableName specifies the table name for SeasonArchiveEntry model.
func (SeasonArchiveEntry) TableName() string {
	return "season_archive_entries"
}
