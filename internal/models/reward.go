package models

import (
	"time"
)

// Reward claim statuses.
const (
	ClaimPending   = "pending"
	ClaimClaimed   = "claimed"
	ClaimDelivered = "delivered"
)

// Reward maps a contiguous leaderboard position range to a prize.
// Ranges are not validated against each other; resolution takes the first
// match in positionFrom order.
type Reward struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"not null;size:255" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	PositionFrom     int       `gorm:"not null" json:"position_from"`
	PositionTo       int       `gorm:"not null" json:"position_to"`
	PrizeAmount      float64   `gorm:"default:0" json:"prize_amount"`
	PrizeDescription string    `gorm:"size:512" json:"prize_description"`
	IsActive         bool      `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for Reward model.
func (Reward) TableName() string {
	return "rewards"
}

// Covers reports whether the position falls inside the reward's range.
func (r *Reward) Covers(position int) bool {
	return position >= r.PositionFrom && position <= r.PositionTo
}

// RewardClaim records that a tester occupied a rewarded position at award
// time. Status moves pending -> claimed -> delivered.
type RewardClaim struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TesterID    uint       `gorm:"not null;index" json:"tester_id"`
	Tester      Tester     `gorm:"foreignKey:TesterID" json:"tester,omitempty"`
	RewardID    uint       `gorm:"not null;index" json:"reward_id"`
	Reward      Reward     `gorm:"foreignKey:RewardID" json:"reward,omitempty"`
	Position    int        `gorm:"not null" json:"position"`
	Points      int        `gorm:"not null" json:"points"`
	PrizeAmount float64    `gorm:"default:0" json:"prize_amount"`
	Status      string     `gorm:"size:50;default:pending" json:"status"`
	Notes       string     `gorm:"type:text" json:"notes"`
	ClaimedAt   *time.Time `json:"claimed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for RewardClaim model.
func (RewardClaim) TableName() string {
	return "reward_claims"
}
