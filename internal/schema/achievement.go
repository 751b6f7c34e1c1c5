package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// AchievementCategory groups achievements for display.
type AchievementCategory string

const (
	CategoryTrading   AchievementCategory = "trading"
	CategoryPortfolio AchievementCategory = "portfolio"
	CategoryMilestone AchievementCategory = "milestone"
	CategoryLearning  AchievementCategory = "learning"
)

// Achievement is a rule's state for one account.
type Achievement struct {
	ID          string
	Title       string
	Description string
	Category    AchievementCategory
	Progress    decimal.Decimal
	MaxProgress decimal.Decimal
	Unlocked    bool
	UnlockedAt  time.Time
}

// AchievementUnlock is the append-only record of an unlock. (AccountID, AchievementID) is unique.
type AchievementUnlock struct {
	AccountID     string
	AchievementID string
	UnlockedAt    time.Time
}
