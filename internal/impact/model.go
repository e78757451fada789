package impact

import (
	"time"

	"sproutchef/internal/docstore"
)

// Stage is the forest a user has grown.
type Stage string

const (
	Seed          Stage = "SEED"
	Sprout        Stage = "SPROUT"
	Sapling       Stage = "SAPLING"
	Forest        Stage = "FOREST"
	AncientForest Stage = "ANCIENT_FOREST"
)

// Rewards for logging one meal.
const (
	XPPerMeal    = 10
	CoinsPerMeal = 5
	XPPerLevel   = 100
)

var stageThresholds = []struct {
	minXP int
	stage Stage
}{
	{500, AncientForest},
	{300, Forest},
	{150, Sapling},
	{50, Sprout},
	{0, Seed},
}

// StageFor returns the stage reached with xp. It never decreases as xp grows.
func StageFor(xp int) Stage {
	for _, t := range stageThresholds {
		if xp >= t.minXP {
			return t.stage
		}
	}
	return Seed
}

// Level returns the level reached with xp, starting at 1.
func Level(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/XPPerLevel + 1
}

// NextStreak returns the streak after activity at now, given the current
// streak and the previous activity. Days are calendar days in loc: activity
// on the same day keeps the streak, on the next day extends it, and after a
// gap restarts it at 1.
func NextStreak(current int, last *time.Time, now time.Time, loc *time.Location) int {
	if last == nil || current <= 0 {
		return 1
	}
	switch days := dayNumber(now, loc) - dayNumber(*last, loc); {
	case days <= 0:
		return current
	case days == 1:
		return current + 1
	default:
		return 1
	}
}

func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// Impact is the gamification state of one user.
type Impact struct {
	ID               string       `json:"_id,omitempty"`
	AliasID          string       `json:"id,omitempty"`
	UserID           docstore.Ref `json:"user_id"`
	TotalMeals       int          `json:"total_meals"`
	XP               int          `json:"xp"`
	Coins            int          `json:"coins"`
	ForestStage      Stage        `json:"forest_stage"`
	StreakDays       int          `json:"streak_days"`
	LastActivityDate *time.Time   `json:"last_activity_date"`
	CreatedAt        time.Time    `json:"created_at"`
}

// Level returns the level of the impact's xp.
func (i *Impact) Level() int {
	return Level(i.XP)
}
