// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/wellmed/internal/domain/burnout"
)

// Entry is one row of the risk watchlist.
type Entry struct {
	Rank          int               `json:"rank"`
	UserID        string            `json:"user_id"`
	Score         float64           `json:"score"`
	CombinedScore string            `json:"combinedScore"`
	RiskLevel     burnout.RiskLevel `json:"riskLevel"`
	Trend         burnout.Trend     `json:"trend,omitempty"`
}

// Profile is a user's latest scored risk with its presentation fields.
type Profile struct {
	UserID    string         `json:"user_id"`
	Rank      int            `json:"rank"`
	Result    burnout.Result `json:"result"`
	Trend     burnout.Trend  `json:"trend,omitempty"`
	MoodTrend burnout.Trend  `json:"moodTrend,omitempty"`
	Insight   string         `json:"insight"`
	Color     string         `json:"color"`
	Icon      string         `json:"icon"`
	Streak    StreakSummary  `json:"streak"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// StreakSummary groups the wellness streak figures shown with a profile.
type StreakSummary struct {
	Current    int    `json:"current"`
	Longest    int    `json:"longest"`
	Message    string `json:"message"`
	GoalTarget int    `json:"goalTarget"`
	GoalText   string `json:"goalMessage"`
}
