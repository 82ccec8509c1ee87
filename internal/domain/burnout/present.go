package burnout

import (
	"fmt"
	"strings"
)

// Display colours for risk tiers.
const (
	ColorLow     = "#4CAF50"
	ColorMedium  = "#FF9800"
	ColorHigh    = "#F44336"
	ColorNeutral = "#9E9E9E"
)

// Icon identifiers for risk tiers and trends.
const (
	IconLow     = "shield-checkmark"
	IconMedium  = "warning"
	IconHigh    = "alert-circle"
	IconNeutral = "help-circle"

	IconTrendImproving = "trending-down"
	IconTrendWorsening = "trending-up"
	IconTrendStable    = "remove"
)

// RiskColor maps a level name (case-insensitive) to its display colour.
func RiskColor(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return ColorLow
	case "medium":
		return ColorMedium
	case "high":
		return ColorHigh
	default:
		return ColorNeutral
	}
}

// RiskIcon maps a level name (case-insensitive) to its icon identifier.
func RiskIcon(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return IconLow
	case "medium":
		return IconMedium
	case "high":
		return IconHigh
	default:
		return IconNeutral
	}
}

// TrendIcon maps a trend to its icon. Falling risk points down.
func TrendIcon(t Trend) string {
	switch t {
	case TrendImproving:
		return IconTrendImproving
	case TrendWorsening:
		return IconTrendWorsening
	default:
		return IconTrendStable
	}
}

var trendSentences = map[Trend]string{
	TrendImproving: "Your burnout indicators are improving since your last assessment.",
	TrendWorsening: "Your burnout indicators have increased since your last assessment.",
	TrendStable:    "Your burnout indicators have remained stable since your last assessment.",
}

// FormatInsight renders a short summary of r, followed by a trend sentence
// when t is known.
func FormatInsight(r Result, t Trend) string {
	msg := fmt.Sprintf("Your burnout risk is %s (%s/10).", strings.ToLower(string(r.RiskLevel)), r.CombinedScore)
	if s, ok := trendSentences[t]; ok {
		msg += " " + s
	}
	return msg
}
