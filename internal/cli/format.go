package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/okian/wellmed/internal/domain/burnout"
)

// Styles reuse the risk palette served to clients.
var (
	styleLow     = lipgloss.NewStyle().Foreground(lipgloss.Color(burnout.ColorLow)).Bold(true)
	styleMedium  = lipgloss.NewStyle().Foreground(lipgloss.Color(burnout.ColorMedium)).Bold(true)
	styleHigh    = lipgloss.NewStyle().Foreground(lipgloss.Color(burnout.ColorHigh)).Bold(true)
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color(burnout.ColorNeutral))
	styleHeader  = lipgloss.NewStyle().Bold(true).Underline(true)
	styleDefault = lipgloss.NewStyle()
)

type printer struct {
	color bool
}

func (p printer) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func levelStyle(level burnout.RiskLevel) lipgloss.Style {
	switch level {
	case burnout.RiskHigh:
		return styleHigh
	case burnout.RiskMedium:
		return styleMedium
	case burnout.RiskLow:
		return styleLow
	default:
		return styleDefault
	}
}

// level renders "● MEDIUM" in the level's colour.
func (p printer) level(level burnout.RiskLevel) string {
	return p.render(levelStyle(level), "● "+strings.ToUpper(string(level)))
}

func (p printer) header(text string) string {
	return p.render(styleHeader, text)
}

func (p printer) dim(text string) string {
	return p.render(styleDim, text)
}

func (p printer) trend(t burnout.Trend) string {
	switch t {
	case burnout.TrendWorsening:
		return p.render(styleHigh, "▲ worsening")
	case burnout.TrendImproving:
		return p.render(styleLow, "▼ improving")
	case burnout.TrendStable:
		return p.render(styleDim, "■ stable")
	default:
		return p.dim("no trend")
	}
}

func (p printer) result(r burnout.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s/10\n", p.level(r.RiskLevel), r.CombinedScore)
	fmt.Fprintf(&b, "%s mood %.1f  micro %.1f  mbi %.1f\n",
		p.dim("breakdown:"), r.Breakdown.Mood, r.Breakdown.Micro, r.Breakdown.MBI)
	b.WriteString(p.header("Recommendations") + "\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&b, "  - %s\n", rec)
	}
	return b.String()
}
