package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/wellmed/internal/domain/streak"
)

const dayLayout = "2006-01-02"

func newStreakCmd(app *App) *cobra.Command {
	var active, inactive []string
	var today string

	cmd := &cobra.Command{
		Use:     "streak",
		Short:   "Summarise a daily wellness activity streak",
		Example: `  wellmedctl streak --day 2026-03-10 --day 2026-03-09 --now 2026-03-10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			activities := make([]streak.Activity, 0, len(active)+len(inactive))
			for _, list := range []struct {
				days []string
				has  bool
			}{{active, true}, {inactive, false}} {
				for _, d := range list.days {
					t, err := time.Parse(dayLayout, d)
					if err != nil {
						return fmt.Errorf("invalid day %q: want YYYY-MM-DD", d)
					}
					activities = append(activities, streak.Activity{Date: t, HasActivity: list.has})
				}
			}

			now := app.now().UTC()
			if today != "" {
				t, err := time.Parse(dayLayout, today)
				if err != nil {
					return fmt.Errorf("invalid --now %q: want YYYY-MM-DD", today)
				}
				now = t
			}

			current := streak.ActivityStreak(activities, now)
			longest := streak.LongestStreak(activities)
			goal := streak.WellnessGoal(current, longest)
			p := printer{color: app.Color}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d days (longest %d)\n", p.header("Streak:"), current, longest)
			if last, ok := streak.LastActivityDate(activities); ok {
				fmt.Fprintf(out, "%s %s\n", p.dim("last activity:"), last.Format(dayLayout))
			}
			fmt.Fprintln(out, streak.StreakMessage(current))
			fmt.Fprintf(out, "%s %d days: %s\n", p.dim("goal:"), goal.Target, goal.Message)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&active, "day", nil, "Day with a completed activity (YYYY-MM-DD); repeatable")
	f.StringSliceVar(&inactive, "skip", nil, "Day recorded without activity (YYYY-MM-DD); repeatable")
	f.StringVar(&today, "now", "", "Reference day (YYYY-MM-DD); defaults to today")

	return cmd
}
