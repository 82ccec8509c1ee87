package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/wellmed/internal/domain/burnout"
	"github.com/okian/wellmed/internal/domain/mood"
)

func newScoreCmd(app *App) *cobra.Command {
	var (
		moodAvg     float64
		moodEntries []string
		micro       burnout.MicroAssessment
		mbi         burnout.MbiAssessment
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score burnout risk from mood, a micro check-in and an MBI snapshot",
		Example: `  wellmedctl score --ee 30 --dp 12 --pa 30
  wellmedctl score --mood-entry Good --mood-entry Tired --fatigue 4 --ee 40 --dp 15 --pa 20`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := burnout.DefaultMoodAverage
			switch {
			case cmd.Flags().Changed("mood"):
				m = burnout.MoodAverage(moodAvg)
			case len(moodEntries) > 0:
				entries := make([]mood.Entry, 0, len(moodEntries))
				for _, label := range moodEntries {
					if _, ok := mood.Value(label); !ok {
						return fmt.Errorf("unknown mood %q", label)
					}
					entries = append(entries, mood.Entry{Mood: label})
				}
				avg, err := mood.Average(entries, mood.DefaultWindow)
				if err != nil {
					return err
				}
				m = avg
			}

			res, err := burnout.Score(m, micro, mbi)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			p := printer{color: app.Color}
			fmt.Fprint(out, p.result(res))
			fmt.Fprintln(out, burnout.FormatInsight(res, burnout.TrendNone))
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&moodAvg, "mood", float64(burnout.DefaultMoodAverage), "Mood average on the 1-6 scale")
	f.StringSliceVar(&moodEntries, "mood-entry", nil, "Mood label (Anxious..Excellent), oldest first; repeatable")
	f.IntVar(&micro.Fatigue, "fatigue", burnout.NeutralMicro.Fatigue, "Fatigue 1-5")
	f.IntVar(&micro.Stress, "stress", burnout.NeutralMicro.Stress, "Stress 1-5")
	f.IntVar(&micro.Satisfaction, "satisfaction", burnout.NeutralMicro.Satisfaction, "Satisfaction 1-5")
	f.IntVar(&micro.Sleep, "sleep", burnout.NeutralMicro.Sleep, "Sleep quality 1-5")
	f.IntVar(&mbi.EE, "ee", 0, "Emotional exhaustion 0-54")
	f.IntVar(&mbi.DP, "dp", 0, "Depersonalization 0-30")
	f.IntVar(&mbi.PA, "pa", 0, "Personal accomplishment 0-48")
	f.BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("ee")
	_ = cmd.MarkFlagRequired("dp")
	_ = cmd.MarkFlagRequired("pa")

	return cmd
}

func newTrendCmd(app *App) *cobra.Command {
	var (
		current, previous burnout.MbiAssessment
		moodAvg           float64
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Compare two MBI snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []burnout.TrendOption
			if cmd.Flags().Changed("mood") {
				opts = append(opts, burnout.WithMoodAverage(burnout.MoodAverage(moodAvg)))
			}
			t, err := burnout.CalculateTrend(current, previous, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), printer{color: app.Color}.trend(t))
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&current.EE, "ee", 0, "Current emotional exhaustion")
	f.IntVar(&current.DP, "dp", 0, "Current depersonalization")
	f.IntVar(&current.PA, "pa", 0, "Current personal accomplishment")
	f.IntVar(&previous.EE, "prev-ee", 0, "Previous emotional exhaustion")
	f.IntVar(&previous.DP, "prev-dp", 0, "Previous depersonalization")
	f.IntVar(&previous.PA, "prev-pa", 0, "Previous personal accomplishment")
	f.Float64Var(&moodAvg, "mood", float64(burnout.DefaultMoodAverage), "Mood average held for both snapshots")
	for _, name := range []string{"ee", "dp", "pa", "prev-ee", "prev-dp", "prev-pa"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
