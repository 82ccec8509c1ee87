// Package cli implements the wellmedctl command line.
package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// App holds what the commands need from the process.
type App struct {
	// Color enables lipgloss styling; set when stdout is a terminal.
	Color bool
	// Now is the clock used for streaks; defaults to time.Now.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// NewRootCmd creates the top-level "wellmedctl" command and registers all
// subcommands against app.
func NewRootCmd(app *App) *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:           "wellmedctl",
		Short:         "Burnout risk scoring from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if noColor {
				app.Color = false
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	root.AddCommand(
		newScoreCmd(app),
		newTrendCmd(app),
		newStreakCmd(app),
		newTokenCmd(app),
		newLoadCmd(app),
	)
	return root
}
