package cli

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/wellmed/internal/adapters/http/api"
	"github.com/okian/wellmed/internal/loadgen"
)

func newLoadCmd(app *App) *cobra.Command {
	var cfg loadgen.Config
	var secret string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Drive a running service with synthetic users and verify the watchlist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Token == "" && secret != "" {
				auth, err := api.NewAuthenticator(secret)
				if err != nil {
					return err
				}
				tok, err := auth.SignToken("wellmedctl-load", api.RoleClinician, time.Hour)
				if err != nil {
					return fmt.Errorf("sign token: %w", err)
				}
				cfg.Token = tok
			}
			if cfg.Seed == 0 {
				cfg.Seed = uint64(app.now().UnixNano())
			}

			runner, err := loadgen.NewRunner(cfg)
			if err != nil {
				return err
			}
			stats, runErr := runner.Run(cmd.Context())

			p := printer{color: app.Color}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, p.header("Load run"))
			fmt.Fprintf(out, "users %d  submitted %d  accepted %d  duplicate %d  rejected %d  failed %d\n",
				stats.Users, stats.Submitted, stats.Accepted, stats.Duplicate, stats.Rejected, stats.Failed)
			fmt.Fprintf(out, "profiles %d  watchlist %d  %s\n",
				stats.Profiles, stats.WatchlistEntries, p.dim(stats.Duration.Round(time.Millisecond).String()))
			for _, e := range stats.Top {
				fmt.Fprintf(out, "%3d. %s  %s/10  %s\n", e.Rank, e.UserID, e.CombinedScore, p.level(e.RiskLevel))
			}
			return runErr
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Service base URL")
	f.IntVar(&cfg.Users, "users", 100, "Synthetic users to create")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "Concurrent submitters")
	f.DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "Per request timeout")
	f.DurationVar(&cfg.Wait, "wait", 30*time.Second, "How long to wait for every user to be profiled")
	f.IntVar(&cfg.Top, "top", 10, "Watchlist entries to fetch")
	f.StringVar(&cfg.Token, "token", "", "Bearer token with the clinician role")
	f.StringVar(&secret, "secret", "", "Mint a clinician token with this secret instead of --token")
	f.Uint64Var(&cfg.Seed, "seed", 0, "Generator seed (default: time based)")

	return cmd
}
