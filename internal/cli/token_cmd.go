package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/wellmed/internal/adapters/http/api"
)

// envJWTSecret mirrors the server's jwt_secret setting.
const envJWTSecret = "WELLMED_JWT_SECRET"

func newTokenCmd(_ *App) *cobra.Command {
	var secret, uid, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv(envJWTSecret)
			}
			if role != api.RoleUser && role != api.RoleClinician {
				return fmt.Errorf("role must be %q or %q", api.RoleUser, api.RoleClinician)
			}
			if ttl <= 0 {
				return errors.New("ttl must be positive")
			}
			auth, err := api.NewAuthenticator(secret)
			if err != nil {
				return fmt.Errorf("%w: pass --secret or set %s", err, envJWTSecret)
			}
			tok, err := auth.SignToken(uid, role, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&secret, "secret", "", "Signing secret (default $"+envJWTSecret+")")
	f.StringVar(&uid, "uid", "", "User id the token is issued to")
	f.StringVar(&role, "role", api.RoleUser, "Role: user or clinician")
	f.DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("uid")

	return cmd
}
