package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/booking/internal/auth"
	"github.com/Togather-Foundation/booking/internal/domain/ids"
)

var (
	tokenUserID string
	tokenRole   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for local testing",
	Long: `Sign a JWT with the configured JWT_SECRET for an existing user id.

The role claim is informational; the server re-reads the user's role from
the database on every request.

Example:
  server token --user-id 01HZX3K9Q4V7T2M8N6P5R1S0AB --role admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		userID, err := ids.Parse(tokenUserID)
		if err != nil {
			return fmt.Errorf("--user-id: %w", err)
		}
		role := auth.NormalizeRole(tokenRole)

		token, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(userID, role)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, token)
		fmt.Fprintf(out, "\nTest with:\ncurl -H 'Authorization: Bearer %s' http://localhost:%d/api/bookings/my\n", token, cfg.Server.Port)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "user id to place in the subject claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(auth.RoleUser), "role claim (user, admin)")
	_ = tokenCmd.MarkFlagRequired("user-id")
}
