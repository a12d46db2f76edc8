package commands

import (
	"fmt"
	"os"

	"analytics-export/internal/auth"
	"analytics-export/internal/components/telemetry"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(authCmd)
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Runs the configured authentication flow once, caching the token when auth.mode is cached.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		provider, err := auth.NewProvider(cfg, os.Stderr, telemetry.SlogAPI{})
		if err != nil {
			return err
		}
		tokenSource, err := provider.TokenSource(cmd.Context())
		if err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}
		token, err := tokenSource.Token()
		if err != nil {
			return fmt.Errorf("get token: %w", err)
		}

		if token.Expiry.IsZero() {
			fmt.Fprintln(cmd.OutOrStdout(), "Authorized.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Authorized, access token valid until %s.\n", token.Expiry.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}
