package commands

import (
	"fmt"

	"analytics-export/pkg/migrations"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates the records table in the configured store if it is missing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := migrations.OpenAndMigrateDB(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer database.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "Table %s is ready in %s.\n", cfg.Store.Table, storeLabel(cfg.Store))
		return nil
	},
}
