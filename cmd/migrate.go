package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arlo-ai/arlo/db"
	"github.com/arlo-ai/arlo/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(*cobra.Command, []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	return db.Migrate(cfg.PostgresURL(), newLogger())
}
