package main

import (
	"github.com/nimasrn/review-runner/internal/config"
	"github.com/nimasrn/review-runner/pkg/pg"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")

	migrationsDir := func() string {
		if dir != "" {
			return dir
		}
		return config.Get().MigrationsDir
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return pg.Migrate(config.Get().PostgresWrite(), migrationsDir())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return pg.MigrationStatus(config.Get().PostgresWrite(), migrationsDir())
			},
		},
	)
	return cmd
}
