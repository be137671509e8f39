package main

import (
	"fmt"
	"os"

	"github.com/nimasrn/review-runner/internal/config"
	"github.com/nimasrn/review-runner/pkg/pg"
	"github.com/spf13/cobra"
)

func main() {
	var envPath string

	rootCmd := &cobra.Command{
		Use:           "review-runner",
		Short:         "Review Runner operations tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envPath == "" {
				if _, err := os.Stat(".env"); err == nil {
					envPath = ".env"
				}
			}
			return config.Load(envPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "", "path to a .env file")

	rootCmd.AddCommand(
		migrateCmd(),
		createUserCmd(),
		suppressionsCmd(),
		eventsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB() (*pg.DB, error) {
	cfg := config.Get()
	db, err := pg.CreateReadWrite(cfg.PostgresWrite(), cfg.PostgresWrite(), cfg.PostgresDebug)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}
