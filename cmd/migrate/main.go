package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"honquedoro/internal/config"
	"honquedoro/internal/db"
	"honquedoro/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "honquedoro-migrate",
	Short: "Apply the session store schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger := logging.New(cfg.Logging)

		database, err := db.Open(cfg.Database.Driver, cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer database.Close()

		if err := db.RunMigrations(database, cfg.Database.MigrationsDir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		logger.Info().
			Str("driver", cfg.Database.Driver).
			Str("path", cfg.Database.Path).
			Msg("Migrations applied successfully")
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
