package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keyxmakerx/placekit/internal/config"
	"github.com/keyxmakerx/placekit/internal/database"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long:  `Applies or rolls back migrations using the DB_* environment settings.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd, func(cfg *config.Config, db *sql.DB) error {
			if err := database.RunMigrations(db, cfg.MigrationsPath); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if migrateSteps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		return withDatabase(cmd, func(cfg *config.Config, db *sql.DB) error {
			if err := database.RollbackMigrations(db, cfg.MigrationsPath, migrateSteps); err != nil {
				return err
			}
			cmd.Printf("rolled back %d migration(s)\n", migrateSteps)
			return nil
		})
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

// withDatabase loads the configuration, connects to MariaDB and runs fn.
func withDatabase(cmd *cobra.Command, fn func(cfg *config.Config, db *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.NewMariaDB(cmd.Context(), cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to MariaDB: %w", err)
	}
	defer db.Close()

	return fn(cfg, db)
}
