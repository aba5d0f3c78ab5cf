package main

import (
	"fmt"

	"linkhub/integrator/internal/db"
	"linkhub/integrator/internal/logging"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn := cfg.PostgresDSN()

		sqlDB, err := db.InitPostgres(dsn)
		if err != nil {
			return fmt.Errorf("connect postgres (sqlx): %w", err)
		}
		defer sqlDB.Close()

		pg, err := db.InitPostgresORM(dsn)
		if err != nil {
			return fmt.Errorf("connect postgres (gorm): %w", err)
		}

		if err := db.Migrate(cmd.Context(), pg, sqlDB); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logging.Info("Schema up to date")
		return nil
	},
}
