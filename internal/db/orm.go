package db

import (
	"context"
	"fmt"

	"linkhub/integrator/internal/db/repositories"
	"linkhub/integrator/internal/logging"
	"linkhub/integrator/internal/models"

	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitPostgresORM(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	logging.Info("Connected to Postgres via GORM")
	return db, nil
}

// Migrate creates the registry and sync log tables when missing
func Migrate(ctx context.Context, pg *gorm.DB, sqlDB *sqlx.DB) error {
	if err := pg.WithContext(ctx).AutoMigrate(&models.ConnectedProvider{}); err != nil {
		return fmt.Errorf("failed to migrate connected_providers: %w", err)
	}
	if err := repositories.NewSyncLogRepo(sqlDB).EnsureSchema(ctx); err != nil {
		return err
	}
	logging.Info("Database schema up to date")
	return nil
}
