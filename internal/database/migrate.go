package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pageza/foodgram/backend/internal/database/migrations"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate brings the schema up to date. Postgres runs the embedded goose
// migrations over dsn; sqlite, used for development and tests, is
// automigrated from the models.
func Migrate(ctx context.Context, db *gorm.DB, dsn string, log *zap.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		log.Info("using gorm auto-migration for sqlite")
		return AutoMigrate(db)
	}
	return MigrateUp(ctx, dsn, log)
}

// AutoMigrate creates the tables and indexes of every model.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to automigrate: %w", err)
	}
	return nil
}

// MigrateUp runs all pending migrations from the embedded filesystem.
func MigrateUp(ctx context.Context, dsn string, log *zap.Logger) error {
	return withProvider(dsn, func(provider *goose.Provider) error {
		results, err := provider.Up(ctx)
		if err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		for _, r := range results {
			log.Info("applied migration",
				zap.String("source", r.Source.Path),
				zap.Duration("duration", r.Duration))
		}
		return nil
	})
}

// MigrateDown rolls back the most recently applied migration.
func MigrateDown(ctx context.Context, dsn string, log *zap.Logger) error {
	return withProvider(dsn, func(provider *goose.Provider) error {
		result, err := provider.Down(ctx)
		if err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		if result != nil {
			log.Info("rolled back migration", zap.String("source", result.Source.Path))
		}
		return nil
	})
}

func withProvider(dsn string, fn func(*goose.Provider) error) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("error opening migration connection: %w", err)
	}
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	return fn(provider)
}
