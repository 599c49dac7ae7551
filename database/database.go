package database

import (
	"fmt"

	"pass-app/internal/domain/passes"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to Postgres and migrates the schema.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("Connected and migrated successfully")
	return db, nil
}

// Migrate creates or updates the purchases and redemptions tables. The
// unique index on stripe_session_id backs the reconciler's upsert.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&passes.Purchase{},
		&passes.Redemption{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
