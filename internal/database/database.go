// Package database opens the gorm connection and migrates the schema.
package database

import (
	"context"
	"fmt"
	"time"

	"recipebox/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// retryInterval is the pause between connection attempts.
var retryInterval = time.Second

// Dialector selects the gorm driver.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open connects to the database, waiting for it to come up for up to retries
// attempts, then migrates the schema.
func Open(ctx context.Context, driver, dsn string, retries int) (*gorm.DB, error) {
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	if retries < 1 {
		retries = 1
	}

	var db *gorm.DB
	for attempt := 1; ; attempt++ {
		db, err = connect(ctx, dialector)
		if err == nil {
			break
		}
		if attempt >= retries {
			return nil, fmt.Errorf("database unavailable after %d attempts: %w", attempt, err)
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("wait", retryInterval).Msg("waiting for database")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	log.Info().Str("driver", driver).Msg("database available")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func connect(ctx context.Context, dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := Ping(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table, including the recipe join tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// Ping checks that the underlying connection is alive.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
