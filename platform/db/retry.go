package db

import (
	"context"
	"fmt"
	"time"

	"training_leads_backend/platform/config"
	"training_leads_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

const (
	startupAttempts  = 5
	startupBaseDelay = 2 * time.Second
)

// Retry runs fn up to attempts times with exponential backoff starting at
// base. It is meant for startup, while the database container may still be
// coming up.
func Retry(ctx context.Context, log *logger.Logger, name string, attempts int, base time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: attempts must be positive", name)
	}

	tried := 0
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		tried++
		if err := fn(); err != nil {
			log.Warn("startup step failed", "operation", name, "attempt", tried, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err == nil || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%s after %d attempts: %w", name, tried, err)
}

// Open connects with retries and, when migrate is set, first applies the
// embedded migrations. Only the API process migrates.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger, migrate bool) (*pgxpool.Pool, error) {
	if migrate {
		if err := Retry(ctx, log, "database migrations", startupAttempts, startupBaseDelay, func() error {
			return RunMigrations(ctx, cfg)
		}); err != nil {
			return nil, err
		}
		log.Info("database migrations complete")
	}

	var pool *pgxpool.Pool
	err := Retry(ctx, log, "database connection", startupAttempts, startupBaseDelay, func() error {
		var err error
		pool, err = NewPool(ctx, cfg)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("database connection established")
	return pool, nil
}
