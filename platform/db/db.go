// Package db opens the Postgres pool and applies the embedded goose
// migrations.
package db

import (
	"context"
	"time"

	"training_leads_backend/platform/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns = 25
	defaultMinConns = 5
)

// NewPool opens the pool and pings it. Every lifecycle operation holds one
// connection for the length of its row-locked transaction, so MaxConns bounds
// how many leads can be mutated at once.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = defaultMaxConns
	if n := cfg.GetDBMaxConns(); n > 0 {
		poolConfig.MaxConns = n
	}
	poolConfig.MinConns = defaultMinConns
	if n := cfg.GetDBMinConns(); n > 0 && n <= poolConfig.MaxConns {
		poolConfig.MinConns = n
	}
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute
	// Row locks must not outlive a stuck client.
	poolConfig.ConnConfig.RuntimeParams["idle_in_transaction_session_timeout"] = "30000"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
