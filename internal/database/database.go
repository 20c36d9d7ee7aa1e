// Package database provides PostgreSQL connection management using pgx.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/htl-registration/appointment-intake/internal/config"
	"github.com/htl-registration/appointment-intake/internal/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool creates and validates a pgxpool connection pool.
// It retries cfg.DBRetries times to accommodate containers starting up.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	attempts := max(cfg.DBRetries, 1)
	var pool *pgxpool.Pool
	for attempt := 1; attempt <= attempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Log.Warn().Err(err).Int("attempt", attempt).Int("of", attempts).Msg("db connect failed, retrying in 2s")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("connect to postgres: %w", err)
}

const schema = `
CREATE TABLE IF NOT EXISTS appointment_configurations (
	id         UUID PRIMARY KEY,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS registrations (
	id             UUID PRIMARY KEY,
	first_name     TEXT NOT NULL,
	last_name      TEXT NOT NULL,
	gender         TEXT NOT NULL,
	email          TEXT NOT NULL,
	phone_number   TEXT NOT NULL,
	residence      TEXT NOT NULL,
	current_school TEXT NOT NULL,
	current_class  TEXT NOT NULL,
	department     TEXT NOT NULL,
	appointment    TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS registrations_department_appointment_idx
	ON registrations (department, appointment);
`

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
