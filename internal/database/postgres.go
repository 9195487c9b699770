package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// schema is idempotent; every statement is safe to run at each startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS countries (
	name VARCHAR(100) PRIMARY KEY,
	capital VARCHAR(100),
	region VARCHAR(100),
	population BIGINT NOT NULL DEFAULT 0,
	currency_code VARCHAR(10),
	exchange_rate DOUBLE PRECISION,
	estimated_gdp DOUBLE PRECISION NOT NULL DEFAULT 0,
	flag_url TEXT,
	last_refreshed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_countries_region ON countries (region)`,
	`CREATE INDEX IF NOT EXISTS idx_countries_currency_code ON countries (currency_code)`,
	`CREATE INDEX IF NOT EXISTS idx_countries_estimated_gdp ON countries (estimated_gdp DESC)`,
}

// ConnectPostgres opens a pooled connection and pings it. Caller should call db.Close().
func ConnectPostgres(ctx context.Context, dsn string, maxOpen int, timeout time.Duration) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the countries table and its indexes when missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
