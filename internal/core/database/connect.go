package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/config"
)

// Connect opens the Postgres pool, verifies connectivity and ensures the
// schema is bootstrapped. The returned handle is shared by the DbClient and
// the pgvector index store.
func Connect(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg == nil || cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	pool, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	pool.SetMaxOpenConns(20)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(30 * time.Minute)
	pool.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, pool); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return pool, nil
}
