// Package store provides PostgreSQL persistence for accounts and saved analyses.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the SQLSTATE for a unique constraint failure
const pgUniqueViolation = "23505"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS resume_analyses (
		id               BIGSERIAL PRIMARY KEY,
		user_id          UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		resume_text      TEXT NOT NULL DEFAULT '',
		job_description  TEXT NOT NULL DEFAULT '',
		ats_score        INTEGER NOT NULL DEFAULT 0,
		analysis_json    JSONB NOT NULL,
		target_job_title TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS resume_analyses_user_created_idx
		ON resume_analyses (user_id, created_at DESC)`,
}

// Postgres wraps a connection pool
type Postgres struct {
	pool   *pgxpool.Pool
	logger *resumeforgeErrors.Logger
}

// Open connects to the database, verifies the connection and, when
// configured, creates the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *resumeforgeErrors.Logger) (*Postgres, error) {
	if logger == nil {
		logger = resumeforgeErrors.NewNopLogger()
	}
	if cfg.URL == "" {
		return nil, resumeforgeErrors.NewConfigError(resumeforgeErrors.ErrCodeInvalidConfig,
			"database URL is required", nil)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, resumeforgeErrors.NewConfigError(resumeforgeErrors.ErrCodeInvalidConfig,
			"failed to parse database URL", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeStorageFailed,
			"failed to connect to database", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeStorageFailed,
			"failed to ping database", err)
	}

	db := &Postgres{pool: pool, logger: logger}
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}

	logger.Info("Connected to database", "max_conns", poolCfg.MaxConns)
	return db, nil
}

// Migrate creates the tables and indexes if they do not exist
func (db *Postgres) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeStorageFailed,
				fmt.Sprintf("failed to apply migration %d", i+1), err)
		}
	}
	return nil
}

// Ping checks the database connection
func (db *Postgres) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close closes the connection pool
func (db *Postgres) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func storageError(message string, err error) error {
	return resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeStorageFailed, message, err)
}
