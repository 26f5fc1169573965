package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the history table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const q = `
CREATE TABLE IF NOT EXISTS analysis_history (
  id            TEXT PRIMARY KEY,
  url           TEXT NOT NULL,
  timestamp     TIMESTAMPTZ NOT NULL,
  status        TEXT NOT NULL,
  main_category TEXT NULL,
  confidence    DOUBLE PRECISION NULL,
  error         TEXT NULL,
  analysis      JSONB NULL,
  is_batch      BOOLEAN NOT NULL DEFAULT FALSE,
  batch_id      TEXT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_url ON analysis_history (url);
CREATE INDEX IF NOT EXISTS idx_history_timestamp ON analysis_history (timestamp);
CREATE INDEX IF NOT EXISTS idx_history_status ON analysis_history (status);
CREATE INDEX IF NOT EXISTS idx_history_batch ON analysis_history (batch_id);`
	_, err := db.ExecContext(ctx, q)
	return err
}
