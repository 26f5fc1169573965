package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
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
  id            VARCHAR(64)  NOT NULL PRIMARY KEY,
  url           VARCHAR(2048) NOT NULL,
  timestamp     DATETIME     NOT NULL,
  status        VARCHAR(16)  NOT NULL,
  main_category VARCHAR(255) NULL,
  confidence    DOUBLE       NULL,
  error         TEXT         NULL,
  analysis      JSON         NULL,
  is_batch      BOOLEAN      NOT NULL DEFAULT FALSE,
  batch_id      VARCHAR(64)  NULL,
  INDEX idx_history_url (url(255)),
  INDEX idx_history_timestamp (timestamp),
  INDEX idx_history_status (status),
  INDEX idx_history_batch (batch_id)
);`
	_, err := db.ExecContext(ctx, q)
	return err
}
