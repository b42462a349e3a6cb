package repository

import (
	"context"
	"fmt"
	"log/slog"
)

const analysesDDL = `
CREATE TABLE IF NOT EXISTS analyses (
	id              TEXT PRIMARY KEY,
	file_name       TEXT NOT NULL,
	file_ext        TEXT NOT NULL,
	content_hash    TEXT NOT NULL DEFAULT '',
	goal            TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	text_method     TEXT,
	text_preview    TEXT,
	text_confidence REAL,
	metrics_json    TEXT,
	narrative       TEXT,
	model           TEXT,
	error_message   TEXT,
	created_at      %[1]s NOT NULL,
	finished_at     %[1]s
)`

var analysesIndexes = []string{
	`CREATE INDEX IF NOT EXISTS analyses_content_hash_idx ON analyses (content_hash)`,
	`CREATE INDEX IF NOT EXISTS analyses_created_at_idx ON analyses (created_at)`,
}

// Migrate creates the schema if missing. Safe to run on every start.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	ts := "DATETIME"
	if db.Driver == DriverPostgres {
		ts = "TIMESTAMPTZ"
	}
	stmts := append([]string{fmt.Sprintf(analysesDDL, ts)}, analysesIndexes...)
	for _, s := range stmts {
		if _, err := db.SQL.ExecContext(ctx, s); err != nil {
			logger.Error("schema migration failed", "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	logger.Info("schema migrated", "driver", db.Driver)
	return nil
}
