package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/repository"
)

// ConnectDB opens the configured database and makes sure the schema exists.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repository.DB, error) {
	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, db, logger); err != nil {
		db.Close(logger)
		return nil, err
	}
	return db, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, db *repository.DB, logger *slog.Logger, timeout time.Duration) error {
	return db.HealthCheck(ctx, timeout, logger)
}

// CloseDB closes the database connections gracefully
func CloseDB(db *repository.DB, logger *slog.Logger) {
	db.Close(logger)
}
