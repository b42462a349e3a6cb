package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type Config struct {
	Driver           string // DriverSQLite (default) | DriverPostgres
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB is a *sql.DB plus the dialect it speaks. For Postgres it also owns the pgx pool.
type DB struct {
	SQL    *sql.DB
	Driver string
	pool   *pgxpool.Pool
}

// Open connects to the configured database. Postgres goes through a pgx pool
// wrapped as *sql.DB; SQLite uses the pure-Go modernc driver.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	logger.Info("connecting to database", "driver", cfg.Driver, "dsn", redactDSN(cfg.DSN))

	switch cfg.Driver {
	case DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case DriverSQLite:
		return openSQLite(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "deal-analyzer"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	dctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database")
	return &DB{SQL: stdlib.OpenDBFromPool(pool), Driver: DriverPostgres, pool: pool}, nil
}

func openSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = "file:deal-analyzer.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	// one connection: SQLite serialises writers, and ":memory:" is per-connection
	db.SetMaxOpenConns(1)

	dctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := db.PingContext(dctx); err != nil {
		_ = db.Close()
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	logger.Info("successfully connected to database")
	return &DB{SQL: db, Driver: DriverSQLite}, nil
}

// Close closes the database connections gracefully
func (d *DB) Close(logger *slog.Logger) {
	if d == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if err := d.SQL.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database, bounded by timeout when positive.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("pinging database", "driver", d.Driver)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var err error
	if d.pool != nil {
		err = d.pool.Ping(ctx)
	} else {
		err = d.SQL.PingContext(ctx)
	}
	if err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

// rebind rewrites "?" placeholders to "$n" for Postgres.
func (d *DB) rebind(query string) string {
	if d.Driver != DriverPostgres {
		return query
	}
	return sqlx.Rebind(sqlx.DOLLAR, query)
}

// redactDSN hides a password in URL-style DSNs.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if i := strings.Index(creds, ":"); i >= 0 {
		return dsn[:scheme+3] + creds[:i] + ":***" + dsn[at:]
	}
	return dsn
}
