package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/kinobot/core/logger"
)

const (
	// postgresStartupWait covers a database container that starts together
	// with the bot.
	postgresStartupWait = 30 * time.Second
	retryEvery          = 2 * time.Second
	attemptTimeout      = 5 * time.Second
)

// Connect opens and pings the database and sizes the pool. Postgres is
// retried for up to postgresStartupWait; sqlite fails on the first error.
func Connect(cfg Config) (*sqlx.DB, error) {
	driver := cfg.DriverName()
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	wait := time.Duration(0)
	if driver == DriverPostgres {
		wait = postgresStartupWait
	}

	start := time.Now()
	db, attempts, err := dial(context.Background(), driver, dsn, wait)
	if err != nil {
		logger.LogEvent(context.Background(), logger.DB, slog.LevelError, "db.connect",
			slog.String("status", "fail"),
			slog.String("driver", driver),
			slog.String("db", cfg.Target()),
			slog.Int("attempts", attempts),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	pool := poolSize(cfg)
	db.SetMaxOpenConns(pool)
	db.SetMaxIdleConns(pool)
	logger.LogEvent(context.Background(), logger.DB, slog.LevelInfo, "db.connect",
		slog.String("status", "ok"),
		slog.String("driver", driver),
		slog.String("db", cfg.Target()),
		slog.Int("pool_open", pool),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.Took(start)),
	)
	return db, nil
}

// dial connects and pings, retrying every retryEvery until wait elapses.
func dial(ctx context.Context, driver, dsn string, wait time.Duration) (*sqlx.DB, int, error) {
	deadline := time.Now().Add(wait)
	for attempt := 1; ; attempt++ {
		actx, cancel := context.WithTimeout(ctx, attemptTimeout)
		db, err := sqlx.ConnectContext(actx, driver, dsn)
		cancel()
		if err == nil {
			return db, attempt, nil
		}
		if time.Now().Add(retryEvery).After(deadline) {
			return nil, attempt, err
		}
		logger.LogEvent(ctx, logger.DB, slog.LevelDebug, "db.connect.retry",
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		case <-time.After(retryEvery):
		}
	}
}

// DSN builds the driver specific data source name.
func DSN(cfg Config) (string, error) {
	switch cfg.DriverName() {
	case DriverPostgres:
		return fmt.Sprintf(
			"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s connect_timeout=5",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
		), nil
	case DriverSQLite:
		if cfg.Path == "" {
			return "", fmt.Errorf("database.path is required for the sqlite driver")
		}
		return cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_time_format=sqlite", nil
	}
	return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// SQLite serializes writers itself; a single connection avoids SQLITE_BUSY churn.
func poolSize(cfg Config) int {
	switch {
	case cfg.DriverName() == DriverSQLite:
		return 1
	case cfg.MaxConnections > 0:
		return cfg.MaxConnections
	}
	return 10
}
