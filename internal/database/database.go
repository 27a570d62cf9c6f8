// Package database opens the PostgreSQL pool that backs the document record store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"

	"docgen/internal/config"
)

const (
	applicationName = "docgen"
	pingAttempts    = 5
)

var (
	sqlOpen    = sql.Open
	retryDelay = 2 * time.Second
)

// BuildPostgresDSN renders c as a postgres:// URL tagged with the application name.
func BuildPostgresDSN(c config.DatabaseConfig) (string, error) {
	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return "", fmt.Errorf("invalid database config: host, port, user, and name are required")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   c.Host + ":" + c.Port,
		Path:   c.Name,
		User:   url.User(c.User),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}

	q := url.Values{}
	q.Set("application_name", applicationName)
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// NewPostgres opens a traced pgx pool, applies the pool limits and waits for
// the server to answer a ping. Startup races with the database container are
// absorbed by a few spaced retries.
func NewPostgres(ctx context.Context, c config.DatabaseConfig, log *zap.Logger) (*sql.DB, error) {
	dsn, err := BuildPostgresDSN(c)
	if err != nil {
		return nil, err
	}

	driverName, err := otelsql.Register("pgx",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register otelsql: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}

	if err := ping(ctx, db, log, c.Host); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ping(ctx context.Context, db *sql.DB, log *zap.Logger, host string) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pctx)
		cancel()
		if err == nil {
			log.Info("database connected",
				zap.String("component", "database"),
				zap.String("db_host", host),
				zap.Int("attempt", attempt),
			)
			return nil
		}
		log.Warn("database ping failed",
			zap.String("component", "database"),
			zap.String("db_host", host),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == pingAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("db ping: %w", ctx.Err())
		case <-time.After(retryDelay):
		}
	}
	return fmt.Errorf("db ping: %w", err)
}
