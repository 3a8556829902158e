// Package sqlstore reads the compound table from a SQL database through
// sqlx. Any registered driver works; the binaries register lib/pq
// ("postgres") and mattn/go-sqlite3 ("sqlite3").
package sqlstore

import (
	"context"
	"time"

	"molintel/internal/errors"

	"github.com/jmoiron/sqlx"
)

// New prepares a connection pool without connecting. The first query
// connects, so an unreachable database surfaces as a load diagnostic
// instead of a startup failure.
func New(driver, url string) (*sqlx.DB, error) {
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Open(driver, url)
	if err != nil {
		return nil, errors.DatabaseError("failed to open database", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// Open connects and pings the database
func Open(ctx context.Context, driver, url string) (*sqlx.DB, error) {
	db, err := New(driver, url)
	if err != nil {
		return nil, err
	}
	if err := Ping(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Ping checks connectivity with a 10 second limit
func Ping(ctx context.Context, db *sqlx.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return errors.DatabaseError("failed to ping database", err)
	}
	return nil
}
