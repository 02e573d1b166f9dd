// Package sqlstore provides PostgreSQL and SQLite backed repositories.
//
// Queries are written with PostgreSQL-style $N placeholders and rewritten to
// SQLite's ?N form when the store runs on SQLite. Timestamps are stored as
// Unix milliseconds in UTC so both dialects sort and compare them numerically.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Dialect adapts shared SQL to the target driver.
type Dialect struct {
	driver string
}

// NewDialect returns the Dialect for driver, or an error for unsupported drivers.
func NewDialect(driver string) (Dialect, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
		return Dialect{driver: driver}, nil
	}
	return Dialect{}, fmt.Errorf("unsupported sql driver %q", driver)
}

// Driver returns the database/sql driver name.
func (d Dialect) Driver() string {
	return d.driver
}

var placeholderRegexp = regexp.MustCompile(`\$(\d+)`)

// Rebind rewrites $N placeholders for the dialect.
func (d Dialect) Rebind(query string) string {
	if d.driver != DriverSQLite {
		return query
	}
	return placeholderRegexp.ReplaceAllString(query, "?$1")
}

// Open opens and pings a database for driver. SQLite handles are limited to a
// single connection so an in-memory database is shared by every query.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if _, err := NewDialect(driver); err != nil {
		return nil, err
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database url is required")
	}
	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	return db, nil
}

func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// isUniqueViolation reports whether err is a unique constraint failure on either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
