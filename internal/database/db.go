// Package database wraps the embedded SQL connection, abstracting the
// SQLite/Postgres dialect difference the rest of the server must not care
// about. The default driver is go-sqlcipher, registered via a blank
// import, so library databases can be encrypted at rest.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mutecomm/go-sqlcipher"

	"harmonia/internal/config"
)

// Dialect distinguishes SQLite from Postgres for the handful of queries
// whose syntax differs (placeholders, RETURNING).
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB wraps *sql.DB with dialect-aware helpers.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Open opens a connection per cfg. SQLite connections get the WAL and
// busy-timeout pragmas in the DSN, plus the driver's key pragma when
// EncryptionKey is set.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	dialect := Dialect(cfg.Driver)
	driverName := "sqlite3"
	dsn := cfg.DSN

	if dialect == DialectSQLite {
		dsn += "?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=1"
		if cfg.EncryptionKey != "" {
			dsn += fmt.Sprintf("&_pragma_key=%s", cfg.EncryptionKey)
		}
	} else {
		driverName = "postgres"
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	return &DB{DB: sqlDB, dialect: dialect}, nil
}

// NewFromSQL wraps an already-open connection; used by tests (sqlmock) and
// by hosts that manage their own pool.
func NewFromSQL(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{DB: sqlDB, dialect: dialect}
}

// IsPostgres reports whether the connection is a Postgres dialect.
func (db *DB) IsPostgres() bool { return db.dialect == DialectPostgres }

// HealthCheck verifies the connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// Stats returns the underlying pool statistics.
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// rewritePlaceholders converts '?' placeholders to '$1'... for Postgres;
// SQLite queries pass through unchanged.
func (db *DB) rewritePlaceholders(query string) string {
	if !db.IsPostgres() {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InsertReturningID executes an INSERT and returns the new row's id,
// using RETURNING id on Postgres and LastInsertId on SQLite.
func (db *DB) InsertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	query = db.rewritePlaceholders(query)
	if db.IsPostgres() {
		query += " RETURNING id"
		var id int64
		if err := db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// TxInsertReturningID is InsertReturningID scoped to an existing transaction.
func (db *DB) TxInsertReturningID(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (int64, error) {
	query = db.rewritePlaceholders(query)
	if db.IsPostgres() {
		query += " RETURNING id"
		var id int64
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Query rewrites placeholders then runs QueryContext.
func (db *DB) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.QueryContext(ctx, db.rewritePlaceholders(query), args...)
}

// QueryRow rewrites placeholders then runs QueryRowContext.
func (db *DB) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.QueryRowContext(ctx, db.rewritePlaceholders(query), args...)
}

// Exec rewrites placeholders then runs ExecContext.
func (db *DB) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.ExecContext(ctx, db.rewritePlaceholders(query), args...)
}
