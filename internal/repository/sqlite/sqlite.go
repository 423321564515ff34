package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository represents a data repository that interacts with the database
// and provides logging capabilities. Inside WithTx the same type is bound to
// the transaction instead of the pool.
type Repository struct {
	db  *sql.DB
	q   querier
	log *slog.Logger
}

// NewRepository opens (or creates) the database at storagePath and migrates it.
func NewRepository(ctx context.Context, log *slog.Logger, storagePath string) (*Repository, error) {
	// immediate tx locking keeps concurrent writers from failing on lock upgrade.
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", storagePath)

	dtb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = dtb.PingContext(ctx); err != nil {
		_ = dtb.Close()
		return nil, fmt.Errorf("unable to establish connection to database: %w", err)
	}

	if err = initSchema(ctx, dtb); err != nil {
		_ = dtb.Close()
		return nil, fmt.Errorf("DB schema initialization error: %w", err)
	}

	return &Repository{db: dtb, q: dtb, log: log}, nil
}

// NewForTest wraps an existing connection without running migrations.
func NewForTest(db *sql.DB) *Repository {
	return &Repository{db: db, q: db, log: slog.New(slog.DiscardHandler)}
}

// initSchema creates the necessary tables if they don't already exist.
func initSchema(ctx context.Context, dtb *sql.DB) error {
	const migrationQuery = `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		last_price REAL,
		specification TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS raw_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT NOT NULL UNIQUE,
		payload TEXT NOT NULL,
		cached_at DATETIME NOT NULL,
		expiry_at DATETIME NOT NULL,
		product_id INTEGER REFERENCES products (id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS price_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products (id) ON DELETE CASCADE,
		price REAL NOT NULL,
		recorded_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_price_history_product ON price_history (product_id, recorded_at);

	CREATE TABLE IF NOT EXISTS analysis_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products (id) ON DELETE CASCADE,
		user_id INTEGER REFERENCES users (id) ON DELETE SET NULL,
		total_score INTEGER NOT NULL,
		verdict TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		pros TEXT NOT NULL DEFAULT '[]',
		cons TEXT NOT NULL DEFAULT '[]',
		key_features TEXT NOT NULL DEFAULT '{}',
		analyzed_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analysis_product ON analysis_results (product_id, analyzed_at);

	CREATE TABLE IF NOT EXISTS subscriptions (
		chat_id INTEGER PRIMARY KEY
	);
	`
	_, err := dtb.ExecContext(ctx, migrationQuery)
	if err != nil {
		return fmt.Errorf("failed to execute migration query: %w", err)
	}

	return nil
}

// WithTx runs fn against a repository bound to a single transaction.
// It commits when fn returns nil and rolls back otherwise. Calls made on a
// repository that is already inside a transaction reuse it.
func (r *Repository) WithTx(ctx context.Context, fn func(Store) error) error {
	const opn = "repository.sqlite.WithTx"

	if _, inTx := r.q.(*sql.Tx); inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil) //nolint:varnamelen // tx its a default naming for transaction
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", opn, err)
	}
	defer tx.Rollback() //nolint:errcheck // returns sql.ErrTxDone after a successful commit

	if err = fn(&Repository{db: r.db, q: tx, log: r.log}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", opn, err)
	}

	return nil
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the connection to the database.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.Error("failed to close the database", "op", "repository.sqlite.Close", "error", err)
		return fmt.Errorf("failed to close the database: %w", err)
	}

	return nil
}

// DB is a getter for database handler.
func (r *Repository) DB() *sql.DB {
	return r.db
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func now() time.Time {
	return time.Now().UTC()
}
