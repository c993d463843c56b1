package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Options configures OpenWith.
type Options struct {
	// Driver selects the database engine. Defaults to DriverSQLite.
	Driver Driver

	// DSN is the SQLite file path (or ":memory:") or a MySQL DSN.
	DSN string

	// Logger receives write and migration logs. Defaults to a discard logger.
	Logger *slog.Logger
}

// Store provides durable storage for questions, answers, evaluations and
// sessions.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement (required for the cascading deletes)
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	return OpenWith(Options{Driver: DriverSQLite, DSN: path})
}

// OpenWith opens a store with an explicit driver and logger.
func OpenWith(opts Options) (*Store, error) {
	d, err := dialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("open database: empty dsn")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	db, err := sql.Open(string(d.driver), d.dsn(opts.DSN))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := d.configure(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := applySchema(db, d, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Debug("store opened", "driver", d.driver)
	return &Store{db: db, dialect: d, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the engine the store is connected to.
func (s *Store) Driver() Driver {
	return s.dialect.driver
}

// Schema returns the table DDL applied for the store's driver.
func (s *Store) Schema() string {
	return s.dialect.schema
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing if fn returns nil.
// SQLite runs on a single connection, so fn must use tx for every query.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB, d dialect, logger *slog.Logger) error {
	for _, stmt := range splitStatements(d.schema) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}

	if d.migrate == nil {
		return nil
	}
	return d.migrate(db, logger)
}

// splitStatements splits a DDL script on semicolons, dropping comment lines.
// The schema files contain no semicolons inside literals.
func splitStatements(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}

	var stmts []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
