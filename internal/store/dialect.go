package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"

	"github.com/roach88/skillcheck/internal/record"
)

//go:embed schema.sql
var schemaSQL string

//go:embed schema_mysql.sql
var schemaMySQL string

// Driver names a supported database engine. The value is the database/sql
// driver name.
type Driver string

const (
	DriverSQLite Driver = "sqlite3"
	DriverMySQL  Driver = "mysql"
)

// ParseDriver maps user input ("sqlite", "sqlite3", "mysql") to a Driver.
// Empty input selects SQLite.
func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "mysql":
		return DriverMySQL, nil
	default:
		return "", fmt.Errorf("unsupported driver %q: must be sqlite or mysql", name)
	}
}

// dialect captures the per-engine differences: DSN shaping, connection
// setup, migrations, row locking and error classification.
type dialect struct {
	driver Driver
	schema string

	// forUpdate is appended to parent-row lookups inside delete transactions.
	forUpdate string

	dsn       func(string) string
	configure func(*sql.DB) error
	migrate   func(*sql.DB, *slog.Logger) error
	classify  func(error) (record.ViolationKind, bool)
}

func dialectFor(d Driver) (dialect, error) {
	switch d {
	case "", DriverSQLite:
		return dialect{
			driver:    DriverSQLite,
			schema:    schemaSQL,
			dsn:       sqliteDSN,
			configure: configureSQLite,
			migrate:   runMigrations,
			classify:  classifySQLite,
		}, nil
	case DriverMySQL:
		return dialect{
			driver:    DriverMySQL,
			schema:    schemaMySQL,
			forUpdate: " FOR UPDATE",
			dsn:       mysqlDSN,
			configure: func(*sql.DB) error { return nil },
			classify:  classifyMySQL,
		}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported driver %q", d)
	}
}

// SchemaFor returns the table DDL for a driver without connecting.
func SchemaFor(d Driver) (string, error) {
	dl, err := dialectFor(d)
	if err != nil {
		return "", err
	}
	return dl.schema, nil
}

// violation converts a driver constraint error into a *record.ConstraintViolation.
// Other errors are returned unchanged.
func (d dialect) violation(table string, err error) error {
	if err == nil {
		return nil
	}
	kind, ok := d.classify(err)
	if !ok {
		return err
	}
	return &record.ConstraintViolation{
		Kind:    kind,
		Table:   table,
		Message: err.Error(),
		Err:     err,
	}
}

// SQLite

// sqliteDSN adds connection parameters so every pooled connection enforces
// foreign keys, not only the one that ran the pragmas.
//
// Transactions begin IMMEDIATE: the write lock is taken at BEGIN, where the
// busy timeout applies. A deferred transaction that reads first and then
// writes fails at once with "database is locked" when another process holds
// the lock, since SQLite does not wait on a read-to-write upgrade.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}

// configureSQLite limits the pool to one connection and applies pragmas.
// SQLite only supports one writer at a time; a single connection serializes
// writes so a foreign key check always sees committed parents.
func configureSQLite(db *sql.DB) error {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func classifySQLite(err error) (record.ViolationKind, bool) {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return "", false
	}
	switch se.ExtendedCode {
	case sqlite3.ErrConstraintForeignKey:
		return record.ForeignKeyViolation, true
	case sqlite3.ErrConstraintNotNull:
		return record.RequiredFieldMissing, true
	}
	return "", false
}

// MySQL

// MySQL server error numbers relevant to the schema's constraints.
const (
	mysqlErrRowIsReferenced   = 1217
	mysqlErrNoReferencedRow   = 1216
	mysqlErrRowIsReferenced2  = 1451
	mysqlErrNoReferencedRow2  = 1452
	mysqlErrBadNull           = 1048
	mysqlErrNoDefaultForField = 1364
)

func classifyMySQL(err error) (record.ViolationKind, bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return "", false
	}
	switch me.Number {
	case mysqlErrNoReferencedRow, mysqlErrNoReferencedRow2,
		mysqlErrRowIsReferenced, mysqlErrRowIsReferenced2:
		return record.ForeignKeyViolation, true
	case mysqlErrBadNull, mysqlErrNoDefaultForField:
		return record.RequiredFieldMissing, true
	}
	return "", false
}

// mysqlDSN forces parseTime and clientFoundRows on a caller-supplied DSN.
// clientFoundRows makes RowsAffected count matched rows, as SQLite does.
// An unparsable DSN is returned unchanged and rejected by sql.Open.
func mysqlDSN(dsn string) string {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return dsn
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

// MySQLDSN builds a DSN for the mysql driver. parseTime is always enabled so
// TIMESTAMP columns scan into time.Time.
func MySQLDSN(host string, port int, user, password, dbName string) string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", host, port)
	cfg.User = user
	cfg.Passwd = password
	cfg.DBName = dbName
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}
