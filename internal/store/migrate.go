package store

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Schema version tracking (SQLite only, via PRAGMA user_version):
// 0 - Bare four-table schema (as created by earlier tooling)
// 1 - Lookup indexes on catalog columns, foreign keys and timestamps
const currentSchemaVersion = 1

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
		logger.Info("schema migrated", "from", version, "to", 1)
		version = 1
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the lookup indexes. None of them is UNIQUE: session_id is
// a correlation key and duplicates are allowed.
func migrateToV1(db *sql.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_questions_catalog ON questions(skill, level, question_type)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_created_at ON questions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_question ON answers(question_id)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluations_answer ON evaluations(answer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_session_id ON sessions(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON sessions(start_time)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}
	return nil
}
