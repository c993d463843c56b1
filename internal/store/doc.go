// Package store provides durable storage for skill assessment records.
//
// The store persists four tables:
//   - questions: the root records
//   - answers: owned by one question (answers.question_id, ON DELETE CASCADE)
//   - evaluations: owned by one answer (evaluations.answer_id, ON DELETE CASCADE)
//   - sessions: independent, keyed by a non-unique correlation key
//
// # Constraints
//
// Required columns are checked before the insert (RequiredFieldMissing) and
// again by NOT NULL in the schema. Parent existence is checked only by the
// foreign keys, inside the insert statement, so a child insert either
// precedes its parent's deletion (and is cascaded away with it) or follows
// it (and fails with ForeignKeyViolation). No orphan is ever visible.
//
// Deleting a question removes its answers and their evaluations in a single
// transaction via the schema's two-level cascade, never as separate
// application-issued deletes.
//
// # Drivers
//
//   - sqlite3 (default): WAL, synchronous=NORMAL, busy_timeout=5000,
//     foreign_keys=ON, one pooled connection; schema versioned with
//     PRAGMA user_version.
//   - mysql: InnoDB tables; parent rows are locked FOR UPDATE during deletes.
package store
