// Package record defines the four record types persisted by the skillcheck
// store: questions, answers, evaluations and sessions.
//
// This package contains type definitions, insert validation and the
// constraint violation errors shared by the store and the CLI. It imports
// nothing internal.
//
// Ownership:
//   - Question is the root.
//   - Answer belongs to exactly one Question (deleted with it).
//   - Evaluation belongs to exactly one Answer (deleted with it).
//   - Session is independent; its skill and level are not linked to
//     questions by any constraint.
//
// All JSON and YAML tags use the column names of the underlying tables.
package record
