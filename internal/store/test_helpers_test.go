package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/skillcheck/internal/record"
)

// createTestStore creates a new file-backed store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testQuestion returns a question input with only the five required columns.
func testQuestion(skill, level string) record.NewQuestion {
	return record.NewQuestion{
		Skill:           skill,
		Level:           level,
		QuestionType:    "Text",
		QuestionContent: "How would you handle a disagreement in your team?",
		ExpectedAnswer:  "Listen to both sides and look for common ground.",
	}
}

// mustQuestion inserts a question or fails the test.
func mustQuestion(t *testing.T, s *Store, in record.NewQuestion) record.Question {
	t.Helper()
	q, err := s.CreateQuestion(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateQuestion() failed: %v", err)
	}
	return q
}

// mustAnswer inserts an answer to questionID or fails the test.
func mustAnswer(t *testing.T, s *Store, questionID int64) record.Answer {
	t.Helper()
	a, err := s.CreateAnswer(context.Background(), record.NewAnswer{
		QuestionID:    questionID,
		AnswerContent: record.String("I would talk to each person separately."),
		AnswerType:    "Text",
	})
	if err != nil {
		t.Fatalf("CreateAnswer() failed: %v", err)
	}
	return a
}

// mustEvaluation inserts an evaluation of answerID or fails the test.
func mustEvaluation(t *testing.T, s *Store, answerID int64, correct bool) record.Evaluation {
	t.Helper()
	e, err := s.CreateEvaluation(context.Background(), record.NewEvaluation{
		AnswerID:    answerID,
		IsCorrect:   record.Bool(correct),
		Explanation: "Matches the expected approach.",
	})
	if err != nil {
		t.Fatalf("CreateEvaluation() failed: %v", err)
	}
	return e
}

// countRows returns the number of rows in table.
func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s failed: %v", table, err)
	}
	return n
}

// countOrphans returns answers without a question plus evaluations without
// an answer.
func countOrphans(t *testing.T, db *sql.DB) int {
	t.Helper()
	var answers, evaluations int
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM answers a
		LEFT JOIN questions q ON a.question_id = q.id
		WHERE q.id IS NULL
	`).Scan(&answers); err != nil {
		t.Fatalf("count orphaned answers failed: %v", err)
	}
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM evaluations e
		LEFT JOIN answers a ON e.answer_id = a.id
		WHERE a.id IS NULL
	`).Scan(&evaluations); err != nil {
		t.Fatalf("count orphaned evaluations failed: %v", err)
	}
	return answers + evaluations
}
