package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/skillcheck/internal/record"
)

const (
	questionColumns   = `id, skill, level, question_type, question_content, expected_answer, media_path, created_at`
	answerColumns     = `id, question_id, answer_content, answer_type, media_path, created_at`
	evaluationColumns = `id, answer_id, is_correct, explanation, created_at`
	sessionColumns    = `id, session_id, skill, level, start_time, end_time, score`
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// GetQuestion retrieves a single question by id.
// Returns record.ErrNotFound if it does not exist.
func (s *Store) GetQuestion(ctx context.Context, id int64) (record.Question, error) {
	return getQuestion(ctx, s.db, id)
}

// ListQuestions returns questions matching f, newest first
// (created_at DESC, id DESC). At most f.Limit rows are returned; a
// non-positive limit means record.DefaultListLimit.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListQuestions(ctx context.Context, f record.QuestionFilter) ([]record.Question, error) {
	f = f.Normalize()

	q := &listQuery{table: "questions", columns: questionColumns, orderBy: "created_at", limit: f.Limit}
	q.where("skill", f.Skill).where("level", f.Level).where("question_type", f.QuestionType)
	query, args, err := q.compile()
	if err != nil {
		return nil, err
	}

	return queryAll(ctx, s.db, "questions", scanQuestion, query, args...)
}

// GetAnswer retrieves a single answer by id.
// Returns record.ErrNotFound if it does not exist.
func (s *Store) GetAnswer(ctx context.Context, id int64) (record.Answer, error) {
	return getAnswer(ctx, s.db, id)
}

// ListAnswers returns all answers to a question, newest first.
// An unknown question yields an empty slice.
func (s *Store) ListAnswers(ctx context.Context, questionID int64) ([]record.Answer, error) {
	return queryAll(ctx, s.db, "answers", scanAnswer, `
		SELECT `+answerColumns+`
		FROM answers
		WHERE question_id = ?
		ORDER BY created_at DESC, id DESC
	`, questionID)
}

// GetEvaluation retrieves a single evaluation by id.
// Returns record.ErrNotFound if it does not exist.
func (s *Store) GetEvaluation(ctx context.Context, id int64) (record.Evaluation, error) {
	return getEvaluation(ctx, s.db, id)
}

// ListEvaluations returns all evaluations of an answer, newest first.
func (s *Store) ListEvaluations(ctx context.Context, answerID int64) ([]record.Evaluation, error) {
	return queryAll(ctx, s.db, "evaluations", scanEvaluation, `
		SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE answer_id = ?
		ORDER BY created_at DESC, id DESC
	`, answerID)
}

// LatestEvaluation returns the most recent evaluation of an answer.
// Returns record.ErrNotFound if the answer has none.
func (s *Store) LatestEvaluation(ctx context.Context, answerID int64) (record.Evaluation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE answer_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, answerID)
	v, err := scanEvaluation(row)
	return v, notFound(err)
}

// GetSession retrieves a single session by id.
// Returns record.ErrNotFound if it does not exist.
func (s *Store) GetSession(ctx context.Context, id int64) (record.Session, error) {
	return getSession(ctx, s.db, id)
}

// ListSessions returns sessions matching f, most recently started first
// (start_time DESC, id DESC).
func (s *Store) ListSessions(ctx context.Context, f record.SessionFilter) ([]record.Session, error) {
	f = f.Normalize()

	q := &listQuery{table: "sessions", columns: sessionColumns, orderBy: "start_time", limit: f.Limit}
	q.where("session_id", f.SessionID).where("skill", f.Skill).where("level", f.Level)
	query, args, err := q.compile()
	if err != nil {
		return nil, err
	}

	return queryAll(ctx, s.db, "sessions", scanSession, query, args...)
}

func getQuestion(ctx context.Context, q querier, id int64) (record.Question, error) {
	row := q.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	v, err := scanQuestion(row)
	return v, notFound(err)
}

func getAnswer(ctx context.Context, q querier, id int64) (record.Answer, error) {
	row := q.QueryRowContext(ctx, `SELECT `+answerColumns+` FROM answers WHERE id = ?`, id)
	v, err := scanAnswer(row)
	return v, notFound(err)
}

func getEvaluation(ctx context.Context, q querier, id int64) (record.Evaluation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+evaluationColumns+` FROM evaluations WHERE id = ?`, id)
	v, err := scanEvaluation(row)
	return v, notFound(err)
}

func getSession(ctx context.Context, q querier, id int64) (record.Session, error) {
	row := q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	v, err := scanSession(row)
	return v, notFound(err)
}

// notFound maps sql.ErrNoRows to record.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return record.ErrNotFound
	}
	return err
}

// queryAll runs a query and scans every row with scan.
// Returns an empty slice (not nil) when there are no rows.
func queryAll[T any](
	ctx context.Context,
	q querier,
	what string,
	scan func(scanner) (T, error),
	query string,
	args ...any,
) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}

// scanQuestion scans a row into a Question struct.
func scanQuestion(sc scanner) (record.Question, error) {
	var q record.Question
	var mediaPath sql.NullString

	if err := sc.Scan(
		&q.ID, &q.Skill, &q.Level, &q.QuestionType,
		&q.QuestionContent, &q.ExpectedAnswer, &mediaPath, &q.CreatedAt,
	); err != nil {
		return record.Question{}, wrapScan("question", err)
	}

	q.MediaPath = nullString(mediaPath)
	return q, nil
}

// scanAnswer scans a row into an Answer struct.
func scanAnswer(sc scanner) (record.Answer, error) {
	var a record.Answer
	var content, mediaPath sql.NullString

	if err := sc.Scan(
		&a.ID, &a.QuestionID, &content, &a.AnswerType, &mediaPath, &a.CreatedAt,
	); err != nil {
		return record.Answer{}, wrapScan("answer", err)
	}

	a.AnswerContent = nullString(content)
	a.MediaPath = nullString(mediaPath)
	return a, nil
}

// scanEvaluation scans a row into an Evaluation struct.
func scanEvaluation(sc scanner) (record.Evaluation, error) {
	var e record.Evaluation

	if err := sc.Scan(
		&e.ID, &e.AnswerID, &e.IsCorrect, &e.Explanation, &e.CreatedAt,
	); err != nil {
		return record.Evaluation{}, wrapScan("evaluation", err)
	}
	return e, nil
}

// scanSession scans a row into a Session struct.
func scanSession(sc scanner) (record.Session, error) {
	var s record.Session
	var endTime sql.NullTime
	var score sql.NullInt64

	if err := sc.Scan(
		&s.ID, &s.SessionID, &s.Skill, &s.Level, &s.StartTime, &endTime, &score,
	); err != nil {
		return record.Session{}, wrapScan("session", err)
	}

	s.EndTime = nullTime(endTime)
	if score.Valid {
		s.Score = record.Int64(score.Int64)
	}
	return s, nil
}

// wrapScan leaves sql.ErrNoRows bare so notFound can map it.
func wrapScan(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return fmt.Errorf("scan %s: %w", what, err)
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
