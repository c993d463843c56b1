package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/skillcheck/internal/record"
)

// CreateQuestion inserts a question and returns it with its assigned id and
// created_at.
//
// Returns a RequiredFieldMissing violation if skill, level, question_type,
// question_content or expected_answer is empty. media_path may be nil.
func (s *Store) CreateQuestion(ctx context.Context, in record.NewQuestion) (record.Question, error) {
	var q record.Question
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		q, err = s.insertQuestion(ctx, tx, in)
		return err
	})
	if err != nil {
		return record.Question{}, fmt.Errorf("create question: %w", err)
	}
	s.logger.Debug("question created", "id", q.ID, "skill", q.Skill, "level", q.Level)
	return q, nil
}

// CreateAnswer inserts an answer for an existing question.
//
// The parent check is the database foreign key, evaluated inside the insert,
// so an answer can never be written for a question deleted concurrently.
// A missing question yields a ForeignKeyViolation.
func (s *Store) CreateAnswer(ctx context.Context, in record.NewAnswer) (record.Answer, error) {
	var a record.Answer
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		a, err = s.insertAnswer(ctx, tx, in)
		return err
	})
	if err != nil {
		return record.Answer{}, fmt.Errorf("create answer: %w", err)
	}
	s.logger.Debug("answer created", "id", a.ID, "question_id", a.QuestionID)
	return a, nil
}

// CreateEvaluation inserts an evaluation for an existing answer.
// A missing answer yields a ForeignKeyViolation.
func (s *Store) CreateEvaluation(ctx context.Context, in record.NewEvaluation) (record.Evaluation, error) {
	var e record.Evaluation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		e, err = s.insertEvaluation(ctx, tx, in)
		return err
	})
	if err != nil {
		return record.Evaluation{}, fmt.Errorf("create evaluation: %w", err)
	}
	s.logger.Debug("evaluation created", "id", e.ID, "answer_id", e.AnswerID)
	return e, nil
}

// CreateSession inserts a session. session_id is not unique: sessions sharing
// a correlation key, skill and level are all accepted.
func (s *Store) CreateSession(ctx context.Context, in record.NewSession) (record.Session, error) {
	var sess record.Session
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		sess, err = s.insertSession(ctx, tx, in)
		return err
	})
	if err != nil {
		return record.Session{}, fmt.Errorf("create session: %w", err)
	}
	s.logger.Debug("session created", "id", sess.ID, "session_id", sess.SessionID)
	return sess, nil
}

// DeleteQuestion removes a question together with all of its answers and
// their evaluations.
//
// The whole subtree is removed by the schema's ON DELETE CASCADE inside one
// transaction: a concurrent reader sees either the full subtree or none of
// it. The returned CascadeResult counts the dependent rows removed.
// Returns record.ErrNotFound if no question has the given id.
func (s *Store) DeleteQuestion(ctx context.Context, id int64) (record.CascadeResult, error) {
	var res record.CascadeResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockRow(ctx, tx, record.TableQuestions, id); err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM answers WHERE question_id = ?`, id,
		).Scan(&res.Answers); err != nil {
			return fmt.Errorf("count answers: %w", err)
		}

		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM evaluations e
			JOIN answers a ON e.answer_id = a.id
			WHERE a.question_id = ?
		`, id).Scan(&res.Evaluations); err != nil {
			return fmt.Errorf("count evaluations: %w", err)
		}

		return deleteRow(ctx, tx, record.TableQuestions, id)
	})
	if err != nil {
		return record.CascadeResult{}, fmt.Errorf("delete question %d: %w", id, err)
	}

	s.logger.Info("question deleted",
		"id", id,
		"answers", res.Answers,
		"evaluations", res.Evaluations,
	)
	return res, nil
}

// DeleteAnswer removes an answer together with its evaluations, atomically.
// Returns record.ErrNotFound if no answer has the given id.
func (s *Store) DeleteAnswer(ctx context.Context, id int64) (record.CascadeResult, error) {
	var res record.CascadeResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockRow(ctx, tx, record.TableAnswers, id); err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM evaluations WHERE answer_id = ?`, id,
		).Scan(&res.Evaluations); err != nil {
			return fmt.Errorf("count evaluations: %w", err)
		}

		if err := deleteRow(ctx, tx, record.TableAnswers, id); err != nil {
			return err
		}
		res.Answers = 1
		return nil
	})
	if err != nil {
		return record.CascadeResult{}, fmt.Errorf("delete answer %d: %w", id, err)
	}

	s.logger.Info("answer deleted", "id", id, "evaluations", res.Evaluations)
	return res, nil
}

// UpdateSession sets end_time and/or score on one session. Nil fields are
// left unchanged; no relationship between the two is enforced.
// Returns the updated session, or record.ErrNotFound.
func (s *Store) UpdateSession(ctx context.Context, id int64, upd record.SessionUpdate) (record.Session, error) {
	var sess record.Session
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if !upd.IsEmpty() {
			set, args := sessionUpdateSet(upd)
			if _, err := tx.ExecContext(ctx,
				`UPDATE sessions SET `+set+` WHERE id = ?`,
				append(args, id)...,
			); err != nil {
				return s.dialect.violation(record.TableSessions, err)
			}
		}

		// The read back also reports a missing id as ErrNotFound.
		var err error
		sess, err = getSession(ctx, tx, id)
		return err
	})
	if err != nil {
		return record.Session{}, fmt.Errorf("update session %d: %w", id, err)
	}
	s.logger.Debug("session updated", "id", id)
	return sess, nil
}

// UpdateSessionsByKey applies upd to every session whose session_id equals
// key and returns the number of rows matched. Zero is not an error.
func (s *Store) UpdateSessionsByKey(ctx context.Context, key string, upd record.SessionUpdate) (int64, error) {
	if upd.IsEmpty() {
		return 0, nil
	}

	set, args := sessionUpdateSet(upd)
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET `+set+` WHERE session_id = ?`,
		append(args, key)...,
	)
	if err != nil {
		return 0, fmt.Errorf("update sessions %q: %w", key, s.dialect.violation(record.TableSessions, err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update sessions %q: rows affected: %w", key, err)
	}
	s.logger.Debug("sessions updated", "session_id", key, "rows", n)
	return n, nil
}

// insertQuestion validates and inserts a question using q (a tx in practice)
// and reads it back.
func (s *Store) insertQuestion(ctx context.Context, q querier, in record.NewQuestion) (record.Question, error) {
	in = in.Normalize()
	if err := record.Validate(record.TableQuestions, in); err != nil {
		return record.Question{}, err
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO questions
		(skill, level, question_type, question_content, expected_answer, media_path)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		in.Skill,
		in.Level,
		in.QuestionType,
		in.QuestionContent,
		in.ExpectedAnswer,
		in.MediaPath,
	)
	if err != nil {
		return record.Question{}, s.dialect.violation(record.TableQuestions, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return record.Question{}, fmt.Errorf("last insert id: %w", err)
	}
	return getQuestion(ctx, q, id)
}

func (s *Store) insertAnswer(ctx context.Context, q querier, in record.NewAnswer) (record.Answer, error) {
	in = in.Normalize()
	if err := record.Validate(record.TableAnswers, in); err != nil {
		return record.Answer{}, err
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO answers
		(question_id, answer_content, answer_type, media_path)
		VALUES (?, ?, ?, ?)
	`,
		in.QuestionID,
		in.AnswerContent,
		in.AnswerType,
		in.MediaPath,
	)
	if err != nil {
		if kind, ok := s.dialect.classify(err); ok && kind == record.ForeignKeyViolation {
			return record.Answer{}, record.MissingParent(record.TableAnswers, "question_id", in.QuestionID, err)
		}
		return record.Answer{}, s.dialect.violation(record.TableAnswers, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return record.Answer{}, fmt.Errorf("last insert id: %w", err)
	}
	return getAnswer(ctx, q, id)
}

func (s *Store) insertEvaluation(ctx context.Context, q querier, in record.NewEvaluation) (record.Evaluation, error) {
	if err := record.Validate(record.TableEvaluations, in); err != nil {
		return record.Evaluation{}, err
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO evaluations
		(answer_id, is_correct, explanation)
		VALUES (?, ?, ?)
	`,
		in.AnswerID,
		*in.IsCorrect,
		in.Explanation,
	)
	if err != nil {
		if kind, ok := s.dialect.classify(err); ok && kind == record.ForeignKeyViolation {
			return record.Evaluation{}, record.MissingParent(record.TableEvaluations, "answer_id", in.AnswerID, err)
		}
		return record.Evaluation{}, s.dialect.violation(record.TableEvaluations, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return record.Evaluation{}, fmt.Errorf("last insert id: %w", err)
	}
	return getEvaluation(ctx, q, id)
}

func (s *Store) insertSession(ctx context.Context, q querier, in record.NewSession) (record.Session, error) {
	in = in.Normalize()
	if err := record.Validate(record.TableSessions, in); err != nil {
		return record.Session{}, err
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO sessions
		(session_id, skill, level)
		VALUES (?, ?, ?)
	`,
		in.SessionID,
		in.Skill,
		in.Level,
	)
	if err != nil {
		return record.Session{}, s.dialect.violation(record.TableSessions, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return record.Session{}, fmt.Errorf("last insert id: %w", err)
	}
	return getSession(ctx, q, id)
}

// lockRow checks that the row exists and, on engines that support it, locks
// it for the rest of the transaction so concurrent child inserts wait for
// the delete to finish.
func (s *Store) lockRow(ctx context.Context, tx *sql.Tx, table string, id int64) error {
	var found int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM `+table+` WHERE id = ?`+s.dialect.forUpdate, id,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return record.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock %s: %w", table, err)
	}
	return nil
}

// deleteRow deletes one row by id; dependent rows go with it via the schema's
// cascade rules.
func deleteRow(ctx context.Context, tx *sql.Tx, table string, id int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return record.ErrNotFound
	}
	return nil
}

// sessionUpdateSet builds the SET clause for the non-nil fields of upd.
func sessionUpdateSet(upd record.SessionUpdate) (string, []any) {
	var cols []string
	var args []any
	if upd.EndTime != nil {
		cols = append(cols, "end_time = ?")
		args = append(args, upd.EndTime.UTC())
	}
	if upd.Score != nil {
		cols = append(cols, "score = ?")
		args = append(args, *upd.Score)
	}
	return strings.Join(cols, ", "), args
}

// nullTime converts a scanned nullable timestamp to *time.Time.
func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
