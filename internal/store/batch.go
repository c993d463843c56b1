package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/skillcheck/internal/record"
)

// Import writes a batch of question trees and sessions in one transaction.
//
// Nested answers are attached to the question just created and nested
// evaluations to the answer just created. If any row violates a constraint
// the whole batch is rolled back and the store is left unchanged.
func (s *Store) Import(ctx context.Context, b record.Batch) (record.ImportSummary, error) {
	var sum record.ImportSummary
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		sum = record.ImportSummary{}

		for qi, qt := range b.Questions {
			q, err := s.insertQuestion(ctx, tx, qt.NewQuestion)
			if err != nil {
				return fmt.Errorf("question %d: %w", qi+1, err)
			}
			sum.Questions++

			for ai, at := range qt.Answers {
				na := at.NewAnswer
				na.QuestionID = q.ID
				a, err := s.insertAnswer(ctx, tx, na)
				if err != nil {
					return fmt.Errorf("question %d: answer %d: %w", qi+1, ai+1, err)
				}
				sum.Answers++

				for ei, ne := range at.Evaluations {
					ne.AnswerID = a.ID
					if _, err := s.insertEvaluation(ctx, tx, ne); err != nil {
						return fmt.Errorf("question %d: answer %d: evaluation %d: %w", qi+1, ai+1, ei+1, err)
					}
					sum.Evaluations++
				}
			}
		}

		for si, se := range b.Sessions {
			sess, err := s.insertSession(ctx, tx, se.NewSession)
			if err != nil {
				return fmt.Errorf("session %d: %w", si+1, err)
			}
			if !se.SessionUpdate.IsEmpty() {
				set, args := sessionUpdateSet(se.SessionUpdate)
				if _, err := tx.ExecContext(ctx,
					`UPDATE sessions SET `+set+` WHERE id = ?`,
					append(args, sess.ID)...,
				); err != nil {
					return fmt.Errorf("session %d: %w", si+1, s.dialect.violation(record.TableSessions, err))
				}
			}
			sum.Sessions++
		}
		return nil
	})
	if err != nil {
		return record.ImportSummary{}, fmt.Errorf("import: %w", err)
	}

	s.logger.Info("batch imported",
		"questions", sum.Questions,
		"answers", sum.Answers,
		"evaluations", sum.Evaluations,
		"sessions", sum.Sessions,
	)
	return sum, nil
}

// Export reads the whole store back as a batch, oldest rows first, inside a
// single read transaction so the snapshot is consistent.
//
// Identities and creation timestamps are not part of a batch; importing an
// export into an empty store reproduces the same trees with new ids.
func (s *Store) Export(ctx context.Context) (record.Batch, error) {
	var b record.Batch
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		questions, err := queryAll(ctx, tx, "questions", scanQuestion,
			`SELECT `+questionColumns+` FROM questions ORDER BY id ASC`)
		if err != nil {
			return err
		}

		answers, err := queryAll(ctx, tx, "answers", scanAnswer,
			`SELECT `+answerColumns+` FROM answers ORDER BY id ASC`)
		if err != nil {
			return err
		}

		evaluations, err := queryAll(ctx, tx, "evaluations", scanEvaluation,
			`SELECT `+evaluationColumns+` FROM evaluations ORDER BY id ASC`)
		if err != nil {
			return err
		}

		sessions, err := queryAll(ctx, tx, "sessions", scanSession,
			`SELECT `+sessionColumns+` FROM sessions ORDER BY id ASC`)
		if err != nil {
			return err
		}

		b = buildBatch(questions, answers, evaluations, sessions)
		return nil
	})
	if err != nil {
		return record.Batch{}, fmt.Errorf("export: %w", err)
	}
	return b, nil
}

// buildBatch nests answers under questions and evaluations under answers.
// The foreign keys guarantee every child has its parent in the same snapshot.
func buildBatch(
	questions []record.Question,
	answers []record.Answer,
	evaluations []record.Evaluation,
	sessions []record.Session,
) record.Batch {
	evalsByAnswer := make(map[int64][]record.NewEvaluation)
	for _, e := range evaluations {
		evalsByAnswer[e.AnswerID] = append(evalsByAnswer[e.AnswerID], record.NewEvaluation{
			IsCorrect:   record.Bool(e.IsCorrect),
			Explanation: e.Explanation,
		})
	}

	answersByQuestion := make(map[int64][]record.AnswerTree)
	for _, a := range answers {
		answersByQuestion[a.QuestionID] = append(answersByQuestion[a.QuestionID], record.AnswerTree{
			NewAnswer: record.NewAnswer{
				AnswerContent: a.AnswerContent,
				AnswerType:    a.AnswerType,
				MediaPath:     a.MediaPath,
			},
			Evaluations: evalsByAnswer[a.ID],
		})
	}

	b := record.Batch{
		Questions: make([]record.QuestionTree, 0, len(questions)),
		Sessions:  make([]record.SessionEntry, 0, len(sessions)),
	}
	for _, q := range questions {
		b.Questions = append(b.Questions, record.QuestionTree{
			NewQuestion: record.NewQuestion{
				Skill:           q.Skill,
				Level:           q.Level,
				QuestionType:    q.QuestionType,
				QuestionContent: q.QuestionContent,
				ExpectedAnswer:  q.ExpectedAnswer,
				MediaPath:       q.MediaPath,
			},
			Answers: answersByQuestion[q.ID],
		})
	}
	for _, sess := range sessions {
		b.Sessions = append(b.Sessions, record.SessionEntry{
			NewSession: record.NewSession{
				SessionID: sess.SessionID,
				Skill:     sess.Skill,
				Level:     sess.Level,
			},
			SessionUpdate: record.SessionUpdate{
				EndTime: sess.EndTime,
				Score:   sess.Score,
			},
		})
	}
	return b
}
