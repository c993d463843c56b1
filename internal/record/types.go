package record

import "time"

// Table names. External code depends on these, so they are fixed.
const (
	TableQuestions   = "questions"
	TableAnswers     = "answers"
	TableEvaluations = "evaluations"
	TableSessions    = "sessions"
)

// Question is a stored assessment question.
type Question struct {
	ID              int64     `json:"id" yaml:"id"`
	Skill           string    `json:"skill" yaml:"skill"`
	Level           string    `json:"level" yaml:"level"`
	QuestionType    string    `json:"question_type" yaml:"question_type"`
	QuestionContent string    `json:"question_content" yaml:"question_content"`
	ExpectedAnswer  string    `json:"expected_answer" yaml:"expected_answer"`
	MediaPath       *string   `json:"media_path" yaml:"media_path"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}

// Answer is a response to a Question. Deleted with its Question.
type Answer struct {
	ID            int64     `json:"id" yaml:"id"`
	QuestionID    int64     `json:"question_id" yaml:"question_id"`
	AnswerContent *string   `json:"answer_content" yaml:"answer_content"`
	AnswerType    string    `json:"answer_type" yaml:"answer_type"`
	MediaPath     *string   `json:"media_path" yaml:"media_path"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// Evaluation is a verdict on an Answer. Deleted with its Answer.
type Evaluation struct {
	ID          int64     `json:"id" yaml:"id"`
	AnswerID    int64     `json:"answer_id" yaml:"answer_id"`
	IsCorrect   bool      `json:"is_correct" yaml:"is_correct"`
	Explanation string    `json:"explanation" yaml:"explanation"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Session is an assessment session. SessionID is a correlation key chosen by
// the caller and is not unique; several rows may share it.
type Session struct {
	ID        int64      `json:"id" yaml:"id"`
	SessionID string     `json:"session_id" yaml:"session_id"`
	Skill     string     `json:"skill" yaml:"skill"`
	Level     string     `json:"level" yaml:"level"`
	StartTime time.Time  `json:"start_time" yaml:"start_time"`
	EndTime   *time.Time `json:"end_time" yaml:"end_time"`
	Score     *int64     `json:"score" yaml:"score"`
}

// NewQuestion holds the caller-supplied columns of a question insert.
// Identity and created_at are assigned by the store.
type NewQuestion struct {
	Skill           string  `json:"skill" yaml:"skill" validate:"required"`
	Level           string  `json:"level" yaml:"level" validate:"required"`
	QuestionType    string  `json:"question_type" yaml:"question_type" validate:"required"`
	QuestionContent string  `json:"question_content" yaml:"question_content" validate:"required"`
	ExpectedAnswer  string  `json:"expected_answer" yaml:"expected_answer" validate:"required"`
	MediaPath       *string `json:"media_path,omitempty" yaml:"media_path,omitempty"`
}

// NewAnswer holds the caller-supplied columns of an answer insert.
type NewAnswer struct {
	QuestionID    int64   `json:"question_id" yaml:"question_id,omitempty" validate:"required"`
	AnswerContent *string `json:"answer_content,omitempty" yaml:"answer_content,omitempty"`
	AnswerType    string  `json:"answer_type" yaml:"answer_type" validate:"required"`
	MediaPath     *string `json:"media_path,omitempty" yaml:"media_path,omitempty"`
}

// NewEvaluation holds the caller-supplied columns of an evaluation insert.
// IsCorrect is a pointer so that an absent verdict is distinguishable from false.
type NewEvaluation struct {
	AnswerID    int64  `json:"answer_id" yaml:"answer_id,omitempty" validate:"required"`
	IsCorrect   *bool  `json:"is_correct" yaml:"is_correct" validate:"required"`
	Explanation string `json:"explanation" yaml:"explanation" validate:"required"`
}

// NewSession holds the caller-supplied columns of a session insert.
// start_time is assigned by the store.
type NewSession struct {
	SessionID string `json:"session_id" yaml:"session_id" validate:"required"`
	Skill     string `json:"skill" yaml:"skill" validate:"required"`
	Level     string `json:"level" yaml:"level" validate:"required"`
}

// SessionUpdate changes the optional columns of a session.
// Nil fields are left untouched. No ordering between start_time and
// end_time is enforced, and Score may be set without EndTime.
type SessionUpdate struct {
	EndTime *time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Score   *int64     `json:"score,omitempty" yaml:"score,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u SessionUpdate) IsEmpty() bool {
	return u.EndTime == nil && u.Score == nil
}

// CascadeResult reports the dependent rows removed by a cascading delete.
type CascadeResult struct {
	Answers     int64 `json:"answers"`
	Evaluations int64 `json:"evaluations"`
}

// QuestionFilter narrows a question listing. Empty fields match everything.
type QuestionFilter struct {
	Skill        string
	Level        string
	QuestionType string
	Limit        int
}

// SessionFilter narrows a session listing. Empty fields match everything.
type SessionFilter struct {
	SessionID string
	Skill     string
	Level     string
	Limit     int
}

// DefaultListLimit is used when a filter's Limit is zero or negative.
const DefaultListLimit = 10

// String returns a pointer to s, or nil when s is empty.
// Used to map optional CLI/YAML text onto nullable columns.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// Int64 returns a pointer to n.
func Int64(n int64) *int64 {
	return &n
}
