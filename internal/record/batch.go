package record

// Batch is a set of question trees and sessions written or read as a unit.
//
// Nested answers take their question_id from the enclosing question and nested
// evaluations take their answer_id from the enclosing answer, so those fields
// are ignored inside a tree.
type Batch struct {
	Questions []QuestionTree `json:"questions" yaml:"questions"`
	Sessions  []SessionEntry `json:"sessions" yaml:"sessions"`
}

// QuestionTree is a question with its dependent answers.
type QuestionTree struct {
	NewQuestion `yaml:",inline"`
	Answers     []AnswerTree `json:"answers,omitempty" yaml:"answers,omitempty"`
}

// AnswerTree is an answer with its dependent evaluations.
type AnswerTree struct {
	NewAnswer   `yaml:",inline"`
	Evaluations []NewEvaluation `json:"evaluations,omitempty" yaml:"evaluations,omitempty"`
}

// SessionEntry is a session insert plus its optional closing columns. Both
// halves are inlined, so JSON and YAML share one flat shape:
// session_id, skill, level, end_time, score.
type SessionEntry struct {
	NewSession    `yaml:",inline"`
	SessionUpdate `yaml:",inline"`
}

// ImportSummary counts the rows created by a batch import.
type ImportSummary struct {
	Questions   int `json:"questions"`
	Answers     int `json:"answers"`
	Evaluations int `json:"evaluations"`
	Sessions    int `json:"sessions"`
}
