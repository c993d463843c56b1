package record

import "golang.org/x/text/unicode/norm"

// Catalog columns (skill, level, question_type, answer_type) are stored in
// Unicode NFC so that filters match regardless of how the caller composed the
// text. Content columns and session_id are stored byte-for-byte.

// NormalizeKey returns s in NFC.
func NormalizeKey(s string) string {
	return norm.NFC.String(s)
}

// Normalize returns q with its catalog columns in NFC.
func (q NewQuestion) Normalize() NewQuestion {
	q.Skill = NormalizeKey(q.Skill)
	q.Level = NormalizeKey(q.Level)
	q.QuestionType = NormalizeKey(q.QuestionType)
	return q
}

// Normalize returns a with its catalog columns in NFC.
func (a NewAnswer) Normalize() NewAnswer {
	a.AnswerType = NormalizeKey(a.AnswerType)
	return a
}

// Normalize returns s with its catalog columns in NFC.
func (s NewSession) Normalize() NewSession {
	s.Skill = NormalizeKey(s.Skill)
	s.Level = NormalizeKey(s.Level)
	return s
}

// Normalize returns f with its catalog columns in NFC and a positive limit.
func (f QuestionFilter) Normalize() QuestionFilter {
	f.Skill = NormalizeKey(f.Skill)
	f.Level = NormalizeKey(f.Level)
	f.QuestionType = NormalizeKey(f.QuestionType)
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	return f
}

// Normalize returns f with its catalog columns in NFC and a positive limit.
func (f SessionFilter) Normalize() SessionFilter {
	f.Skill = NormalizeKey(f.Skill)
	f.Level = NormalizeKey(f.Level)
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	return f
}
