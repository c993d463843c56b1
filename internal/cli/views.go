package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/roach88/skillcheck/internal/record"
)

// Text renderings of command results. JSON output encodes the same values
// through their record field tags.

const timeLayout = time.RFC3339

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func timeOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}

func intOrDash(n *int64) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}

// oneLine collapses whitespace so long content fits a table cell.
func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}

type questionView record.Question

func (q questionView) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Question %d\n  skill:    %s\n  level:    %s\n  type:     %s\n  content:  %s\n  expected: %s\n  media:    %s\n  created:  %s\n",
		q.ID, q.Skill, q.Level, q.QuestionType, q.QuestionContent, q.ExpectedAnswer,
		orDash(q.MediaPath), q.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

type questionList []record.Question

func (l questionList) WriteText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No questions found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSKILL\tLEVEL\tTYPE\tCONTENT\tCREATED")
	for _, q := range l {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			q.ID, q.Skill, q.Level, q.QuestionType, oneLine(q.QuestionContent, 48),
			q.CreatedAt.UTC().Format(timeLayout))
	}
	return tw.Flush()
}

// questionDetail is a question with its answers and their evaluations.
type questionDetail struct {
	Question record.Question `json:"question"`
	Answers  []answerDetail  `json:"answers"`
}

type answerDetail struct {
	Answer      record.Answer       `json:"answer"`
	Evaluations []record.Evaluation `json:"evaluations"`
}

func (d questionDetail) WriteText(w io.Writer) error {
	if err := questionView(d.Question).WriteText(w); err != nil {
		return err
	}
	if len(d.Answers) == 0 {
		_, err := fmt.Fprintln(w, "  answers:  none")
		return err
	}
	for _, a := range d.Answers {
		fmt.Fprintf(w, "  Answer %d (%s): %s\n", a.Answer.ID, a.Answer.AnswerType, orDash(a.Answer.AnswerContent))
		for _, e := range a.Evaluations {
			fmt.Fprintf(w, "    Evaluation %d: %s - %s\n", e.ID, verdict(e.IsCorrect), e.Explanation)
		}
	}
	return nil
}

func verdict(correct bool) string {
	if correct {
		return "correct"
	}
	return "incorrect"
}

type answerView record.Answer

func (a answerView) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Answer %d\n  question: %d\n  type:     %s\n  content:  %s\n  media:    %s\n  created:  %s\n",
		a.ID, a.QuestionID, a.AnswerType, orDash(a.AnswerContent), orDash(a.MediaPath),
		a.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

type answerList []record.Answer

func (l answerList) WriteText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No answers found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUESTION\tTYPE\tCONTENT\tMEDIA")
	for _, a := range l {
		content := "-"
		if a.AnswerContent != nil {
			content = oneLine(*a.AnswerContent, 48)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", a.ID, a.QuestionID, a.AnswerType, content, orDash(a.MediaPath))
	}
	return tw.Flush()
}

type evaluationView record.Evaluation

func (e evaluationView) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Evaluation %d\n  answer:      %d\n  verdict:     %s\n  explanation: %s\n  created:     %s\n",
		e.ID, e.AnswerID, verdict(e.IsCorrect), e.Explanation, e.CreatedAt.UTC().Format(timeLayout))
	return err
}

type evaluationList []record.Evaluation

func (l evaluationList) WriteText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No evaluations found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tANSWER\tVERDICT\tEXPLANATION")
	for _, e := range l {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", e.ID, e.AnswerID, verdict(e.IsCorrect), oneLine(e.Explanation, 60))
	}
	return tw.Flush()
}

type sessionView record.Session

func (s sessionView) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Session %d\n  key:   %s\n  skill: %s\n  level: %s\n  start: %s\n  end:   %s\n  score: %s\n",
		s.ID, s.SessionID, s.Skill, s.Level, s.StartTime.UTC().Format(timeLayout),
		timeOrDash(s.EndTime), intOrDash(s.Score))
	return err
}

type sessionList []record.Session

func (l sessionList) WriteText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKEY\tSKILL\tLEVEL\tSTART\tEND\tSCORE")
	for _, s := range l {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.SessionID, s.Skill, s.Level, s.StartTime.UTC().Format(timeLayout),
			timeOrDash(s.EndTime), intOrDash(s.Score))
	}
	return tw.Flush()
}

// deleteResult reports a cascading delete.
type deleteResult struct {
	Table   string               `json:"table"`
	ID      int64                `json:"id"`
	Removed record.CascadeResult `json:"removed"`
}

func (d deleteResult) WriteText(w io.Writer) error {
	switch d.Table {
	case record.TableQuestions:
		_, err := fmt.Fprintf(w, "Deleted question %d (%d answers, %d evaluations)\n",
			d.ID, d.Removed.Answers, d.Removed.Evaluations)
		return err
	default:
		_, err := fmt.Fprintf(w, "Deleted answer %d (%d evaluations)\n", d.ID, d.Removed.Evaluations)
		return err
	}
}

// keyUpdateResult reports an update applied by correlation key.
type keyUpdateResult struct {
	SessionID string `json:"session_id"`
	Updated   int64  `json:"updated"`
}

func (r keyUpdateResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Updated %d session(s) with key %s\n", r.Updated, r.SessionID)
	return err
}

type importResult record.ImportSummary

func (r importResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Imported %d questions, %d answers, %d evaluations, %d sessions\n",
		r.Questions, r.Answers, r.Evaluations, r.Sessions)
	return err
}

// exportResult reports a fixture written to a file.
type exportResult struct {
	Path        string `json:"path"`
	Questions   int    `json:"questions"`
	Answers     int    `json:"answers"`
	Evaluations int    `json:"evaluations"`
	Sessions    int    `json:"sessions"`
}

func (r exportResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Exported %d questions, %d answers, %d evaluations, %d sessions to %s\n",
		r.Questions, r.Answers, r.Evaluations, r.Sessions, r.Path)
	return err
}

// catalogView lists the suggested catalog values.
type catalogView struct {
	Skills        []string `json:"skills"`
	Levels        []string `json:"levels"`
	QuestionTypes []string `json:"question_types"`
}

func (c catalogView) WriteText(w io.Writer) error {
	sections := []struct {
		title  string
		values []string
	}{
		{"Skills", c.Skills},
		{"Levels", c.Levels},
		{"Question types", c.QuestionTypes},
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s:\n", s.title)
		for _, v := range s.values {
			if _, err := fmt.Fprintf(w, "  %s\n", v); err != nil {
				return err
			}
		}
	}
	return nil
}
