package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/roach88/skillcheck/internal/record"
)

func TestCreateQuestion_RequiredColumnsOnly(t *testing.T) {
	s := createTestStore(t)

	q, err := s.CreateQuestion(context.Background(), testQuestion("Teamwork", "Beginner"))
	if err != nil {
		t.Fatalf("CreateQuestion() failed: %v", err)
	}

	if q.ID <= 0 {
		t.Errorf("id = %d, want positive", q.ID)
	}
	if q.MediaPath != nil {
		t.Errorf("media_path = %q, want absent", *q.MediaPath)
	}
	if q.CreatedAt.IsZero() {
		t.Error("created_at was not defaulted")
	}
	if q.Skill != "Teamwork" || q.Level != "Beginner" || q.QuestionType != "Text" {
		t.Errorf("catalog columns = %q/%q/%q", q.Skill, q.Level, q.QuestionType)
	}

	var mediaIsNull bool
	if err := s.db.QueryRow(
		`SELECT media_path IS NULL FROM questions WHERE id = ?`, q.ID,
	).Scan(&mediaIsNull); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !mediaIsNull {
		t.Error("media_path stored as non-NULL")
	}
}

func TestCreateQuestion_WithMediaPath(t *testing.T) {
	s := createTestStore(t)

	in := testQuestion("Communication", "Advanced")
	in.QuestionType = "Image"
	in.MediaPath = record.String("media/slide.png")

	q := mustQuestion(t, s, in)
	if q.MediaPath == nil || *q.MediaPath != "media/slide.png" {
		t.Errorf("media_path = %v, want media/slide.png", q.MediaPath)
	}
}

func TestCreateQuestion_MissingRequiredField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*record.NewQuestion)
		field  string
	}{
		{"skill", func(q *record.NewQuestion) { q.Skill = "" }, "skill"},
		{"level", func(q *record.NewQuestion) { q.Level = "" }, "level"},
		{"question_type", func(q *record.NewQuestion) { q.QuestionType = "" }, "question_type"},
		{"question_content", func(q *record.NewQuestion) { q.QuestionContent = "" }, "question_content"},
		{"expected_answer", func(q *record.NewQuestion) { q.ExpectedAnswer = "" }, "expected_answer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createTestStore(t)

			in := testQuestion("Teamwork", "Beginner")
			tt.mutate(&in)

			_, err := s.CreateQuestion(context.Background(), in)
			if !record.IsRequiredFieldMissing(err) {
				t.Fatalf("CreateQuestion() error = %v, want RequiredFieldMissing", err)
			}

			var cv *record.ConstraintViolation
			if !errors.As(err, &cv) {
				t.Fatal("error is not a ConstraintViolation")
			}
			if len(cv.Fields) != 1 || cv.Fields[0] != tt.field {
				t.Errorf("fields = %v, want [%s]", cv.Fields, tt.field)
			}
			if n := countRows(t, s.db, "questions"); n != 0 {
				t.Errorf("questions rows = %d after rejected insert, want 0", n)
			}
		})
	}
}

func TestCreateQuestion_NormalizesCatalogColumns(t *testing.T) {
	s := createTestStore(t)

	// "e" followed by a combining acute accent (NFD).
	in := testQuestion("De\u0301cision Making", "Beginner")
	q := mustQuestion(t, s, in)

	if q.Skill != "D\u00e9cision Making" {
		t.Errorf("skill = %q, want NFC form", q.Skill)
	}
}

func TestCreateAnswer_Basic(t *testing.T) {
	s := createTestStore(t)
	q := mustQuestion(t, s, testQuestion("Teamwork", "Beginner"))

	a, err := s.CreateAnswer(context.Background(), record.NewAnswer{
		QuestionID: q.ID,
		AnswerType: "Audio",
		MediaPath:  record.String("media/answer.wav"),
	})
	if err != nil {
		t.Fatalf("CreateAnswer() failed: %v", err)
	}

	if a.QuestionID != q.ID {
		t.Errorf("question_id = %d, want %d", a.QuestionID, q.ID)
	}
	if a.AnswerContent != nil {
		t.Errorf("answer_content = %q, want absent", *a.AnswerContent)
	}
	if a.CreatedAt.IsZero() {
		t.Error("created_at was not defaulted")
	}
}

func TestCreateAnswer_ForeignKeyViolation(t *testing.T) {
	s := createTestStore(t)

	_, err := s.CreateAnswer(context.Background(), record.NewAnswer{
		QuestionID: 999,
		AnswerType: "Text",
	})
	if !record.IsForeignKeyViolation(err) {
		t.Fatalf("CreateAnswer() error = %v, want ForeignKeyViolation", err)
	}

	var cv *record.ConstraintViolation
	if errors.As(err, &cv) {
		if cv.Table != record.TableAnswers {
			t.Errorf("table = %q, want %q", cv.Table, record.TableAnswers)
		}
		if len(cv.Fields) != 1 || cv.Fields[0] != "question_id" {
			t.Errorf("fields = %v, want [question_id]", cv.Fields)
		}
	}
	if n := countRows(t, s.db, "answers"); n != 0 {
		t.Errorf("answers rows = %d, want 0", n)
	}
}

func TestCreateAnswer_MissingRequiredField(t *testing.T) {
	s := createTestStore(t)
	q := mustQuestion(t, s, testQuestion("Teamwork", "Beginner"))

	_, err := s.CreateAnswer(context.Background(), record.NewAnswer{QuestionID: q.ID})
	if !record.IsRequiredFieldMissing(err) {
		t.Fatalf("CreateAnswer() error = %v, want RequiredFieldMissing", err)
	}

	_, err = s.CreateAnswer(context.Background(), record.NewAnswer{AnswerType: "Text"})
	if !record.IsRequiredFieldMissing(err) {
		t.Fatalf("CreateAnswer() without question_id error = %v, want RequiredFieldMissing", err)
	}
}

func TestCreateEvaluation_Basic(t *testing.T) {
	s := createTestStore(t)
	q := mustQuestion(t, s, testQuestion("Teamwork", "Beginner"))
	a := mustAnswer(t, s, q.ID)

	e, err := s.CreateEvaluation(context.Background(), record.NewEvaluation{
		AnswerID:    a.ID,
		IsCorrect:   record.Bool(false),
		Explanation: "Does not address the conflict.",
	})
	if err != nil {
		t.Fatalf("CreateEvaluation() failed: %v", err)
	}
	if e.AnswerID != a.ID {
		t.Errorf("answer_id = %d, want %d", e.AnswerID, a.ID)
	}
	if e.IsCorrect {
		t.Error("is_correct = true, want false")
	}
}

func TestCreateEvaluation_ForeignKeyViolation(t *testing.T) {
	s := createTestStore(t)

	_, err := s.CreateEvaluation(context.Background(), record.NewEvaluation{
		AnswerID:    42,
		IsCorrect:   record.Bool(true),
		Explanation: "n/a",
	})
	if !record.IsForeignKeyViolation(err) {
		t.Fatalf("CreateEvaluation() error = %v, want ForeignKeyViolation", err)
	}
}

func TestCreateEvaluation_AbsentVerdict(t *testing.T) {
	s := createTestStore(t)
	q := mustQuestion(t, s, testQuestion("Teamwork", "Beginner"))
	a := mustAnswer(t, s, q.ID)

	_, err := s.CreateEvaluation(context.Background(), record.NewEvaluation{
		AnswerID:    a.ID,
		Explanation: "no verdict",
	})
	if !record.IsRequiredFieldMissing(err) {
		t.Fatalf("CreateEvaluation() error = %v, want RequiredFieldMissing", err)
	}
}

func TestCreateSession_DuplicatesAccepted(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	in := record.NewSession{SessionID: "abc-123", Skill: "Leadership", Level: "Intermediate"}
	first, err := s.CreateSession(ctx, in)
	if err != nil {
		t.Fatalf("first CreateSession() failed: %v", err)
	}
	second, err := s.CreateSession(ctx, in)
	if err != nil {
		t.Fatalf("second CreateSession() failed: %v", err)
	}

	if first.ID == second.ID {
		t.Errorf("both sessions have id %d", first.ID)
	}
	if first.StartTime.IsZero() {
		t.Error("start_time was not defaulted")
	}
	if first.EndTime != nil || first.Score != nil {
		t.Error("new session should have no end_time or score")
	}
	if n := countRows(t, s.db, "sessions"); n != 2 {
		t.Errorf("sessions rows = %d, want 2", n)
	}
}

func TestCreateSession_MissingRequiredField(t *testing.T) {
	s := createTestStore(t)

	_, err := s.CreateSession(context.Background(), record.NewSession{Skill: "Leadership", Level: "Beginner"})
	if !record.IsRequiredFieldMissing(err) {
		t.Fatalf("CreateSession() error = %v, want RequiredFieldMissing", err)
	}
}

func TestUpdateSession_ScoreWithoutEndTime(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, record.NewSession{SessionID: "k", Skill: "Creativity", Level: "Advanced"})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	got, err := s.UpdateSession(ctx, sess.ID, record.SessionUpdate{Score: record.Int64(7)})
	if err != nil {
		t.Fatalf("UpdateSession() failed: %v", err)
	}
	if got.Score == nil || *got.Score != 7 {
		t.Errorf("score = %v, want 7", got.Score)
	}
	if got.EndTime != nil {
		t.Errorf("end_time = %v, want absent", got.EndTime)
	}
}

func TestUpdateSession_EndTimeBeforeStart(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, record.NewSession{SessionID: "k", Skill: "Creativity", Level: "Advanced"})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	end := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	got, err := s.UpdateSession(ctx, sess.ID, record.SessionUpdate{EndTime: &end})
	if err != nil {
		t.Fatalf("UpdateSession() failed: %v", err)
	}
	if got.EndTime == nil || !got.EndTime.Equal(end) {
		t.Errorf("end_time = %v, want %v", got.EndTime, end)
	}
	if got.Score != nil {
		t.Errorf("score = %v, want absent", *got.Score)
	}
}

func TestUpdateSession_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.UpdateSession(context.Background(), 404, record.SessionUpdate{Score: record.Int64(1)})
	if !errors.Is(err, record.ErrNotFound) {
		t.Errorf("UpdateSession() error = %v, want ErrNotFound", err)
	}

	_, err = s.UpdateSession(context.Background(), 404, record.SessionUpdate{})
	if !errors.Is(err, record.ErrNotFound) {
		t.Errorf("empty UpdateSession() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateSessionsByKey(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"shared", "shared", "other"} {
		if _, err := s.CreateSession(ctx, record.NewSession{SessionID: key, Skill: "Negotiation", Level: "Beginner"}); err != nil {
			t.Fatalf("CreateSession() failed: %v", err)
		}
	}

	n, err := s.UpdateSessionsByKey(ctx, "shared", record.SessionUpdate{Score: record.Int64(3)})
	if err != nil {
		t.Fatalf("UpdateSessionsByKey() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}

	var scored int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE score = 3`).Scan(&scored); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if scored != 2 {
		t.Errorf("scored sessions = %d, want 2", scored)
	}

	n, err = s.UpdateSessionsByKey(ctx, "missing", record.SessionUpdate{Score: record.Int64(1)})
	if err != nil || n != 0 {
		t.Errorf("UpdateSessionsByKey(missing) = %d, %v; want 0, nil", n, err)
	}

	n, err = s.UpdateSessionsByKey(ctx, "shared", record.SessionUpdate{})
	if err != nil || n != 0 {
		t.Errorf("empty UpdateSessionsByKey() = %d, %v; want 0, nil", n, err)
	}
}

func TestDeleteQuestion_Cascade(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	q := mustQuestion(t, s, testQuestion("Teamwork", "Beginner"))
	keep := mustQuestion(t, s, testQuestion("Teamwork", "Advanced"))

	for i := 0; i < 3; i++ {
		a := mustAnswer(t, s, q.ID)
		mustEvaluation(t, s, a.ID, i%2 == 0)
		mustEvaluation(t, s, a.ID, true)
	}
	keptAnswer := mustAnswer(t, s, keep.ID)
	mustEvaluation(t, s, keptAnswer.ID, true)

	res, err := s.DeleteQuestion(ctx, q.ID)
	if err != nil {
		t.Fatalf("DeleteQuestion() failed: %v", err)
	}
	if res.Answers != 3 || res.Evaluations != 6 {
		t.Errorf("CascadeResult = %+v, want {Answers:3 Evaluations:6}", res)
	}

	if _, err := s.GetQuestion(ctx, q.ID); !errors.Is(err, record.ErrNotFound) {
		t.Errorf("GetQuestion() after delete error = %v, want ErrNotFound", err)
	}
	if n := countRows(t, s.db, "answers"); n != 1 {
		t.Errorf("answers rows = %d, want 1", n)
	}
	if n := countRows(t, s.db, "evaluations"); n != 1 {
		t.Errorf("evaluations rows = %d, want 1", n)
	}
	if n := countOrphans(t, s.db); n != 0 {
		t.Errorf("orphans = %d, want 0", n)
	}
}

func TestDeleteQuestion_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.DeleteQuestion(context.Background(), 7)
	if !errors.Is(err, record.ErrNotFound) {
		t.Errorf("DeleteQuestion() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteAnswer_Cascade(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	q := mustQuestion(t, s, testQuestion("Teamwork", "Beginner"))
	a := mustAnswer(t, s, q.ID)
	other := mustAnswer(t, s, q.ID)
	mustEvaluation(t, s, a.ID, true)
	mustEvaluation(t, s, a.ID, false)
	mustEvaluation(t, s, other.ID, true)

	res, err := s.DeleteAnswer(ctx, a.ID)
	if err != nil {
		t.Fatalf("DeleteAnswer() failed: %v", err)
	}
	if res.Answers != 1 || res.Evaluations != 2 {
		t.Errorf("CascadeResult = %+v, want {Answers:1 Evaluations:2}", res)
	}

	if _, err := s.GetQuestion(ctx, q.ID); err != nil {
		t.Errorf("parent question should survive: %v", err)
	}
	if n := countRows(t, s.db, "evaluations"); n != 1 {
		t.Errorf("evaluations rows = %d, want 1", n)
	}

	if _, err := s.DeleteAnswer(ctx, a.ID); !errors.Is(err, record.ErrNotFound) {
		t.Errorf("second DeleteAnswer() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteQuestion_ConcurrentAnswerInserts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	q := mustQuestion(t, s, testQuestion("Adaptability", "Intermediate"))
	mustAnswer(t, s, q.ID)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers*5)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				_, err := s.CreateAnswer(ctx, record.NewAnswer{
					QuestionID:    q.ID,
					AnswerContent: record.String(fmt.Sprintf("writer %d answer %d", w, i)),
					AnswerType:    "Text",
				})
				if err != nil && !record.IsForeignKeyViolation(err) {
					errs <- err
				}
			}
		}(w)
	}

	if _, err := s.DeleteQuestion(ctx, q.ID); err != nil {
		t.Fatalf("DeleteQuestion() failed: %v", err)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected insert error: %v", err)
	}
	if n := countOrphans(t, s.db); n != 0 {
		t.Errorf("orphans = %d, want 0", n)
	}

	// Every insert either preceded the delete and was cascaded, or followed it
	// and was rejected.
	if n := countRows(t, s.db, "answers"); n != 0 {
		t.Errorf("answers rows = %d, want 0", n)
	}
}

func TestDeleteQuestion_ConcurrentHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	deleter, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer deleter.Close()

	inserter, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer inserter.Close()

	const questions = 20
	ids := make([]int64, 0, questions)
	for i := 0; i < questions; i++ {
		ids = append(ids, mustQuestion(t, deleter, testQuestion("Teamwork", "Beginner")).ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, questions*6)

	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, id := range ids {
			if _, err := deleter.DeleteQuestion(ctx, id); err != nil {
				errs <- fmt.Errorf("delete %d: %w", id, err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for _, id := range ids {
			for i := 0; i < 5; i++ {
				_, err := inserter.CreateAnswer(ctx, record.NewAnswer{QuestionID: id, AnswerType: "Text"})
				if err != nil && !record.IsForeignKeyViolation(err) {
					errs <- fmt.Errorf("insert for %d: %w", id, err)
				}
			}
		}
	}()
	wg.Wait()
	close(errs)

	// Writers on separate handles wait for the lock instead of failing.
	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	if n := countOrphans(t, deleter.db); n != 0 {
		t.Errorf("orphans = %d, want 0", n)
	}
	if n := countRows(t, deleter.db, "answers"); n != 0 {
		t.Errorf("answers rows = %d, want 0", n)
	}
	if n := countRows(t, deleter.db, "questions"); n != 0 {
		t.Errorf("questions rows = %d, want 0", n)
	}
}

func TestCreateChild_ParentIDs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// A zero parent id is an unset column; any other unknown id is a
	// foreign key failure.
	tests := []struct {
		id      int64
		wantReq bool
	}{
		{0, true},
		{-5, false},
		{999, false},
	}
	for _, tt := range tests {
		_, err := s.CreateAnswer(ctx, record.NewAnswer{QuestionID: tt.id, AnswerType: "Text"})
		if tt.wantReq && !record.IsRequiredFieldMissing(err) {
			t.Errorf("CreateAnswer(question_id=%d) error = %v, want RequiredFieldMissing", tt.id, err)
		}
		if !tt.wantReq && !record.IsForeignKeyViolation(err) {
			t.Errorf("CreateAnswer(question_id=%d) error = %v, want ForeignKeyViolation", tt.id, err)
		}

		_, err = s.CreateEvaluation(ctx, record.NewEvaluation{AnswerID: tt.id, IsCorrect: record.Bool(true), Explanation: "x"})
		if tt.wantReq && !record.IsRequiredFieldMissing(err) {
			t.Errorf("CreateEvaluation(answer_id=%d) error = %v, want RequiredFieldMissing", tt.id, err)
		}
		if !tt.wantReq && !record.IsForeignKeyViolation(err) {
			t.Errorf("CreateEvaluation(answer_id=%d) error = %v, want ForeignKeyViolation", tt.id, err)
		}
	}
}

func TestClassifyMySQL(t *testing.T) {
	tests := []struct {
		number uint16
		want   record.ViolationKind
		ok     bool
	}{
		{1452, record.ForeignKeyViolation, true},
		{1451, record.ForeignKeyViolation, true},
		{1216, record.ForeignKeyViolation, true},
		{1217, record.ForeignKeyViolation, true},
		{1048, record.RequiredFieldMissing, true},
		{1364, record.RequiredFieldMissing, true},
		{1062, "", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.number), func(t *testing.T) {
			err := fmt.Errorf("exec: %w", &mysql.MySQLError{Number: tt.number, Message: "test"})
			kind, ok := classifyMySQL(err)
			if kind != tt.want || ok != tt.ok {
				t.Errorf("classifyMySQL(%d) = %q, %v; want %q, %v", tt.number, kind, ok, tt.want, tt.ok)
			}
		})
	}

	if _, ok := classifyMySQL(errors.New("plain")); ok {
		t.Error("classifyMySQL should ignore non-MySQL errors")
	}
}

func TestDialectViolation_WrapsDriverError(t *testing.T) {
	d, err := dialectFor(DriverMySQL)
	if err != nil {
		t.Fatalf("dialectFor() failed: %v", err)
	}

	cause := &mysql.MySQLError{Number: 1048, Message: "Column 'skill' cannot be null"}
	err = d.violation(record.TableQuestions, cause)
	if !record.IsRequiredFieldMissing(err) {
		t.Fatalf("violation() = %v, want RequiredFieldMissing", err)
	}
	if !errors.Is(err, cause) {
		t.Error("violation should wrap the driver error")
	}

	plain := errors.New("connection reset")
	if got := d.violation(record.TableQuestions, plain); got != plain {
		t.Errorf("violation() = %v, want unchanged error", got)
	}
}

func TestParseDriver(t *testing.T) {
	tests := []struct {
		in      string
		want    Driver
		wantErr bool
	}{
		{"", DriverSQLite, false},
		{"sqlite", DriverSQLite, false},
		{"SQLite3", DriverSQLite, false},
		{"mysql", DriverMySQL, false},
		{"postgres", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDriver(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDriver(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseDriver(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN("db.internal", 3306, "app", "s3cret", "skills")

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN(%q) failed: %v", dsn, err)
	}
	if cfg.Addr != "db.internal:3306" || cfg.User != "app" || cfg.DBName != "skills" {
		t.Errorf("parsed config = %s@%s/%s", cfg.User, cfg.Addr, cfg.DBName)
	}
	if !cfg.ParseTime || !cfg.ClientFoundRows {
		t.Error("parseTime and clientFoundRows must be enabled")
	}

	shaped, err := mysql.ParseDSN(mysqlDSN("app:pw@tcp(localhost:3306)/skills"))
	if err != nil {
		t.Fatalf("ParseDSN() failed: %v", err)
	}
	if !shaped.ParseTime || !shaped.ClientFoundRows {
		t.Error("mysqlDSN must force parseTime and clientFoundRows")
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := sqliteDSN("a.db"); got != "a.db?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate" {
		t.Errorf("sqliteDSN(a.db) = %q", got)
	}
	if got := sqliteDSN("file:a.db?cache=shared"); got != "file:a.db?cache=shared&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate" {
		t.Errorf("sqliteDSN(file:...) = %q", got)
	}
}
