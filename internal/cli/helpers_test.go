package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/skillcheck/internal/testutil"
)

// cliHarness runs commands against a temporary SQLite database with a
// deterministic clock and fixed session keys. The process environment and
// any .env file are ignored.
type cliHarness struct {
	t     *testing.T
	db    string
	clock *testutil.DeterministicClock
	keys  *testutil.FixedKeyGenerator
}

type cliResult struct {
	stdout string
	stderr string
	code   int
}

// jsonResponse mirrors CLIResponse with the payload left undecoded.
type jsonResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	return &cliHarness{
		t:     t,
		db:    filepath.Join(t.TempDir(), "skillcheck.db"),
		clock: testutil.NewDeterministicClock(time.Time{}, time.Minute),
		keys:  testutil.NewFixedKeyGenerator("key-1", "key-2"),
	}
}

func noEnv(string) (string, bool) { return "", false }

// run executes the CLI with --db pointing at the harness database.
func (h *cliHarness) run(args ...string) cliResult {
	h.t.Helper()
	opts := &RootOptions{Clock: h.clock, Keys: h.keys, LookupEnv: noEnv}
	full := append([]string{"--db", h.db, "--env-file="}, args...)

	var stdout, stderr bytes.Buffer
	code := execute(opts, full, &stdout, &stderr)
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

// runJSON executes the CLI in JSON mode and decodes the envelope.
func (h *cliHarness) runJSON(args ...string) (jsonResponse, int) {
	h.t.Helper()
	res := h.run(append([]string{"--format", "json"}, args...)...)

	var resp jsonResponse
	require.NoError(h.t, json.Unmarshal([]byte(res.stdout), &resp), "stdout: %s\nstderr: %s", res.stdout, res.stderr)
	return resp, res.code
}

// mustRunJSON executes a command expected to succeed and decodes its payload
// into out.
func (h *cliHarness) mustRunJSON(out any, args ...string) {
	h.t.Helper()
	resp, code := h.runJSON(args...)
	require.Equal(h.t, ExitSuccess, code, "error: %+v", resp.Error)
	require.Equal(h.t, "ok", resp.Status)
	if out != nil {
		require.NoError(h.t, json.Unmarshal(resp.Data, out))
	}
}

// addQuestion adds a complete question and returns its id.
func (h *cliHarness) addQuestion(skill, level string) int64 {
	h.t.Helper()
	var q struct {
		ID int64 `json:"id"`
	}
	h.mustRunJSON(&q, "question", "add",
		"--skill", skill, "--level", level, "--type", "Text",
		"--content", "How do you handle "+skill+"?", "--expected", "Calmly.")
	return q.ID
}

// addAnswer adds a text answer to questionID and returns its id.
func (h *cliHarness) addAnswer(questionID int64, content string) int64 {
	h.t.Helper()
	var a struct {
		ID int64 `json:"id"`
	}
	h.mustRunJSON(&a, "answer", "add",
		"--question", itoa(questionID), "--type", "Text", "--content", content)
	return a.ID
}

// addEvaluation records a verdict on answerID and returns its id.
func (h *cliHarness) addEvaluation(answerID int64, correct bool) int64 {
	h.t.Helper()
	var e struct {
		ID int64 `json:"id"`
	}
	flag := "--correct=false"
	if correct {
		flag = "--correct"
	}
	h.mustRunJSON(&e, "evaluation", "add",
		"--answer", itoa(answerID), flag, "--explanation", "reviewed")
	return e.ID
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
