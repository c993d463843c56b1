package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/skillcheck/internal/record"
)

// SessionOptions holds flags for the session subcommands.
type SessionOptions struct {
	*RootOptions
	SessionID string
	Skill     string
	Level     string
	End       string
	Score     int64
	Limit     int
}

// NewSessionCommand creates the session command group.
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Record and list assessment sessions",
	}

	cmd.AddCommand(newSessionStartCommand(rootOpts))
	cmd.AddCommand(newSessionUpdateCommand(rootOpts))
	cmd.AddCommand(newSessionListCommand(rootOpts))
	return cmd
}

func newSessionStartCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Record a new session",
		Long: `Record a new session. start_time is set by the database.

The session key (session_id) correlates related sessions and need not be
unique. When --session-id is omitted a new time-ordered UUID is used.

Examples:
  skillcheck session start --skill Leadership --level Intermediate
  skillcheck session start --session-id cohort-7 --skill Teamwork --level Beginner`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionStart(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SessionID, "session-id", "", "correlation key (default: new UUIDv7)")
	cmd.Flags().StringVar(&opts.Skill, "skill", "", "skill assessed (required)")
	cmd.Flags().StringVar(&opts.Level, "level", "", "difficulty level (required)")

	return cmd
}

func runSessionStart(opts *SessionOptions, cmd *cobra.Command) error {
	key := opts.SessionID
	if !cmd.Flags().Changed("session-id") {
		key = opts.Keys.Generate()
	}

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	sess, err := st.CreateSession(context.Background(), record.NewSession{
		SessionID: key,
		Skill:     opts.Skill,
		Level:     opts.Level,
	})
	if err != nil {
		return storeError("failed to start session", err)
	}
	return opts.formatter(cmd).Success(sessionView(sess))
}

func newSessionUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Set end_time and/or score on sessions",
		Long: `Set end_time and/or score on one session (by id) or on every session
sharing a key (--session-id). The two columns are independent: a score may
be recorded without an end time, and no ordering with start_time is checked.

--end accepts "now" or an RFC 3339 timestamp.

Examples:
  skillcheck session update 12 --score 8
  skillcheck session update 12 --end now
  skillcheck session update --session-id cohort-7 --end 2024-05-01T10:30:00Z --score 6`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionUpdate(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.SessionID, "session-id", "", "update every session with this key")
	cmd.Flags().StringVar(&opts.End, "end", "", `end time: "now" or RFC 3339`)
	cmd.Flags().Int64Var(&opts.Score, "score", 0, "final score")

	return cmd
}

func runSessionUpdate(opts *SessionOptions, cmd *cobra.Command, args []string) error {
	byKey := cmd.Flags().Changed("session-id")
	if byKey == (len(args) == 1) {
		return invalidInput("give either a session id argument or --session-id", nil)
	}

	var upd record.SessionUpdate
	if cmd.Flags().Changed("end") {
		end, err := parseEnd(opts.End, opts.Clock)
		if err != nil {
			return err
		}
		upd.EndTime = &end
	}
	if cmd.Flags().Changed("score") {
		upd.Score = record.Int64(opts.Score)
	}
	if upd.IsEmpty() {
		return invalidInput("nothing to update: give --end and/or --score", nil)
	}

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if byKey {
		n, err := st.UpdateSessionsByKey(ctx, opts.SessionID, upd)
		if err != nil {
			return storeError("failed to update sessions", err)
		}
		return opts.formatter(cmd).Success(keyUpdateResult{SessionID: opts.SessionID, Updated: n})
	}

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	sess, err := st.UpdateSession(ctx, id, upd)
	if err != nil {
		return storeError(fmt.Sprintf("failed to update session %d", id), err)
	}
	return opts.formatter(cmd).Success(sessionView(sess))
}

// parseEnd accepts "now" or an RFC 3339 timestamp.
func parseEnd(s string, clock Clock) (time.Time, error) {
	if strings.EqualFold(strings.TrimSpace(s), "now") {
		return clock.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, invalidInput(fmt.Sprintf("invalid --end %q: want \"now\" or RFC 3339", s), err)
	}
	return t.UTC(), nil
}

func newSessionListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recently started first",
		Long: `List sessions, most recently started first.

Examples:
  skillcheck session list
  skillcheck session list --session-id cohort-7
  skillcheck session list --skill Teamwork --level Beginner --limit 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			ss, err := st.ListSessions(context.Background(), record.SessionFilter{
				SessionID: opts.SessionID,
				Skill:     opts.Skill,
				Level:     opts.Level,
				Limit:     opts.listLimit(opts.Limit),
			})
			if err != nil {
				return storeError("failed to list sessions", err)
			}
			return opts.formatter(cmd).Success(sessionList(ss))
		},
	}

	cmd.Flags().StringVar(&opts.SessionID, "session-id", "", "filter by key")
	cmd.Flags().StringVar(&opts.Skill, "skill", "", "filter by skill")
	cmd.Flags().StringVar(&opts.Level, "level", "", "filter by level")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, fmt.Sprintf("maximum rows (default from config, %d)", record.DefaultListLimit))

	return cmd
}
