package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/skillcheck/internal/record"
)

// QuestionOptions holds flags for the question subcommands.
type QuestionOptions struct {
	*RootOptions
	Skill        string
	Level        string
	QuestionType string
	Content      string
	Expected     string
	MediaPath    string
	Limit        int
}

// NewQuestionCommand creates the question command group.
func NewQuestionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Add, list, show and delete questions",
	}

	cmd.AddCommand(newQuestionAddCommand(rootOpts))
	cmd.AddCommand(newQuestionListCommand(rootOpts))
	cmd.AddCommand(newQuestionShowCommand(rootOpts))
	cmd.AddCommand(newQuestionDeleteCommand(rootOpts))
	return cmd
}

func newQuestionAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QuestionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a question",
		Long: `Add a question.

skill, level, type, content and expected are required; media is optional.
Catalog values are suggestions (see 'skillcheck catalog'), not enforced.

Examples:
  skillcheck question add --skill Teamwork --level Beginner --type Text \
    --content "How do you resolve a disagreement?" --expected "Listen first."
  skillcheck question add --skill Communication --level Advanced --type Image \
    --content "Describe the slide" --expected "Key points" --media media/slide.png`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuestionAdd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Skill, "skill", "", "skill assessed (required)")
	cmd.Flags().StringVar(&opts.Level, "level", "", "difficulty level (required)")
	cmd.Flags().StringVar(&opts.QuestionType, "type", "", "question type, e.g. Text, Audio, Image (required)")
	cmd.Flags().StringVar(&opts.Content, "content", "", "question text (required)")
	cmd.Flags().StringVar(&opts.Expected, "expected", "", "expected answer (required)")
	cmd.Flags().StringVar(&opts.MediaPath, "media", "", "path to an attached media file")

	return cmd
}

func runQuestionAdd(opts *QuestionOptions, cmd *cobra.Command) error {
	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	q, err := st.CreateQuestion(context.Background(), record.NewQuestion{
		Skill:           opts.Skill,
		Level:           opts.Level,
		QuestionType:    opts.QuestionType,
		QuestionContent: opts.Content,
		ExpectedAnswer:  opts.Expected,
		MediaPath:       record.String(opts.MediaPath),
	})
	if err != nil {
		return storeError("failed to add question", err)
	}

	opts.warnOffCatalog(cmd, q)
	return opts.formatter(cmd).Success(questionView(q))
}

// warnOffCatalog logs a warning for catalog values the config does not list.
func (opts *QuestionOptions) warnOffCatalog(cmd *cobra.Command, q record.Question) {
	cfg, err := opts.resolveConfig()
	if err != nil {
		return
	}
	check := func(column, value string, known []string) {
		if len(known) > 0 && !containsKey(known, value) {
			opts.loggerFor(cmd).Warn("value not in catalog", "column", column, "value", value)
		}
	}
	check("skill", q.Skill, cfg.Catalog.Skills)
	check("level", q.Level, cfg.Catalog.Levels)
	check("question_type", q.QuestionType, cfg.Catalog.QuestionTypes)
}

func containsKey(list []string, v string) bool {
	for _, item := range list {
		if record.NormalizeKey(item) == v {
			return true
		}
	}
	return false
}

func newQuestionListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QuestionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List questions, newest first",
		Long: `List questions, newest first.

Examples:
  skillcheck question list
  skillcheck question list --skill Teamwork --level Beginner --type Text --limit 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuestionList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Skill, "skill", "", "filter by skill")
	cmd.Flags().StringVar(&opts.Level, "level", "", "filter by level")
	cmd.Flags().StringVar(&opts.QuestionType, "type", "", "filter by question type")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, fmt.Sprintf("maximum rows (default from config, %d)", record.DefaultListLimit))

	return cmd
}

func runQuestionList(opts *QuestionOptions, cmd *cobra.Command) error {
	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	qs, err := st.ListQuestions(context.Background(), record.QuestionFilter{
		Skill:        opts.Skill,
		Level:        opts.Level,
		QuestionType: opts.QuestionType,
		Limit:        opts.listLimit(opts.Limit),
	})
	if err != nil {
		return storeError("failed to list questions", err)
	}
	return opts.formatter(cmd).Success(questionList(qs))
}

func newQuestionShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <id>",
		Short:         "Show a question with its answers and evaluations",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runQuestionShow(rootOpts, cmd, id)
		},
	}
	return cmd
}

func runQuestionShow(opts *RootOptions, cmd *cobra.Command, id int64) error {
	ctx := context.Background()

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	q, err := st.GetQuestion(ctx, id)
	if err != nil {
		return storeError(fmt.Sprintf("question %d", id), err)
	}

	answers, err := st.ListAnswers(ctx, id)
	if err != nil {
		return storeError("failed to list answers", err)
	}

	detail := questionDetail{Question: q, Answers: make([]answerDetail, 0, len(answers))}
	for _, a := range answers {
		evals, err := st.ListEvaluations(ctx, a.ID)
		if err != nil {
			return storeError("failed to list evaluations", err)
		}
		detail.Answers = append(detail.Answers, answerDetail{Answer: a, Evaluations: evals})
	}
	return opts.formatter(cmd).Success(detail)
}

func newQuestionDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a question with all of its answers and evaluations",
		Long: `Delete a question. Its answers and their evaluations are removed in the
same transaction.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			st, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := st.DeleteQuestion(context.Background(), id)
			if err != nil {
				return storeError(fmt.Sprintf("failed to delete question %d", id), err)
			}
			return rootOpts.formatter(cmd).Success(deleteResult{Table: record.TableQuestions, ID: id, Removed: res})
		},
	}
	return cmd
}

// parseID parses a positive row id argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidInput(fmt.Sprintf("invalid id %q: must be a positive integer", s), nil)
	}
	return id, nil
}
