package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/skillcheck/internal/record"
)

// EvaluationOptions holds flags for the evaluation subcommands.
type EvaluationOptions struct {
	*RootOptions
	AnswerID    int64
	Correct     bool
	Explanation string
	Latest      bool
}

// NewEvaluationCommand creates the evaluation command group.
func NewEvaluationCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "evaluation",
		Aliases: []string{"eval"},
		Short:   "Record and list evaluations of answers",
	}

	cmd.AddCommand(newEvaluationAddCommand(rootOpts))
	cmd.AddCommand(newEvaluationListCommand(rootOpts))
	return cmd
}

func newEvaluationAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvaluationOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a verdict on an existing answer",
		Long: `Record a verdict on an existing answer.

--correct must be given explicitly (true or false); omitting it fails with
REQUIRED_FIELD_MISSING. An answer may carry any number of evaluations.

Examples:
  skillcheck evaluation add --answer 7 --correct --explanation "Covers both sides"
  skillcheck evaluation add --answer 7 --correct=false --explanation "Off topic"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluationAdd(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.AnswerID, "answer", 0, "id of the answer evaluated (required)")
	cmd.Flags().BoolVar(&opts.Correct, "correct", false, "whether the answer is correct (required)")
	cmd.Flags().StringVar(&opts.Explanation, "explanation", "", "reasoning for the verdict (required)")

	return cmd
}

func runEvaluationAdd(opts *EvaluationOptions, cmd *cobra.Command) error {
	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	in := record.NewEvaluation{
		AnswerID:    opts.AnswerID,
		Explanation: opts.Explanation,
	}
	if cmd.Flags().Changed("correct") {
		in.IsCorrect = record.Bool(opts.Correct)
	}

	e, err := st.CreateEvaluation(context.Background(), in)
	if err != nil {
		return storeError("failed to add evaluation", err)
	}
	return opts.formatter(cmd).Success(evaluationView(e))
}

func newEvaluationListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvaluationOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the evaluations of an answer, newest first",
		Long: `List the evaluations of an answer, newest first.

With --latest only the most recent evaluation is shown, and an answer
without evaluations fails with NOT_FOUND.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			st, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			if opts.Latest {
				e, err := st.LatestEvaluation(ctx, opts.AnswerID)
				if err != nil {
					return storeError("no evaluation for answer", err)
				}
				return opts.formatter(cmd).Success(evaluationView(e))
			}

			es, err := st.ListEvaluations(ctx, opts.AnswerID)
			if err != nil {
				return storeError("failed to list evaluations", err)
			}
			return opts.formatter(cmd).Success(evaluationList(es))
		},
	}

	cmd.Flags().Int64Var(&opts.AnswerID, "answer", 0, "answer id (required)")
	_ = cmd.MarkFlagRequired("answer")
	cmd.Flags().BoolVar(&opts.Latest, "latest", false, "show only the most recent evaluation")

	return cmd
}
