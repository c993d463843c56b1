package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/skillcheck/internal/record"
)

// AnswerOptions holds flags for the answer subcommands.
type AnswerOptions struct {
	*RootOptions
	QuestionID int64
	AnswerType string
	Content    string
	MediaPath  string
}

// NewAnswerCommand creates the answer command group.
func NewAnswerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "answer",
		Short: "Add, list and delete answers to a question",
	}

	cmd.AddCommand(newAnswerAddCommand(rootOpts))
	cmd.AddCommand(newAnswerListCommand(rootOpts))
	cmd.AddCommand(newAnswerDeleteCommand(rootOpts))
	return cmd
}

func newAnswerAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnswerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an answer to an existing question",
		Long: `Record an answer to an existing question.

The question must exist; otherwise the command fails with
FOREIGN_KEY_VIOLATION. content is optional for audio or image answers.

Examples:
  skillcheck answer add --question 3 --type Text --content "I would ask both sides"
  skillcheck answer add --question 3 --type Audio --media media/answer.wav`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnswerAdd(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.QuestionID, "question", 0, "id of the question answered (required)")
	cmd.Flags().StringVar(&opts.AnswerType, "type", "", "answer type, e.g. Text, Audio (required)")
	cmd.Flags().StringVar(&opts.Content, "content", "", "answer text")
	cmd.Flags().StringVar(&opts.MediaPath, "media", "", "path to an attached media file")

	return cmd
}

func runAnswerAdd(opts *AnswerOptions, cmd *cobra.Command) error {
	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	a, err := st.CreateAnswer(context.Background(), record.NewAnswer{
		QuestionID:    opts.QuestionID,
		AnswerContent: record.String(opts.Content),
		AnswerType:    opts.AnswerType,
		MediaPath:     record.String(opts.MediaPath),
	})
	if err != nil {
		return storeError("failed to add answer", err)
	}
	return opts.formatter(cmd).Success(answerView(a))
}

func newAnswerListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnswerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List the answers to a question, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			as, err := st.ListAnswers(context.Background(), opts.QuestionID)
			if err != nil {
				return storeError("failed to list answers", err)
			}
			return opts.formatter(cmd).Success(answerList(as))
		},
	}

	cmd.Flags().Int64Var(&opts.QuestionID, "question", 0, "question id (required)")
	_ = cmd.MarkFlagRequired("question")

	return cmd
}

func newAnswerDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete an answer with its evaluations",
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

			res, err := st.DeleteAnswer(context.Background(), id)
			if err != nil {
				return storeError(fmt.Sprintf("failed to delete answer %d", id), err)
			}
			return rootOpts.formatter(cmd).Success(deleteResult{Table: record.TableAnswers, ID: id, Removed: res})
		},
	}
	return cmd
}
