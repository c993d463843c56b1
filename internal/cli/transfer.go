package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/skillcheck/internal/fixture"
	"github.com/roach88/skillcheck/internal/record"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Insert question trees and sessions from a YAML fixture",
		Long: `Insert question trees and sessions from a YAML fixture in one
transaction. Nested answers and evaluations are linked to the rows created
for their parents. If any row is rejected nothing is written.

Examples:
  skillcheck import testdata/seed.yaml
  skillcheck --format json import seed.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			f.VerboseLog("Importing %s", args[0])

			b, err := fixture.Load(args[0])
			if err != nil {
				return invalidInput("failed to read fixture", err)
			}

			st, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			sum, err := st.Import(context.Background(), b)
			if err != nil {
				return storeError("import rolled back", err)
			}
			f.VerboseLog("Imported %s in one transaction", args[0])
			return f.Success(importResult(sum))
		},
	}
	return cmd
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write every record as a YAML fixture",
		Long: `Write every question tree and session as a YAML fixture that import
accepts. Without a file, or with "-", the fixture goes to stdout; in JSON
mode stdout carries the same batch inside the response envelope.

The export is lossy: ids, created_at and start_time are not written, so
importing it assigns new ids and stamps every row with the import time.
end_time and score are kept, so a re-imported session may end before it
starts. Use it to move content between databases, not as a backup.

Examples:
  skillcheck export seed.yaml
  skillcheck export > seed.yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := rootOpts.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			b, err := st.Export(context.Background())
			if err != nil {
				return storeError("failed to export", err)
			}

			f := rootOpts.formatter(cmd)
			if len(args) == 0 || args[0] == "-" {
				if f.Format == "json" {
					return f.Success(b)
				}
				if err := fixture.Write(f.Writer, b); err != nil {
					return WrapExitError(ExitCommandError, "failed to write fixture", err)
				}
				return nil
			}

			f.VerboseLog("Writing fixture to %s", args[0])
			if err := fixture.Save(args[0], b); err != nil {
				return WrapExitError(ExitCommandError, "failed to write fixture", err)
			}
			return f.Success(newExportResult(args[0], b))
		},
	}
	return cmd
}

func newExportResult(path string, b record.Batch) exportResult {
	res := exportResult{Path: path, Sessions: len(b.Sessions)}
	for _, q := range b.Questions {
		res.Questions++
		for _, a := range q.Answers {
			res.Answers++
			res.Evaluations += len(a.Evaluations)
		}
	}
	return res
}
