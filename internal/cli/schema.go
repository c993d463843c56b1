package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/skillcheck/internal/store"
)

// schemaResult is the JSON payload of the schema command.
type schemaResult struct {
	Driver store.Driver `json:"driver"`
	Schema string       `json:"schema"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the table definitions for the configured driver",
		Long: `Print the CREATE TABLE statements the store applies on open. No
database connection is made.

Examples:
  skillcheck schema
  skillcheck --driver mysql schema > schema.sql`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.resolveConfig()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			driver, err := store.ParseDriver(cfg.Driver)
			if err != nil {
				return invalidInput("unknown driver", err)
			}
			ddl, err := store.SchemaFor(driver)
			if err != nil {
				return WrapExitError(ExitCommandError, "no schema for driver", err)
			}

			f := rootOpts.formatter(cmd)
			if f.Format == "json" {
				return f.Success(schemaResult{Driver: driver, Schema: ddl})
			}
			_, err = fmt.Fprint(f.Writer, ddl)
			return err
		},
	}
	return cmd
}
