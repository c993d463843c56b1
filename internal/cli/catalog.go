package cli

import (
	"github.com/spf13/cobra"
)

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List suggested skills, levels and question types",
		Long: `List the suggested values for the skill, level and question type
columns. The list comes from the config file (catalog section) or the
built-in defaults. Values outside it are accepted with a warning.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.resolveConfig()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			return rootOpts.formatter(cmd).Success(catalogView{
				Skills:        cfg.Catalog.Skills,
				Levels:        cfg.Catalog.Levels,
				QuestionTypes: cfg.Catalog.QuestionTypes,
			})
		},
	}
	return cmd
}
