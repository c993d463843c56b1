package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/skillcheck/internal/config"
	"github.com/roach88/skillcheck/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Database   string // --db: SQLite path or MySQL DSN
	Driver     string // --driver: sqlite | mysql
	ConfigPath string // --config: YAML config file
	EnvFile    string // --env-file: dotenv file, ".env" by default

	// Clock and Keys are injectable for tests; nil selects the system
	// clock and UUIDv7 keys.
	Clock Clock
	Keys  KeyGenerator

	// LookupEnv reads the environment; nil selects os.LookupEnv.
	LookupEnv func(string) (string, bool)

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the skillcheck CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(&RootOptions{})
}

// NewRootCommandWith creates the root command around caller-supplied options.
func NewRootCommandWith(opts *RootOptions) *cobra.Command {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Keys == nil {
		opts.Keys = UUIDv7Generator{}
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	cmd := &cobra.Command{
		Use:   "skillcheck",
		Short: "skillcheck - skill assessment record store",
		Long: `Store and query soft-skill assessment records: questions, the answers
given to them, evaluations of those answers, and assessment sessions.

Deleting a question removes its answers and their evaluations in one
transaction. Answers and evaluations can only reference rows that exist.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return invalidInput(fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "SQLite database path or MySQL DSN (overrides SKILLCHECK_DB)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver: sqlite|mysql (overrides SKILLCHECK_DRIVER)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load if present")

	// Add subcommands
	cmd.AddCommand(NewQuestionCommand(opts))
	cmd.AddCommand(NewAnswerCommand(opts))
	cmd.AddCommand(NewEvaluationCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported on stdout in JSON mode and on stderr in text mode.
func Execute(args []string, stdout, stderr io.Writer) int {
	return execute(&RootOptions{}, args, stdout, stderr)
}

func execute(opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommandWith(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		return opts.formatter(cmd).Fail(err)
	}
	return ExitSuccess
}

// resolveConfig resolves and caches the layered configuration: defaults, config
// file, dotenv file, environment, then the --db and --driver flags.
func (o *RootOptions) resolveConfig() (config.Config, error) {
	if o.cfg != nil {
		return *o.cfg, nil
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.EnvFile != "" {
		if err := config.LoadDotEnv(o.EnvFile); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.ApplyEnv(o.LookupEnv); err != nil {
		return config.Config{}, err
	}
	if o.Database != "" {
		cfg.DB = o.Database
	}
	if o.Driver != "" {
		cfg.Driver = o.Driver
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}

	o.cfg = &cfg
	return cfg, nil
}

// loggerFor returns a text logger on the command's stderr: warnings only by
// default, everything with --verbose.
func (o *RootOptions) loggerFor(cmd *cobra.Command) *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return o.logger
}

// openStore opens the configured store. The caller must Close it.
func (o *RootOptions) openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := o.resolveConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	sopts, err := cfg.StoreOptions()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to resolve database", err)
	}
	sopts.Logger = o.loggerFor(cmd)

	st, err := store.OpenWith(sopts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	o.loggerFor(cmd).Debug("database opened", "driver", st.Driver())
	return st, nil
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	format := o.Format
	if !isValidFormat(format) {
		format = "text"
	}
	return &OutputFormatter{
		Format:    format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// listLimit returns flagLimit if set, else the configured default.
func (o *RootOptions) listLimit(flagLimit int) int {
	if flagLimit > 0 {
		return flagLimit
	}
	if cfg, err := o.resolveConfig(); err == nil && cfg.ListLimit > 0 {
		return cfg.ListLimit
	}
	return 0
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
