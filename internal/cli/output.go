package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/skillcheck/internal/record"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Write rejected by a constraint, or target not found
	ExitCommandError = 2 // Command error (bad flags, unreadable files, database unavailable, etc.)
)

// Error codes reported in the JSON envelope and the text error line.
const (
	CodeRequiredFieldMissing = string(record.RequiredFieldMissing)
	CodeForeignKeyViolation  = string(record.ForeignKeyViolation)
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeCommandError         = "COMMAND_ERROR"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Reason  string // Error code for output (CodeNotFound, CodeForeignKeyViolation, ...)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Reason: reasonFor(code), Message: message, Err: err}
}

// invalidInput reports a flag or argument the command cannot use.
func invalidInput(message string, err error) *ExitError {
	return &ExitError{Code: ExitCommandError, Reason: CodeInvalidInput, Message: message, Err: err}
}

// storeError maps a store error onto an ExitError. Constraint violations and
// missing targets are failures of the request (exit 1); anything else is a
// command error (exit 2).
func storeError(message string, err error) *ExitError {
	var cv *record.ConstraintViolation
	switch {
	case errors.As(err, &cv):
		return &ExitError{Code: ExitFailure, Reason: string(cv.Kind), Message: message, Err: err}
	case errors.Is(err, record.ErrNotFound):
		return &ExitError{Code: ExitFailure, Reason: CodeNotFound, Message: message, Err: err}
	default:
		return WrapExitError(ExitCommandError, message, err)
	}
}

func reasonFor(code int) string {
	if code == ExitCommandError {
		return CodeCommandError
	}
	return ""
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// TextWriter is implemented by results that render themselves in text mode.
type TextWriter interface {
	WriteText(w io.Writer) error
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "REQUIRED_FIELD_MISSING", "NOT_FOUND", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	if tw, ok := data.(TextWriter); ok {
		return tw.WriteText(f.Writer)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	w := f.GetErrWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns the process exit code for it.
// Errors that are not ExitErrors (cobra flag and argument errors) are
// command errors.
func (f *OutputFormatter) Fail(err error) int {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		exitErr = WrapExitError(ExitCommandError, "command failed", err)
	}

	reason := exitErr.Reason
	if reason == "" {
		reason = CodeCommandError
	}

	var details any
	var cv *record.ConstraintViolation
	if errors.As(err, &cv) {
		details = violationDetails{Table: cv.Table, Fields: cv.Fields}
	}

	_ = f.Error(reason, exitErr.Error(), details)
	return exitErr.Code
}

type violationDetails struct {
	Table  string   `json:"table"`
	Fields []string `json:"fields,omitempty"`
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
