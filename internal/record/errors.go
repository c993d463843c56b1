package record

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an operation targets an identity that does
// not exist.
var ErrNotFound = errors.New("record not found")

// ViolationKind categorizes constraint violations.
type ViolationKind string

const (
	// RequiredFieldMissing indicates a required column received no value.
	RequiredFieldMissing ViolationKind = "REQUIRED_FIELD_MISSING"

	// ForeignKeyViolation indicates an answer or evaluation references a
	// parent row that does not exist.
	ForeignKeyViolation ViolationKind = "FOREIGN_KEY_VIOLATION"
)

// ConstraintViolation is returned synchronously when a write is rejected.
// The write is never retried; the store's state is unchanged.
type ConstraintViolation struct {
	// Kind identifies the violated constraint.
	Kind ViolationKind

	// Table is the table the write targeted.
	Table string

	// Fields lists the offending columns, when known.
	Fields []string

	// Message is a human-readable description.
	Message string

	// Err is the underlying driver error, if any.
	Err error
}

// Error implements the error interface.
func (e *ConstraintViolation) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Table != "" {
		fmt.Fprintf(&b, " on %s", e.Table)
	}
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Fields, ", "))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap returns the underlying driver error.
func (e *ConstraintViolation) Unwrap() error {
	return e.Err
}

// IsRequiredFieldMissing reports whether err is, or wraps, a
// RequiredFieldMissing violation.
func IsRequiredFieldMissing(err error) bool {
	return violationKind(err) == RequiredFieldMissing
}

// IsForeignKeyViolation reports whether err is, or wraps, a
// ForeignKeyViolation.
func IsForeignKeyViolation(err error) bool {
	return violationKind(err) == ForeignKeyViolation
}

// IsConstraintViolation reports whether err is, or wraps, any violation.
func IsConstraintViolation(err error) bool {
	return violationKind(err) != ""
}

func violationKind(err error) ViolationKind {
	var cv *ConstraintViolation
	if errors.As(err, &cv) {
		return cv.Kind
	}
	return ""
}

// MissingParent builds a ForeignKeyViolation for a child insert whose parent
// does not exist.
func MissingParent(table, column string, parentID int64, cause error) *ConstraintViolation {
	return &ConstraintViolation{
		Kind:    ForeignKeyViolation,
		Table:   table,
		Fields:  []string{column},
		Message: fmt.Sprintf("no parent row with id %d", parentID),
		Err:     cause,
	}
}
