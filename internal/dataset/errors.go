package dataset

import (
	"errors"
	"fmt"
)

// Kind classifies every expected failure of loading or querying tables.
type Kind string

const (
	KindFileNotFound    Kind = "file_not_found"
	KindParse           Kind = "parse_error"
	KindMissingCategory Kind = "missing_category"
	KindMissingColumn   Kind = "missing_column"
	KindNonNumeric      Kind = "non_numeric_value"
)

// Error is the single error type returned by this package and by the
// presenter. Table, File and Column are set when they are known.
type Error struct {
	Kind   Kind   `json:"kind"`
	Table  string `json:"table,omitempty"`
	File   string `json:"file,omitempty"`
	Column string `json:"column,omitempty"`
	Reason string `json:"reason"`
	Cause  error  `json:"-"`
}

func (e *Error) Error() string {
	subject := e.Table
	if e.File != "" {
		subject = e.File
	}
	if e.Column != "" {
		if subject != "" {
			subject += "."
		}
		subject += e.Column
	}

	msg := string(e.Kind)
	if subject != "" {
		msg += " " + subject
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		msg += fmt.Sprintf(" (%v)", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf reports the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func missingColumn(table, column string) *Error {
	return &Error{
		Kind:   KindMissingColumn,
		Table:  table,
		Column: column,
		Reason: fmt.Sprintf("column %q not found", column),
	}
}

// MissingCategory reports that filtering column by value left no rows.
func MissingCategory(table, column, value string) *Error {
	return &Error{
		Kind:   KindMissingCategory,
		Table:  table,
		Column: column,
		Reason: fmt.Sprintf("no rows with %s = %q", column, value),
	}
}
