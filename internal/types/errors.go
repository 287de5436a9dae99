package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a statement failure
type ErrorKind int

const (
	// Syntax marks malformed statement text
	Syntax ErrorKind = iota
	// Table marks a missing, empty or malformed table file
	Table
	// Column marks a reference to a column the table does not have
	Column
)

func (k ErrorKind) String() string {
	switch k {
	case Syntax:
		return "Syntax"
	case Table:
		return "Table"
	case Column:
		return "Column"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the error returned for any statement the engine rejects
type Error struct {
	Kind        ErrorKind
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.Kind, e.Description)
}

// NewError creates an error of the given kind
func NewError(kind ErrorKind, format string, v ...interface{}) *Error {
	return &Error{Kind: kind, Description: fmt.Sprintf(format, v...)}
}

// SyntaxError creates a Syntax error
func SyntaxError(format string, v ...interface{}) *Error {
	return NewError(Syntax, format, v...)
}

// TableError creates a Table error
func TableError(format string, v ...interface{}) *Error {
	return NewError(Table, format, v...)
}

// ColumnError creates a Column error
func ColumnError(format string, v ...interface{}) *Error {
	return NewError(Column, format, v...)
}

// IsKind reports whether err, or an error it wraps, is an *Error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
