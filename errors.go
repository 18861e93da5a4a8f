package kofi

import (
	"fmt"
	"reflect"
)

// ParseError reports a malformed line. Line and Column are 1-based.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func parseErrorf(line, col int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

// ConstructionError reports a failure to bind a Value to a Go type.
type ConstructionError struct {
	Type  reflect.Type
	Field string
	Err   error
}

func (e *ConstructionError) Error() string {
	target := "<nil>"
	if e.Type != nil {
		target = e.Type.String()
	}
	if e.Field != "" {
		return fmt.Sprintf("construct %s.%s: %v", target, e.Field, e.Err)
	}
	return fmt.Sprintf("construct %s: %v", target, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }
