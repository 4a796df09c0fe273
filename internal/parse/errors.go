package parse

import (
	"errors"
	"fmt"
)

// SyntaxError reports malformed input with its position.
type SyntaxError struct {
	Format string
	Line   int // 1-based, 0 if unknown
	Column int // 1-based, 0 if unknown
	Msg    string
	Err    error // underlying cause, may be nil
}

func (e *SyntaxError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.Format, e.Line, e.Column, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Format, e.Line, e.Msg)
	default:
		return fmt.Sprintf("%s: %s", e.Format, e.Msg)
	}
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// IsSyntaxError reports whether err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

func syntaxErrorf(formatName string, line, col int, msg string, args ...any) *SyntaxError {
	return &SyntaxError{Format: formatName, Line: line, Column: col, Msg: fmt.Sprintf(msg, args...)}
}

func wrapSyntax(formatName string, line, col int, err error) *SyntaxError {
	return &SyntaxError{Format: formatName, Line: line, Column: col, Msg: err.Error(), Err: err}
}
