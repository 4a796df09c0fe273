package bridge

import (
	"errors"
	"fmt"
)

// ErrReadingAborted is matched by every *ReadingAbortedError.
var ErrReadingAborted = errors.New("reading aborted")

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("stream closed")

// ReadingAbortedError reports a parser failure at the point the consumer
// reached it. Every statement the parser emitted before failing has already
// been delivered.
type ReadingAbortedError struct {
	Format    string
	Source    string
	Delivered int64
	Err       error
}

func (e *ReadingAbortedError) Error() string {
	src := e.Source
	if src == "" {
		src = "input"
	}
	return fmt.Sprintf("reading %s as %s aborted after %d statements: %v", src, e.Format, e.Delivered, e.Err)
}

func (e *ReadingAbortedError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrReadingAborted) hold.
func (e *ReadingAbortedError) Is(target error) bool {
	return target == ErrReadingAborted
}

// IsReadingAborted checks if an error is a ReadingAbortedError.
func IsReadingAborted(err error) bool {
	var re *ReadingAbortedError
	return errors.As(err, &re)
}
