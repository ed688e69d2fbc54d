package chunk

import (
	"errors"
	"fmt"
)

// Parser errors.
var (
	// ErrDuplicateChunkName is returned when two referenceable chunks in
	// one document share a name.
	ErrDuplicateChunkName = errors.New("duplicate chunk name")

	// ErrMalformedDocument is returned when a fence is opened but never
	// closed.
	ErrMalformedDocument = errors.New("malformed document")
)

// DuplicateNameError reports a referenceable chunk name used twice, with the
// opening-fence line numbers of both occurrences.
type DuplicateNameError struct {
	Name       string
	FirstLine  int
	SecondLine int
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate chunk name %q (lines %d and %d)", e.Name, e.FirstLine, e.SecondLine)
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateChunkName }

// UnterminatedFenceError reports a fence that was opened but never closed.
type UnterminatedFenceError struct {
	Name     string // may be empty for anonymous chunks
	OpenLine int
}

func (e *UnterminatedFenceError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("unterminated fence opened at line %d", e.OpenLine)
	}
	return fmt.Sprintf("unterminated fence for chunk %q opened at line %d", e.Name, e.OpenLine)
}

func (e *UnterminatedFenceError) Unwrap() error { return ErrMalformedDocument }
