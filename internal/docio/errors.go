package docio

import (
	"errors"
	"fmt"
)

// ErrSourceNotFound is matched by AccessError when the source is missing.
var ErrSourceNotFound = errors.New("source not found")

// AccessError reports a source that could not be opened or read.
type AccessError struct {
	Source string
	Err    error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("unable to read %s: %v", e.Source, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// NotFound reports whether the source does not exist.
func (e *AccessError) NotFound() bool {
	return errors.Is(e.Err, ErrSourceNotFound)
}

// ParseError reports malformed document content. Document is the 0-based
// position of the failing document within its stream, or -1 when the
// stream itself could not be split.
type ParseError struct {
	Source   string
	Document int
	Line     int
	Err      error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s: document %d, line %d: %v", e.Source, e.Document+1, e.Line, e.Err)
	case e.Document >= 0:
		return fmt.Sprintf("%s: document %d: %v", e.Source, e.Document+1, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsAccessError reports whether err is an AccessError.
func IsAccessError(err error) bool {
	var ae *AccessError
	return errors.As(err, &ae)
}

// IsParseError reports whether err is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
