package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/yamlpath/internal/docio"
	"github.com/roach88/yamlpath/internal/merge"
)

// ValidationError reports a precondition failure detected before any source
// was opened, or a prime document the run cannot start from.
type ValidationError struct {
	// Code identifies the failed precondition.
	Code ValidationCode

	// Message is a human-readable description.
	Message string
}

// ValidationCode categorizes validation errors.
type ValidationCode string

const (
	// ErrCodeTooFewSources indicates fewer than two sources were supplied.
	ErrCodeTooFewSources ValidationCode = "TOO_FEW_SOURCES"

	// ErrCodeDuplicateStdin indicates stdin was named more than once.
	ErrCodeDuplicateStdin ValidationCode = "DUPLICATE_STDIN"

	// ErrCodeOutputExists indicates the output file is already present.
	ErrCodeOutputExists ValidationCode = "OUTPUT_EXISTS"

	// ErrCodeEmptyPrime indicates the prime document has no content.
	ErrCodeEmptyPrime ValidationCode = "EMPTY_PRIME"
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// SourceError wraps a failure to load or merge one source document.
//
// The wrapped error is a *docio.AccessError or *docio.ParseError when the
// source could not be read, or a *merge.ConflictError or *merge.PathError
// when its document could not be merged.
type SourceError struct {
	// Source is the source name as supplied ("-" for stdin).
	Source string

	// Document is the 0-based position within the source stream, or -1
	// when the source failed before any document was read.
	Document int

	// Multi is set when the source holds more than one document.
	Multi bool

	// Prime is set when the source is the prime source and the failure
	// happened while loading it.
	Prime bool

	Err error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if e.Document >= 0 && e.Multi {
		return fmt.Sprintf("%s (document %d): %v", e.Source, e.Document+1, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// IsValidationError returns true if the error is a ValidationError.
// Uses errors.As to handle wrapped errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPrimeError returns true if the error happened while loading the prime
// source.
func IsPrimeError(err error) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Prime
	}
	return false
}

// IsMultiDocument returns true if the error came from a document of a
// multi-document source.
func IsMultiDocument(err error) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Multi
	}
	return false
}

// Exit codes reported by ExitCode.
const (
	ExitSuccess         = 0
	ExitValidation      = 1
	ExitAccess          = 2
	ExitParse           = 3
	ExitConflict        = 4
	ExitPath            = 5
	ExitConflictInMulti = 6
	ExitPathInMulti     = 7
)

// ExitCode maps the error returned by Run to a process exit code.
//
// Failures of the prime source are validation failures regardless of their
// cause. Merge failures in a multi-document source use their own codes.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case IsValidationError(err), IsPrimeError(err):
		return ExitValidation
	case docio.IsAccessError(err):
		return ExitAccess
	case docio.IsParseError(err):
		return ExitParse
	case merge.IsConflict(err):
		if IsMultiDocument(err) {
			return ExitConflictInMulti
		}
		return ExitConflict
	case merge.IsPathError(err):
		if IsMultiDocument(err) {
			return ExitPathInMulti
		}
		return ExitPath
	default:
		return ExitValidation
	}
}

func tooFewSources(msg string) *ValidationError {
	return &ValidationError{Code: ErrCodeTooFewSources, Message: msg}
}
