package merge

import (
	"errors"
	"fmt"

	"github.com/roach88/yamlpath/internal/yamlpath"
)

// ErrorCode categorizes merge failures.
type ErrorCode string

const (
	// ErrCodeAnchorConflict indicates both documents bind the same anchor to
	// different values under the stop policy.
	ErrCodeAnchorConflict ErrorCode = "ANCHOR_CONFLICT"

	// ErrCodeDuplicateIdentity indicates two records of one array-of-hashes
	// share an identity key value, so pairing is ambiguous.
	ErrCodeDuplicateIdentity ErrorCode = "DUPLICATE_IDENTITY"

	// ErrCodeUnresolvedPath indicates the merge target cannot be located.
	ErrCodeUnresolvedPath ErrorCode = "UNRESOLVED_PATH"

	// ErrCodeMissingIdentityKey indicates an incoming record lacks the
	// identity key of its array-of-hashes.
	ErrCodeMissingIdentityKey ErrorCode = "MISSING_IDENTITY_KEY"

	// ErrCodeBadIdentityKey indicates an identity key path that does not
	// address exactly one node of a record.
	ErrCodeBadIdentityKey ErrorCode = "BAD_IDENTITY_KEY"
)

// ConflictError reports a combination the active policy refuses to
// reconcile.
type ConflictError struct {
	Code     ErrorCode
	Message  string
	Location yamlpath.Locator
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s at %s", e.Code, e.Message, e.Location.Render(yamlpath.Slash))
}

// PathError reports a rule, identity key or merge target locator that does
// not fit the shape of the document.
type PathError struct {
	Code     ErrorCode
	Message  string
	Location yamlpath.Locator
	Path     string
}

func (e *PathError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s) at %s", e.Code, e.Message, e.Path, e.Location.Render(yamlpath.Slash))
	}
	return fmt.Sprintf("%s: %s at %s", e.Code, e.Message, e.Location.Render(yamlpath.Slash))
}

// IsConflict reports whether err is or wraps a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsPathError reports whether err is or wraps a PathError.
func IsPathError(err error) bool {
	var pe *PathError
	return errors.As(err, &pe)
}

// Code returns the ErrorCode carried by err, or "" for other errors.
func Code(err error) ErrorCode {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func anchorConflict(name string, loc yamlpath.Locator) *ConflictError {
	return &ConflictError{
		Code:     ErrCodeAnchorConflict,
		Message:  fmt.Sprintf("anchor &%s is defined with different values in both documents", name),
		Location: loc,
	}
}

func duplicateIdentity(side, value string, loc yamlpath.Locator) *ConflictError {
	return &ConflictError{
		Code:     ErrCodeDuplicateIdentity,
		Message:  fmt.Sprintf("identity value %s appears more than once in the %s records", value, side),
		Location: loc,
	}
}
