package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/yamlpath/internal/engine"
)

// Exit codes for CLI commands.
const (
	ExitSuccess               = engine.ExitSuccess         // Successful execution
	ExitFailure               = engine.ExitValidation      // Validation failure or failed scenarios
	ExitSourceAccess          = engine.ExitAccess          // A source or directory cannot be read
	ExitParse                 = engine.ExitParse           // A source failed to parse
	ExitConflict              = engine.ExitConflict        // Merge conflict in a single-document source
	ExitPathResolution        = engine.ExitPath            // Path resolution error in a single-document source
	ExitConflictInMulti       = engine.ExitConflictInMulti // Merge conflict in a multi-document source
	ExitPathResolutionInMulti = engine.ExitPathInMulti     // Path resolution error in a multi-document source
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure (1) if the error is not an
// ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E_TEST_FAILED", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}
