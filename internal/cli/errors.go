package cli

import (
	"errors"
	"fmt"
)

// ExitError carries the process exit code of a failed command.
//
// Commands return it from RunE after reporting the failure themselves, so
// [runApp] can set the exit code without printing the error a second time
// and tests can assert on the code without the process exiting.
type ExitError struct {
	// Code is the process exit code. 1 for every release failure.
	Code int
}

// Error formats the exit code like os/exec does.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError creates an [ExitError] with the given exit code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError reports whether err is (or wraps) an [ExitError] and returns its code.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
