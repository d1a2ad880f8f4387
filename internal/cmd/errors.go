package cmd

import (
	"errors"

	"github.com/keyforge/dispatch/internal/config"
	oerrors "github.com/keyforge/dispatch/internal/errors"
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int
	// Printed is set once the error has been reported to the user.
	Printed bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var cfgErrs config.ValidationErrors
	switch {
	case errors.As(err, &cfgErrs):
		return ExitValidationError
	case errors.Is(err, oerrors.ErrValidation),
		errors.Is(err, oerrors.ErrUnknownBoard),
		errors.Is(err, oerrors.ErrUnknownChannel):
		return ExitValidationError
	case errors.Is(err, oerrors.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, oerrors.ErrEnvironment):
		return ExitEnvironmentError
	default:
		return ExitGeneralError
	}
}
