// Package cmd provides command implementations for the dispatch binary.
package cmd

// Exit codes.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitValidationError indicates invalid input: a malformed layout,
	// unknown board or channel, or an invalid config file.
	ExitValidationError = 2

	// ExitNotFound indicates a base layout, file, or revision was not found.
	ExitNotFound = 5

	// ExitEnvironmentError indicates the worker tool or filesystem failed.
	ExitEnvironmentError = 6
)

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitValidationError:
		return "Validation Error"
	case ExitNotFound:
		return "Not Found"
	case ExitEnvironmentError:
		return "Environment Error"
	default:
		return "Unknown"
	}
}
