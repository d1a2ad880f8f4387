package errors

import "errors"

// Sentinel errors for known conditions.
var (
	// ErrValidation indicates a malformed request or layout configuration.
	ErrValidation = errors.New("validation error")

	// ErrUnknownBoard indicates a layout named a keyboard the dispatcher cannot build.
	ErrUnknownBoard = errors.New("unknown board")

	// ErrUnknownChannel indicates a firmware channel with no available build container.
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrNotFound indicates a base layout, revision, or file was not found.
	ErrNotFound = errors.New("not found")

	// ErrEnvironment indicates the host cannot run a build (worker tool
	// missing, workspace not writable).
	ErrEnvironment = errors.New("environment error")
)

// IsClientError reports whether err was caused by the request itself rather
// than by the service environment.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnknownBoard) ||
		errors.Is(err, ErrUnknownChannel) ||
		errors.Is(err, ErrNotFound)
}
