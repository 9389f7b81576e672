// Package apperrors holds the sentinel errors shared across sqlhelper
// packages. Callers test them with errors.Is; call sites wrap them with
// context via fmt.Errorf("...: %w", ...).
package apperrors

import "errors"

var (
	// ErrInvalidArgument indicates the caller provided invalid input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotConfigured indicates a required dependency or setting is missing.
	ErrNotConfigured = errors.New("not configured")

	// ErrNotSupported indicates a driver or backend this tool cannot serve.
	ErrNotSupported = errors.New("not supported")
)
