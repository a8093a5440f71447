package errors

import (
	"errors"
	"fmt"
)

// Common error types for the SQLite browser
var (
	// Configuration errors
	ErrMissingConfig = errors.New("missing required configuration")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Session errors
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrInvalidSessionCookie = errors.New("invalid session cookie")
	ErrSessionConflict      = errors.New("session modified concurrently")

	// Database catalog errors
	ErrDatabaseNotFound = errors.New("database file not found")
	ErrPathOutsideRoot  = errors.New("path is outside the database root")
	ErrInvalidTableName = errors.New("invalid table name")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is an alias of the standard library errors.New
func New(text string) error {
	return errors.New(text)
}
