// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import (
	"errors"
	"fmt"
)

// Entity resolution errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrUserNotFound indicates a user could not be found.
	ErrUserNotFound = errors.New("user not found")

	// ErrPreferencesNotFound indicates a user has no stored preferences row.
	ErrPreferencesNotFound = errors.New("user preferences not found")

	// ErrResetTokenNotFound indicates no matching password reset token exists.
	ErrResetTokenNotFound = errors.New("password reset token not found")
)

// Authentication errors.
var (
	// ErrUnauthorized indicates the request carried no valid identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials indicates a failed username/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrResetTokenExpired indicates a password reset token is past its expiry.
	ErrResetTokenExpired = errors.New("password reset token expired")

	// ErrEmailTaken indicates a registration conflict on the email column.
	ErrEmailTaken = errors.New("email already registered")
)

// Storage errors.
var (
	// ErrStorageUnavailable indicates the database could not be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError reports a malformed or inconsistent client input. It names
// the offending field and value so the caller can surface them.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}

	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// NewValidation builds a ValidationError.
func NewValidation(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

// QueryError wraps a storage execution failure together with the shape of the
// failing query. Bound values are never captured, only the statement text.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQuery wraps err as a QueryError for the given statement.
func NewQuery(query string, err error) *QueryError {
	return &QueryError{Query: query, Err: err}
}

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
