package services

import (
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("already exists")
	ErrAuth         = errors.New("authentication required")
	ErrForbidden    = errors.New("forbidden")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTransport    = errors.New("mail transport failure")
	ErrSpam         = errors.New("spam detected")
)

// ValidationError is returned for missing or malformed input. Message is safe
// to show to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// UserError pairs one of the sentinel errors above with a message meant for
// the user and, optionally, the page the user should be sent to next.
type UserError struct {
	Kind       error
	Message    string
	RedirectTo string
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Kind
}

func userError(kind error, message string) error {
	return &UserError{Kind: kind, Message: message}
}

func userErrorRedirect(kind error, message, redirectTo string) error {
	return &UserError{Kind: kind, Message: message, RedirectTo: redirectTo}
}
