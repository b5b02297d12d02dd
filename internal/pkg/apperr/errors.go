package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error so the HTTP layer can pick a status code.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthorized
	KindInvalidCredentials
	KindConflict
	KindNotFound
	KindStorage
	KindCollaborator
)

type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, optional
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func InvalidCredentials() *Error {
	return New(KindInvalidCredentials, "invalid credentials")
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Storage(err error) *Error {
	return Wrap(KindStorage, "storage unavailable", err)
}

// KindOf returns the Kind of err, or KindUnknown for plain errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// MessageOf returns the user-facing message of err. Unknown errors are masked
// so internals never leak into a response body.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
