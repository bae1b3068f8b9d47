package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind represents the type of error.
type Kind string

const (
	KindFetch      Kind = "fetch"
	KindUpdate     Kind = "update"
	KindValidation Kind = "validation"
	KindConfig     Kind = "config"
	KindCLI        Kind = "cli"
)

// UnknownMessage is shown when an error carries no message of its own.
const UnknownMessage = "Unknown error"

// Error is a structured error with a code, a kind and a human-readable message.
type Error struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Kind is the error type (fetch, update, etc.).
	Kind Kind

	// Message is the short description shown to users.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface. Only the message is returned so that
// views can show it verbatim; the code is available through Format.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := Lookup(code)
	if !ok {
		return &Error{
			Code:    code,
			Message: UnknownMessage,
		}
	}
	return &Error{
		Code:    code,
		Kind:    template.Kind,
		Message: template.Message,
		Detail:  template.Detail,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsFetch reports whether err is a read-path failure.
func IsFetch(err error) bool {
	return KindOf(err) == KindFetch
}

// IsUpdate reports whether err is a write-path failure.
func IsUpdate(err error) bool {
	return KindOf(err) == KindUpdate
}

// Message returns the human-readable message of err. An error with an
// empty message yields fallback, and fallback itself falls back to
// UnknownMessage.
func Message(err error, fallback string) string {
	if fallback == "" {
		fallback = UnknownMessage
	}
	if err == nil {
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
