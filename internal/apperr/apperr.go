// Package apperr defines the error kinds shared by the catalog, the wizard
// and the dialogue router.
package apperr

import (
	"errors"
	"strings"
)

// Kind classifies an error for handling at the chat boundary.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindValidation     Kind = "validation"
	KindUpload         Kind = "upload"
	KindUnauthorized   Kind = "unauthorized"
	KindMalformedInput Kind = "malformed_input"
	KindInvalidQuery   Kind = "invalid_query"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrUpload         = &Error{Kind: KindUpload}
	ErrUnauthorized   = &Error{Kind: KindUnauthorized}
	ErrMalformedInput = &Error{Kind: KindMalformedInput}
	ErrInvalidQuery   = &Error{Kind: KindInvalidQuery}
)

// Error is a classified application error.
type Error struct {
	Kind Kind
	// Op names the failing operation, e.g. "catalog.get".
	Op string
	// Msg is safe to show to the user.
	Msg string
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Code is the value logged as err_code.
func (e *Error) Code() string { return string(e.Kind) }

// New builds an *Error.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap builds an *Error around err.
func Wrap(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// NotFound is shorthand for New(KindNotFound, ...).
func NotFound(op, msg string) *Error { return New(KindNotFound, op, msg) }

// Validation is shorthand for New(KindValidation, ...).
func Validation(op, msg string) *Error { return New(KindValidation, op, msg) }

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Message returns the user-facing message of the first *Error in err's chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}
