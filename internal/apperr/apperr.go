// Package apperr defines the error type shared by watchlog packages
package apperr

import (
	"errors"
	"fmt"
)

// Error is an application error built from a message template. Errors
// created from the same template through Fmt or Wrap match each other with
// errors.Is.
type Error struct {
	Cause   error
	base    *Error
	Message string
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}

	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target was derived from the same template as e.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return e.root() == t.root()
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

// Fmt returns a copy of the error with the message formatted with args.
func (e *Error) Fmt(args ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(e.Message, args...),
		Cause:   e.Cause,
		base:    e.root(),
	}
}

// Wrap returns a copy of the error with err recorded as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		Message: e.Message,
		Cause:   err,
		base:    e.root(),
	}
}

var (
	// ErrTransientStore reports a read or write failure of the persistence
	// store. Pending intervals are kept and retried on the next flush.
	ErrTransientStore = &Error{
		Message: "watch store unavailable",
	}

	// ErrCorruptIntervals reports a stored interval list that could not be
	// parsed. Callers treat the list as empty.
	ErrCorruptIntervals = &Error{
		Message: "stored interval data is corrupt: %q",
	}

	// ErrInvalidRange reports a query whose end date precedes its start date.
	ErrInvalidRange = &Error{
		Message: "the end date (%s) must not be earlier than the start date (%s)",
	}
)
