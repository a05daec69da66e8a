// Package aoierr carries the six-member error taxonomy from spec.md §7
// (InvalidInput, NotFound, Conflict, UpstreamUnavailable, DetectorError,
// Internal) as a small wrapped-error type, the same shape as the teacher's
// internal/cameras/errors.go::SfuStepError — a kind tag plus a safe message
// plus the wrapped cause, so an HTTP handler can map kind to status without
// string-matching error text.
package aoierr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	InvalidInput        Kind = "invalid_input"
	NotFound            Kind = "not_found"
	Conflict            Kind = "conflict"
	UpstreamUnavailable Kind = "upstream_unavailable"
	DetectorError       Kind = "detector_error"
	Internal            Kind = "internal"
)

// Error is a tagged, wrapped error carrying one of the Kind values above.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf unwraps err looking for an *Error and returns its Kind, defaulting
// to Internal for any error not produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
