// Package apperr classifies request failures so handlers can map them to HTTP statuses.
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind is the category of a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind onto a response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Message is safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
	// Payload is the raw upstream body, passed through for KindUpstream.
	Payload json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error      { return &Error{Kind: KindValidation, Message: msg} }
func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Message: msg} }
func Forbidden(msg string) *Error       { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error        { return &Error{Kind: KindNotFound, Message: msg} }

// Upstream wraps a failure reported by a remote service. A payload that is not
// valid JSON is dropped.
func Upstream(msg string, payload []byte, err error) *Error {
	e := &Error{Kind: KindUpstream, Message: msg, Err: err}
	if len(payload) > 0 && json.Valid(payload) {
		e.Payload = json.RawMessage(payload)
	}
	return e
}

// Internal wraps an unexpected failure; the message returned to callers is generic.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain, classifying anything else as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
