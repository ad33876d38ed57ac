package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure for transport mapping.
type Kind int

const (
	// KindInternal marks unexpected failures surfaced as a generic server error.
	KindInternal Kind = iota
	// KindValidation marks missing or malformed caller input.
	KindValidation
	// KindAuth marks bad credentials or an invalid bearer token.
	KindAuth
	// KindNotFound marks a resource that is absent or not owned by the caller.
	KindNotFound
)

// Error carries a stable operation.reason code alongside the failure kind.
type Error struct {
	kind Kind
	code string
	err  error
}

// New builds an Error with the given kind and an operation.reason code.
func New(kind Kind, operation, reason string, cause error) *Error {
	return &Error{
		kind: kind,
		code: fmt.Sprintf("%s.%s", operation, reason),
		err:  cause,
	}
}

// Validation builds a caller-input error.
func Validation(operation, reason string, cause error) *Error {
	return New(KindValidation, operation, reason, cause)
}

// Auth builds a credential or token error.
func Auth(operation, reason string, cause error) *Error {
	return New(KindAuth, operation, reason, cause)
}

// NotFound builds an ownership-or-existence error.
func NotFound(operation, reason string, cause error) *Error {
	return New(KindNotFound, operation, reason, cause)
}

// Internal builds an unexpected failure.
func Internal(operation, reason string, cause error) *Error {
	return New(KindInternal, operation, reason, cause)
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code exposes the stable operation.reason identifier.
func (e *Error) Code() string {
	return e.code
}

// Kind exposes the failure classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// KindOf extracts the Kind from an error chain, defaulting to KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	return KindInternal
}

// CodeOf extracts the stable code from an error chain, empty when absent.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.code
	}
	return ""
}
