// Package apperror defines the error kinds surfaced at the API boundary.
package apperror

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error category.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindForbidden         Kind = "FORBIDDEN"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindRateLimited       Kind = "RATE_LIMITED"
	KindInternal          Kind = "INTERNAL"
)

// Error is a business-rule violation with a kind and optional metadata.
type Error struct {
	Kind     Kind
	Message  string
	Metadata map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithMetadata creates an error carrying structured metadata.
func WithMetadata(kind Kind, msg string, metadata map[string]string) *Error {
	return &Error{Kind: kind, Message: msg, Metadata: metadata}
}

// Validation reports malformed input.
func Validation(format string, args ...interface{}) *Error {
	return Newf(KindValidation, format, args...)
}

// NotFound reports a referenced entity that does not exist.
func NotFound(entity string, id interface{}) *Error {
	return WithMetadata(KindNotFound, fmt.Sprintf("%s %v not found", entity, id),
		map[string]string{"entity": entity, "id": fmt.Sprint(id)})
}

// Conflict reports a state that does not allow the request.
func Conflict(format string, args ...interface{}) *Error {
	return Newf(KindConflict, format, args...)
}

// Forbidden reports an authorization scope violation.
func Forbidden(format string, args ...interface{}) *Error {
	return Newf(KindForbidden, format, args...)
}

// InvalidTransition reports a state machine action attempted from a state that does not permit it.
func InvalidTransition(from, to string) *Error {
	return WithMetadata(KindInvalidTransition,
		fmt.Sprintf("cannot move from %s to %s", from, to),
		map[string]string{"from": from, "to": to})
}

// KindOf returns the kind of err, or KindInternal for errors not created by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
