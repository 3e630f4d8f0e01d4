package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can decide whether the request
// is correctable, conflicting, or worth retrying.
type ErrorKind string

const (
	KindInvalidParameter        ErrorKind = "InvalidParameter"
	KindNotFound                ErrorKind = "NotFound"
	KindDuplicateElement        ErrorKind = "DuplicateElement"
	KindDuplicateRelationship   ErrorKind = "DuplicateRelationship"
	KindConflictingIdentity     ErrorKind = "ConflictingIdentity"
	KindNotAuthorized           ErrorKind = "NotAuthorized"
	KindUnknownRelationshipType ErrorKind = "UnknownRelationshipType"
	KindStoreUnavailable        ErrorKind = "StoreUnavailable"
)

// Error is a kinded error. Only StoreUnavailable is eligible for caller-side
// retry; everything else is surfaced unchanged.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

// Sentinels for errors.Is checks. A sentinel matches any *Error of the same
// kind regardless of message.
var (
	ErrInvalidParameter        = &Error{Kind: KindInvalidParameter}
	ErrNotFound                = &Error{Kind: KindNotFound}
	ErrDuplicateElement        = &Error{Kind: KindDuplicateElement}
	ErrDuplicateRelationship   = &Error{Kind: KindDuplicateRelationship}
	ErrConflictingIdentity     = &Error{Kind: KindConflictingIdentity}
	ErrNotAuthorized           = &Error{Kind: KindNotAuthorized}
	ErrUnknownRelationshipType = &Error{Kind: KindUnknownRelationshipType}
	ErrStoreUnavailable        = &Error{Kind: KindStoreUnavailable}
)

// NewError creates a kinded error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a kinded error that preserves the underlying cause.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches sentinels of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// KindOf extracts the ErrorKind from err, or an empty kind when err carries
// no classification.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
