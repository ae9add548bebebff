package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a submission failure so callers can decide whether to
// retry, alert or drop the result.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindConnection            Kind = "connection"
	KindProtocol              Kind = "protocol"
	KindEncryption            Kind = "encryption"
	KindEncryptionUnavailable Kind = "encryption_unavailable"
)

// Error is a failure of a given Kind raised by operation Op.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// NewError creates an Error of the given kind wrapping err.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s error: %s", e.Kind, e.Op)
	}
	return string(e.Kind) + " error"
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrConnection)
// works regardless of Op and cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrValidation            = &Error{Kind: KindValidation}
	ErrConnection            = &Error{Kind: KindConnection}
	ErrProtocol              = &Error{Kind: KindProtocol}
	ErrEncryption            = &Error{Kind: KindEncryption}
	ErrEncryptionUnavailable = &Error{Kind: KindEncryptionUnavailable}
)

// KindOf returns the kind of err, or "" when err is nil or not an *Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
