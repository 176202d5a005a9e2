package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure independently of the transport that produced it.
type Kind string

const (
	// KindNetwork means the request never completed or completed without a usable outcome.
	KindNetwork Kind = "NETWORK_ERROR"
	// KindInvalidPayload means a response violated the expected Task/User shape.
	KindInvalidPayload Kind = "INVALID_PAYLOAD"
	// KindValidation means a mutation was rejected, locally or by the backend.
	KindValidation Kind = "VALIDATION_ERROR"
	// KindNotFound means the addressed id does not exist.
	KindNotFound Kind = "NOT_FOUND"
	// KindUnauthorized means no authenticated session; no request was sent for guarded actions.
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindInternal     Kind = "INTERNAL_ERROR"
	KindUnavailable  Kind = "SERVICE_UNAVAILABLE"
)

// Error is the error type shared by the store, gateway and reconciler.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors of the same kind so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Kind == e.Kind
}

// New builds an Error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err under kind.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Sentinels usable with errors.Is; they match any Error of the same kind.
var (
	ErrNetwork        = &Error{Kind: KindNetwork}
	ErrInvalidPayload = &Error{Kind: KindInvalidPayload}
	ErrValidation     = &Error{Kind: KindValidation}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrUnauthorized   = &Error{Kind: KindUnauthorized}
)

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
