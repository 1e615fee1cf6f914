// Package apperr defines the closed set of failure kinds the service layer
// reports to the transport boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Kind enumerates every failure class a caller may observe.
type Kind int

const (
	// Internal is anything unexpected. It is the zero value so that foreign
	// errors default to it.
	Internal Kind = iota
	// Validation means the input was rejected before any work was done.
	Validation
	// InvalidCredentials is returned by login and password change when the
	// email or password does not match. It never says which one.
	InvalidCredentials
	// Unauthenticated means no usable bearer token was presented.
	Unauthenticated
	// TokenExpired means the token signature is valid but its expiry has passed.
	TokenExpired
	// TokenInvalid means the token is malformed or its signature does not verify.
	TokenInvalid
	// Conflict reports a duplicate unique key.
	Conflict
	// NotFound reports a missing resource or one owned by somebody else.
	NotFound
	// StorageUnavailable reports a transport-level failure talking to the database.
	StorageUnavailable
)

var kindNames = [...]string{
	Internal:           "internal",
	Validation:         "validation",
	InvalidCredentials: "invalid_credentials",
	Unauthenticated:    "unauthenticated",
	TokenExpired:       "token_expired",
	TokenInvalid:       "token_invalid",
	Conflict:           "conflict",
	NotFound:           "not_found",
	StorageUnavailable: "storage_unavailable",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Error is a classified failure. Msg is safe to show to clients; Err carries
// the underlying cause for logs and development responses.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of the given kind without a cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain,
// or Internal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-safe message of err, falling back to def.
func Message(err error, def string) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return def
}
