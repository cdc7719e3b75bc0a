package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies bridge errors.
//
//   - KindConnection: the engine could not open or keep a connection; fatal to
//     that handle, never retried by the adapter.
//   - KindQuery: malformed SQL, constraint violations, transaction-state
//     misuse; surfaced as-is since a retry could duplicate side effects.
//   - KindSerialization: a bound value or result column could not be encoded
//     or decoded; indicates a type-mapping bug.
type ErrorKind string

const (
	KindConnection    ErrorKind = "connection"
	KindQuery         ErrorKind = "query"
	KindSerialization ErrorKind = "serialization"
)

// Error is the single error type crossing the guest/host boundary. The
// message embeds the engine's own diagnostic text unmodified.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("wasmlite: %s error: %s", e.Kind, e.Message)
}

func ConnErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindConnection, Message: fmt.Sprintf(format, args...)}
}

func QueryErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindQuery, Message: fmt.Sprintf(format, args...)}
}

func SerializationErrorf(format string, args ...any) *Error {
	return &Error{Kind: KindSerialization, Message: fmt.Sprintf(format, args...)}
}

// WrapError coerces any error into a wire error, preserving an existing
// *Error and otherwise tagging the message with the given kind.
func WrapError(kind ErrorKind, err error) *Error {
	var werr *Error
	if errors.As(err, &werr) {
		return werr
	}
	return &Error{Kind: kind, Message: err.Error()}
}

func kindOf(err error) (ErrorKind, bool) {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind, true
	}
	return "", false
}

// IsConnectionError reports whether err is a bridge connection error.
func IsConnectionError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindConnection
}

// IsQueryError reports whether err is a bridge query error.
func IsQueryError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindQuery
}

// IsSerializationError reports whether err is a bridge serialization error.
func IsSerializationError(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindSerialization
}
