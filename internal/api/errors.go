// internal/api/errors.go
//
// Every remote failure is classified into exactly one Kind at this boundary;
// nothing above it ever inspects HTTP status codes.

package api

import (
	"errors"
	"fmt"
)

// Kind is the client-visible classification of a failed call.
type Kind int

const (
	// KindTransport covers network errors, timeouts and 5xx responses.
	// Reads may fall back to the local cache; writes are reported failed.
	KindTransport Kind = iota

	// KindUnauthorized is a 401 outside the auth endpoints: the session is
	// dead and must be torn down.
	KindUnauthorized

	// KindForbidden is a 403: authenticated but disallowed. The session
	// stays intact.
	KindForbidden

	// KindNotFound is a 404: an authoritative "resource absent", not a
	// failure. Callers must not treat it as transport trouble.
	KindNotFound

	// KindValidation is a rejected payload (400) or a client-side check
	// that blocked the call before any network traffic.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the single error type produced by this package.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, 0 when the request never completed
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s: %s", e.Kind, e.Message)
}

// KindOf extracts the classification from an error chain. Unclassified
// errors count as transport failures, the most conservative reading.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindTransport
}

// IsNotFound reports whether err is an authoritative absence.
func IsNotFound(err error) bool { return is(err, KindNotFound) }

// IsUnauthorized reports whether err means the session is dead.
func IsUnauthorized(err error) bool { return is(err, KindUnauthorized) }

// IsValidation reports whether err was a rejected or blocked payload.
func IsValidation(err error) bool { return is(err, KindValidation) }

func is(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

// ValidationError builds a client-side validation failure that never
// touched the network.
func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}
