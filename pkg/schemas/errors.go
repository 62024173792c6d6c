package schemas

import "fmt"

// ErrorKind classifies an NLWebError per the error handling design: each
// kind maps to a fixed HTTP status and a fixed propagation policy.
type ErrorKind string

const (
	KindInvalidArgument       ErrorKind = "invalid-argument"
	KindRateLimited           ErrorKind = "rate-limited"
	KindBackendUnavailable    ErrorKind = "backend-unavailable"
	KindChatClientUnavailable ErrorKind = "chat-client-unavailable"
	KindCancelled             ErrorKind = "cancelled"
	KindInternal              ErrorKind = "internal"
)

// NLWebError is the single error type surfaced across the query core,
// mirroring bifrost's BifrostError: a stable kind, an HTTP status, a
// human-readable message, and the wrapped cause if any.
type NLWebError struct {
	Kind       ErrorKind `json:"kind"`
	StatusCode int       `json:"-"`
	Message    string    `json:"message"`
	Cause      error     `json:"-"`
}

func (e *NLWebError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *NLWebError) Unwrap() error { return e.Cause }

func newErr(kind ErrorKind, status int, msg string, cause error) *NLWebError {
	return &NLWebError{Kind: kind, StatusCode: status, Message: msg, Cause: cause}
}

func ErrInvalidArgument(msg string) *NLWebError {
	return newErr(KindInvalidArgument, 400, msg, nil)
}

func ErrRateLimited(msg string) *NLWebError {
	return newErr(KindRateLimited, 429, msg, nil)
}

func ErrBackendUnavailable(msg string, cause error) *NLWebError {
	return newErr(KindBackendUnavailable, 502, msg, cause)
}

func ErrChatClientUnavailable(msg string, cause error) *NLWebError {
	return newErr(KindChatClientUnavailable, 200, msg, cause)
}

func ErrCancelled(msg string) *NLWebError {
	return newErr(KindCancelled, 499, msg, nil)
}

func ErrInternal(msg string, cause error) *NLWebError {
	return newErr(KindInternal, 500, msg, cause)
}

// IsKind reports whether err is an *NLWebError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	nerr, ok := err.(*NLWebError)
	return ok && nerr.Kind == kind
}
