package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline failure taxonomy. Components surface
// these; nothing downstream recovers one into a success.
var (
	ErrStoreUnavailable  = errors.New("record store unavailable")
	ErrStoreTimeout      = errors.New("record store timeout")
	ErrContextTooLarge   = errors.New("retrieved context too large for prompt budget")
	ErrModelUnavailable  = errors.New("model runtime unavailable")
	ErrMalformedResponse = errors.New("malformed model response")
)

// Sentinel errors for request validation failures.
var (
	ErrEmptyQuestion    = errors.New("question is empty")
	ErrQuestionTooLong  = errors.New("question too long")
	ErrQuestionUnsafe   = errors.New("question contains suspicious content")
	ErrInvalidContact   = errors.New("invalid contact record")
	ErrInvalidNote      = errors.New("invalid note record")
	ErrUnknownField     = errors.New("unknown contact field")
)

// Failure wraps a taxonomy sentinel with the failing operation and a
// human-readable message, per the failure contract handed to callers.
type Failure struct {
	Op      string
	Msg     string
	Wrapped error
}

func (f *Failure) Error() string {
	if f.Msg == "" {
		return fmt.Sprintf("%s: %s", f.Op, f.Wrapped)
	}
	return fmt.Sprintf("%s: %s: %s", f.Op, f.Wrapped, f.Msg)
}

func (f *Failure) Unwrap() error { return f.Wrapped }

// Fail creates a Failure wrapping one of the sentinel errors.
func Fail(op string, sentinel error, format string, args ...any) *Failure {
	return &Failure{Op: op, Wrapped: sentinel, Msg: fmt.Sprintf(format, args...)}
}

// FailureName returns the transport-facing name of a pipeline failure, or
// "" when err is not part of the taxonomy. The HTTP layer maps these to
// status codes.
func FailureName(err error) string {
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return "StoreUnavailable"
	case errors.Is(err, ErrStoreTimeout):
		return "StoreTimeout"
	case errors.Is(err, ErrContextTooLarge):
		return "ContextTooLarge"
	case errors.Is(err, ErrModelUnavailable):
		return "ModelUnavailable"
	case errors.Is(err, ErrMalformedResponse):
		return "MalformedResponse"
	default:
		return ""
	}
}
