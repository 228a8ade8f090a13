// Package status implements the SIXEL core's error taxonomy: a small set
// of abstract error kinds shared by the allocator, chunk loader, quantizer,
// encoder, and decoder, each carrying an optional wrapped cause and a
// human-readable side-channel message.
package status

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code identifies one of the abstract error kinds every public entry point
// in the core may return.
type Code int

const (
	// OK is never wrapped in an Error; it exists so callers can compare a
	// bare Code value without nil-checking.
	OK Code = iota
	BadArgument
	BadAllocation
	BadInput
	BadIntegerOverflow
	RuntimeError
	LibcError
	TransportError
	LogicError
	NotImplemented
	Interrupted
)

// String returns the taxonomy name used in formatted error messages.
func (c Code) String() string {
	switch c {
	case OK:
		return "ok"
	case BadArgument:
		return "bad argument"
	case BadAllocation:
		return "bad allocation"
	case BadInput:
		return "bad input"
	case BadIntegerOverflow:
		return "bad integer overflow"
	case RuntimeError:
		return "runtime error"
	case LibcError:
		return "libc error"
	case TransportError:
		return "transport error"
	case LogicError:
		return "logic error"
	case NotImplemented:
		return "not implemented"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown status"
	}
}

// Error is the concrete error type returned across the core's public API.
// It pairs a taxonomy Code with a wrapped cause (via github.com/pkg/errors,
// so Cause() unwinding and "%+v" stack formatting both work) and an
// optional side-channel message describing what the caller was doing.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New creates an Error of the given code with a formatted message and no
// wrapped cause.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Code and a side-channel message to an existing error,
// preserving it as the Cause(). Wrapping a nil error returns a nil
// *Error; stored in an error interface, that value is not == nil.
func Wrap(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		cause:   errors.Wrap(err, fmt.Sprintf(format, args...)),
	}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Cause returns the innermost wrapped error, per github.com/pkg/errors
// convention. Returns nil if the Error carries no wrapped cause.
func (e *Error) Cause() error {
	if e.cause == nil {
		return nil
	}
	return errors.Cause(e.cause)
}

// Is reports whether target is a *Error with the same Code, so callers can
// write `errors.Is(err, status.New(status.BadInput, ""))`-style checks by
// comparing codes via a sentinel built with the matching code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel returns a comparable *Error carrying only a Code, suitable for
// use with errors.Is.
func Sentinel(code Code) *Error { return &Error{Code: code} }
