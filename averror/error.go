package averror

import (
	"errors"
	"fmt"
	"io"
)

// Error is a structured ffwrap failure.
//
// Code carries the native AVERROR value for LibraryReported errors. Errors
// raised by the wrapper itself carry the positive domain number instead, so the
// two never collide.
type Error struct {
	Domain  Domain
	Code    int32
	Message string
	Op      string

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("ffwrap: %s (%s, code %d)", e.Message, e.Domain, e.Code)
	}
	return fmt.Sprintf("ffwrap %s: %s (%s, code %d)", e.Op, e.Message, e.Domain, e.Code)
}

// Is matches Domain sentinels (including the domain's class) and other
// *Error values with the same domain and code.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Domain:
		return e.Domain == t || e.Domain.Class() == t
	case *Error:
		return e.Domain == t.Domain && e.Code == t.Code
	}
	return false
}

// Unwrap returns the foreign error this one was normalized from, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Wrap returns a wrapper-raised error in domain d that unwraps to cause.
func Wrap(d Domain, op string, cause error) *Error {
	e := New(d, op, "%v", cause)
	e.cause = cause
	return e
}

// New returns a wrapper-raised error in the given domain.
func New(d Domain, op, format string, args ...any) *Error {
	return &Error{
		Domain:  d,
		Code:    int32(d),
		Message: fmt.Sprintf(format, args...),
		Op:      op,
	}
}

// FromCode builds a LibraryReported error from a negative AVERROR code.
// It returns nil for code >= 0, like the library's own convention.
func FromCode(code int32, op, message string) *Error {
	if code >= 0 {
		return nil
	}
	if message == "" {
		message = fmt.Sprintf("error code %d", code)
	}
	return &Error{
		Domain:  LibraryReported,
		Code:    code,
		Message: message,
		Op:      op,
	}
}

// From normalizes any error into an *Error. Foreign errors become
// LibraryReported and stay reachable through Unwrap.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var d Domain
	if errors.As(err, &d) {
		return &Error{Domain: d, Code: int32(d), Message: d.String(), cause: err}
	}
	if errors.Is(err, io.EOF) {
		return &Error{Domain: LibraryReported, Code: CodeEOF, Message: "end of file", cause: err}
	}
	return &Error{Domain: LibraryReported, Code: CodeUnknown, Message: err.Error(), cause: err}
}

// DomainOf returns the domain of err, or DomainNone for nil.
func DomainOf(err error) Domain {
	if e := From(err); e != nil {
		return e.Domain
	}
	return DomainNone
}

// CodeOf returns the code carried by err, or 0 for nil.
func CodeOf(err error) int32 {
	if e := From(err); e != nil {
		return e.Code
	}
	return 0
}

// IsEOF reports whether err is the library's end-of-file condition.
func IsEOF(err error) bool {
	return err != nil && CodeOf(err) == CodeEOF
}

// IsAgain reports whether err asks the caller to feed more input.
func IsAgain(err error) bool {
	return err != nil && CodeOf(err) == CodeAgain
}
