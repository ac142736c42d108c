package app

import "fmt"

// Code categorizes a failed intent. Every failure a client can cause maps to
// exactly one of these; anything else is Internal.
type Code string

const (
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeNotFound          Code = "NOT_FOUND"
	CodeForbidden         Code = "FORBIDDEN"
	CodeResourceExhausted Code = "RESOURCE_EXHAUSTED"
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodeInternal          Code = "INTERNAL"
)

// Error is the coordinator's intent-level failure. It is only ever surfaced
// to the caller through its acknowledgement, never to a room broadcast.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

func Invalidf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) *Error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

func Exhaustedf(format string, args ...any) *Error {
	return &Error{Code: CodeResourceExhausted, Message: fmt.Sprintf(format, args...)}
}

func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code from err, defaulting to Internal for anything
// that is not an *Error (storage failures, context cancellation, panics).
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return CodeInternal
}
