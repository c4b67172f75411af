// Package goerror defines the structured error taxonomy used across the
// service: server faults, business rule violations and validation failures.
// Recoverable outcomes are returned as typed values; only infrastructure
// faults travel the error path.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound signals that a requested row or resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict signals a uniqueness or state conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type buckets errors by who has to act on them.
type Type int

const (
	// TypeServer is an infrastructure or programming fault.
	TypeServer Type = iota
	// TypeBusiness is a domain rule violation.
	TypeBusiness
	// TypeValidation is malformed or invalid caller input.
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	default:
		return "ERROR_TYPE_SERVER"
	}
}

// Code is a stable identifier mapped to an HTTP status at the edge.
type Code int

const (
	// CodeInternal is an internal or unclassified failure.
	CodeInternal Code = iota
	// CodeInvalidFormat is an unparseable request body.
	CodeInvalidFormat
	// CodeInvalidInput is a well-formed request with invalid values.
	CodeInvalidInput
	// CodeNotFound is a missing resource.
	CodeNotFound
	// CodeConflict is a duplicate or state conflict.
	CodeConflict
	// CodeTooManyRequest is a rate-limit rejection.
	CodeTooManyRequest
	// CodeUnauthorized is an authentication failure.
	CodeUnauthorized
	// CodeForbidden is an authorization failure.
	CodeForbidden
	// CodeTimeout is an upstream or store timeout.
	CodeTimeout
)

func (c Code) String() string {
	switch c {
	case CodeInvalidFormat:
		return "ERROR_CODE_INVALID_FORMAT"
	case CodeInvalidInput:
		return "ERROR_CODE_INVALID_INPUT"
	case CodeNotFound:
		return "ERROR_CODE_NOT_FOUND"
	case CodeConflict:
		return "ERROR_CODE_CONFLICT"
	case CodeTooManyRequest:
		return "ERROR_CODE_TOO_MANY_REQUESTS"
	case CodeUnauthorized:
		return "ERROR_CODE_UNAUTHORIZED"
	case CodeForbidden:
		return "ERROR_CODE_FORBIDDEN"
	case CodeTimeout:
		return "ERROR_CODE_TIMEOUT"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Error carries a user-facing message, a type, a stable code and optionally
// the wrapped cause plus per-field validation details.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.errType.String()
	}
}

// String renders a verbose form for logs.
func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v", e.errType, e.code, e.msg, e.err)
}

// Msg returns the user-facing message.
func (e *Error) Msg() string { return e.msg }

// Type returns the high-level error bucket.
func (e *Error) Type() Type { return e.errType }

// Code returns the stable error code.
func (e *Error) Code() Code { return e.code }

// Fields returns field-level validation messages, if any.
func (e *Error) Fields() map[string]string { return e.fields }

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the code to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.code {
	case CodeInvalidFormat:
		return http.StatusBadRequest
	case CodeInvalidInput:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// NewServer wraps an infrastructure fault.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

// NewBusiness builds a business rule violation with a user-facing message.
func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewInvalidInput builds a validation error. When err is nil, kv pairs become
// field-level messages.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}

	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	e := &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		e.fields[kv[i]] = kv[i+1]
	}

	return e
}

// NewInvalidFormat builds an invalid-request-body error.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}
