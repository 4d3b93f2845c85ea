package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable machine-readable error identifier sent to clients.
type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeNotFound            Code = "NOT_FOUND"
	CodeInvalidTransition   Code = "INVALID_TRANSITION"
	CodeDuplicateCode       Code = "DUPLICATE_CODE"
	CodeCodeExhausted       Code = "DUPLICATE_CODE_RETRY_EXHAUSTED"
	CodeNotificationPersist Code = "NOTIFICATION_PERSIST_ERROR"
	CodeStateConflict       Code = "STATE_CONFLICT"
	CodeIdempotency         Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeInternal            Code = "INTERNAL_ERROR"
	CodeDependency          Code = "DEPENDENCY_ERROR"
)

// Metadata says how a code is rendered over HTTP.
type Metadata struct {
	HTTPStatus int
	Retryable  bool
	// PublicMessage replaces the error's own message unless ExposeMessage is set.
	PublicMessage  string
	ExposeMessage  bool
	DetailsAllowed bool
}

const (
	retryable = 1 << iota
	exposeMessage
	withDetails
)

func meta(status int, public string, flags int) Metadata {
	return Metadata{
		HTTPStatus:     status,
		PublicMessage:  public,
		Retryable:      flags&retryable != 0,
		ExposeMessage:  flags&exposeMessage != 0,
		DetailsAllowed: flags&withDetails != 0,
	}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:          meta(http.StatusBadRequest, "validation failed", exposeMessage|withDetails),
	CodeNotFound:            meta(http.StatusNotFound, "resource not found", exposeMessage),
	CodeInvalidTransition:   meta(http.StatusUnprocessableEntity, "status transition not allowed", exposeMessage|withDetails),
	CodeDuplicateCode:       meta(http.StatusConflict, "request code already allocated", retryable|withDetails),
	CodeCodeExhausted:       meta(http.StatusServiceUnavailable, "request code allocation contended, try again", retryable),
	CodeNotificationPersist: meta(http.StatusInternalServerError, "notification could not be recorded", 0),
	CodeStateConflict:       meta(http.StatusConflict, "resource changed concurrently", retryable|exposeMessage|withDetails),
	CodeIdempotency:         meta(http.StatusConflict, "idempotency key reused", exposeMessage|withDetails),
	CodeRateLimited:         meta(http.StatusTooManyRequests, "too many requests", retryable|exposeMessage|withDetails),
	CodeInternal:            meta(http.StatusInternalServerError, "internal server error", retryable),
	CodeDependency:          meta(http.StatusServiceUnavailable, "dependency unavailable", retryable|withDetails),
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// Error carries a Code, a message, optional client details, and the cause.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches code and message to err; a nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets the client-visible details and returns e.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

// PublicMessage is what clients see for e.
func (e *Error) PublicMessage() string {
	m := MetadataFor(e.Code())
	if m.ExposeMessage && e.Message() != "" {
		return e.Message()
	}
	return m.PublicMessage
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.code) + ": " + e.message
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Is reports whether the outermost typed error in err's chain carries one of codes.
func Is(err error, codes ...Code) bool {
	typed := As(err)
	if typed == nil {
		return false
	}
	for _, code := range codes {
		if typed.code == code {
			return true
		}
	}
	return false
}

// StatusOf maps err to its HTTP status; untyped errors are 500.
func StatusOf(err error) int {
	if typed := As(err); typed != nil {
		return MetadataFor(typed.code).HTTPStatus
	}
	return http.StatusInternalServerError
}
