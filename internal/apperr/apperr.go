// Package apperr implements the error taxonomy shared by every handler and
// background task in the gateway: a small set of kinds, each mapped to a
// stable HTTP status and a JSON envelope the frontend can switch on.
package apperr

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind classifies an error not by Go type, but by who produced it and
// what the caller should do about it.
type Kind string

const (
	KindValidation         Kind = "VALIDATION_FAILED"
	KindNotFound           Kind = "NOT_FOUND"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindForbidden          Kind = "FORBIDDEN"
	KindRateLimited        Kind = "RATE_LIMITED"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindExternalAPI        Kind = "EXTERNAL_SERVICE_ERROR"
	KindChainRPC           Kind = "CHAIN_ERROR"
	KindDecode             Kind = "DECODE_ERROR"
	KindInternal           Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindValidation:         http.StatusBadRequest,
	KindNotFound:           http.StatusNotFound,
	KindUnauthorized:       http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindRateLimited:        http.StatusTooManyRequests,
	KindServiceUnavailable: http.StatusServiceUnavailable,
	KindExternalAPI:        http.StatusBadGateway,
	KindChainRPC:           http.StatusBadGateway,
	KindDecode:             http.StatusInternalServerError,
	KindInternal:           http.StatusInternalServerError,
}

// Error is the concrete error type carried through the system. It always
// knows its own HTTP status, so handlers never need a switch statement to
// translate it.
type Error struct {
	Kind       Kind
	Message    string
	Field      string
	Details    any
	RetryAfter int
	Source     string // upstream name: "chain", "etl", "swap"
	cause      error
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Source, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status code for this error's kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Validation builds a 400 for bad edge input, optionally naming the field.
func Validation(message, field string) *Error {
	e := newErr(KindValidation, message)
	e.Field = field
	return e
}

// NotFound builds a 404 for a missing resource.
func NotFound(resource string) *Error {
	return newErr(KindNotFound, fmt.Sprintf("%s not found", resource))
}

// Unauthorized builds a 401.
func Unauthorized() *Error {
	return newErr(KindUnauthorized, "authentication required")
}

// Forbidden builds a 403.
func Forbidden() *Error {
	return newErr(KindForbidden, "insufficient permissions")
}

// RateLimited builds a 429, optionally with a retry-after hint in seconds.
func RateLimited(retryAfterSecs int) *Error {
	e := newErr(KindRateLimited, "too many requests")
	e.RetryAfter = retryAfterSecs
	return e
}

// ServiceUnavailable builds the 503 a cold cell surfaces to a handler.
func ServiceUnavailable(cellName string) *Error {
	return newErr(KindServiceUnavailable, fmt.Sprintf("%s not yet available", cellName))
}

// ExternalAPI wraps a non-2xx or transport failure from an upstream REST API.
func ExternalAPI(source string, status int, body string, cause error) *Error {
	e := newErr(KindExternalAPI, fmt.Sprintf("HTTP %d: %s", status, body))
	e.Source = source
	e.cause = cause
	return e
}

// ChainRPC wraps a transport or parse failure talking to the chain node.
func ChainRPC(message string, cause error) *Error {
	e := newErr(KindChainRPC, message)
	e.Source = "chain"
	e.cause = cause
	return e
}

// Decode wraps a JSON shape mismatch from an adapter response body.
func Decode(source string, cause error) *Error {
	e := newErr(KindDecode, "failed to decode response")
	e.Source = source
	e.cause = cause
	return e
}

// Internal wraps a bug or invariant violation.
func Internal(message string, cause error) *Error {
	e := newErr(KindInternal, message)
	e.cause = cause
	return e
}

// Body is the stable JSON envelope every error response carries.
type Body struct {
	Error struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		Field      string `json:"field,omitempty"`
		Details    any    `json:"details,omitempty"`
		RetryAfter int    `json:"retry_after,omitempty"`
	} `json:"error"`
}

// WriteJSON writes the error as the stable envelope with the correct status.
func WriteJSON(w http.ResponseWriter, err *Error) {
	var body Body
	body.Error.Code = string(err.Kind)
	body.Error.Message = err.Message
	body.Error.Field = err.Field
	body.Error.Details = err.Details
	body.Error.RetryAfter = err.RetryAfter

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status())
	_ = json.NewEncoder(w).Encode(body)
}

// As extracts an *Error from any error chain, falling back to a generic
// internal error when the chain carries something else entirely (a bug,
// not a modeled failure).
func As(err error) *Error {
	var target *Error
	if ok := asError(err, &target); ok {
		return target
	}
	return Internal(err.Error(), err)
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
