// Package errors defines the storefront's error kinds and how each maps
// onto an HTTP status, both for local failures and for answers relayed from
// the marketplace API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is checks. Every AppError wraps one of them.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrTooManyReqs    = errors.New("too many requests")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrUpstream       = errors.New("upstream error")
)

type kind struct {
	sentinel error
	code     string
	status   int
}

// kinds is ordered; the first sentinel an error matches decides its status.
var kinds = []kind{
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden},
	{ErrConflict, "CONFLICT", http.StatusConflict},
	{ErrTooManyReqs, "RATE_LIMITED", http.StatusTooManyRequests},
	{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
	{ErrUpstream, "UPSTREAM_ERROR", http.StatusBadGateway},
}

// AppError is an error with a stable code and the status it is served with.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(sentinel error, message string) *AppError {
	for _, k := range kinds {
		if k.sentinel == sentinel {
			return &AppError{Code: k.code, Message: message, Status: k.status, Err: sentinel}
		}
	}
	return Internal(sentinel)
}

// NotFound reports a missing product, key or route.
func NotFound(resource, id string) *AppError {
	return newError(ErrNotFound, fmt.Sprintf("%s with id %s not found", resource, id))
}

// InvalidInput reports a form or query value the storefront rejects.
func InvalidInput(message string) *AppError {
	return newError(ErrInvalidInput, message)
}

func Unauthorized(message string) *AppError {
	return newError(ErrUnauthorized, message)
}

func TooManyRequests(message string) *AppError {
	return newError(ErrTooManyReqs, message)
}

// Internal hides err behind a generic message.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// upstreamKinds maps marketplace API statuses onto local sentinels.
var upstreamKinds = map[int]error{
	http.StatusNotFound:            ErrNotFound,
	http.StatusBadRequest:          ErrInvalidInput,
	http.StatusUnprocessableEntity: ErrInvalidInput,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusForbidden:           ErrForbidden,
	http.StatusConflict:            ErrConflict,
	http.StatusTooManyRequests:     ErrTooManyReqs,
	http.StatusServiceUnavailable:  ErrServiceUnavail,
}

// Upstream maps a non-2xx status from the marketplace API onto an AppError.
// Known client errors keep their status. Other 5xx answers become 502.
func Upstream(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}

	if sentinel, ok := upstreamKinds[status]; ok {
		err := newError(sentinel, message)
		err.Status = status
		return err
	}

	err := newError(ErrUpstream, message)
	if status < http.StatusInternalServerError {
		err.Status = status
	}
	return err
}

// HTTPStatus returns the status err should be served with.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}
