package apiclient

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/brandcart/storefront/pkg/errors"
)

// StatusError is a non-2xx answer. Its message is the bare status, which is
// what the storefront shows inline.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Unwrap exposes the matching AppError so errors.Is against the pkg/errors
// sentinels and apperrors.HTTPStatus work on API failures.
func (e *StatusError) Unwrap() error {
	return apperrors.Upstream(e.Status, e.Detail)
}

// Message returns the API's own message when it sent one.
func (e *StatusError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return http.StatusText(e.Status)
}

// DecodeError is a 2xx answer whose body is not the expected JSON.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid JSON from %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusOf returns the API status carried by err, or 0.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// UserMessage picks the text to show a user for err: the API's detail for
// status errors, else fallback.
func UserMessage(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.Detail != "" {
		return se.Detail
	}
	return fallback
}
