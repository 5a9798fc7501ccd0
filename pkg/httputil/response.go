// Package httputil writes the JSON envelope shared by the storefront's JSON
// endpoints (suggestions, session snapshot, revalidation and rate-limit
// answers).
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/brandcart/storefront/pkg/errors"
	"github.com/brandcart/storefront/pkg/logger"
	"github.com/brandcart/storefront/pkg/validator"
)

// Response is {"data": ...} on success and {"error": {...}} otherwise.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of Response. RequestID echoes the
// correlation id so a shopper's report can be matched to the logs.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes v as a 200 success envelope.
func WriteData(w http.ResponseWriter, v any) {
	WriteJSON(w, http.StatusOK, Response{Data: v})
}

// WriteError writes the error envelope for err. 5xx causes are logged with
// the request logger, or fallback when the request carries none.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	status, body := describe(err)
	body.RequestID = logger.CorrelationIDFromContext(r.Context())

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
		)
	}
	WriteJSON(w, status, Response{Error: body})
}

// describe picks the status and public body for err. Only AppError and
// validation messages reach the client verbatim.
func describe(err error) (int, *ErrorResponse) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Status, &ErrorResponse{Code: appErr.Code, Message: appErr.Message}
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return http.StatusBadRequest, &ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: valErr.First(),
			Fields:  valErr.Fields(),
		}
	}

	status := apperrors.HTTPStatus(err)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return status, &ErrorResponse{Code: "NOT_FOUND", Message: "resource not found"}
	case errors.Is(err, apperrors.ErrInvalidInput):
		return status, &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, apperrors.ErrUpstream):
		return status, &ErrorResponse{Code: "UPSTREAM_ERROR", Message: "marketplace API error"}
	}
	if status < http.StatusInternalServerError {
		return status, &ErrorResponse{Code: "REQUEST_FAILED", Message: http.StatusText(status)}
	}
	return status, &ErrorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
}
