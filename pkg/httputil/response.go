package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/cjuarezoax-byte/hello-api-mas/pkg/errors"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/logger"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/validator"
)

// ErrorResponse is the JSON body written for every failed request:
//
//	{"error":{"code":"...","message":"...","details":[...]},"requestId":"..."}
type ErrorResponse struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"requestId,omitempty"`
}

// ErrorBody carries the machine-readable code and a human-readable message.
type ErrorBody struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Details []apperrors.Detail `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, the error is logged but headers are already sent so nothing can be done.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err in the standard envelope. Codes and statuses come
// from apperrors.Classify; server errors are logged with their cause, which
// is never written to the client. The request-scoped logger set by the
// RequestLogger middleware wins over fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	status, code, message := apperrors.Classify(err)

	body := ErrorBody{Code: code, Message: message}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Details = appErr.Details
	}

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("code", code),
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, ErrorResponse{
		Error:     body,
		RequestID: logger.RequestIDFromContext(r.Context()),
	})
}

// WriteValidationError writes a 400 for a body that failed decoding or
// validation, using the caller's payload-specific code. Field failures from
// the validator package become details.
func WriteValidationError(w http.ResponseWriter, r *http.Request, code, message string, err error) {
	body := ErrorBody{Code: code, Message: message}

	var valErr *validator.ValidationError
	switch {
	case errors.As(err, &valErr):
		body.Details = valErr.Details()
	case errors.Is(err, validator.ErrMalformedBody):
		body.Details = []apperrors.Detail{{Path: "", Message: "body must be a valid JSON object"}}
	}

	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:     body,
		RequestID: logger.RequestIDFromContext(r.Context()),
	})
}

// ParseUUID parses a path parameter as a UUID. It reports false for any
// malformed value without writing a response, leaving the status to the caller.
func ParseUUID(param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
