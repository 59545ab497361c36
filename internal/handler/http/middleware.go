package http

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/cjuarezoax-byte/hello-api-mas/pkg/errors"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/httputil"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/validator"
)

// DefaultMaxBodyBytes caps request bodies at 1 MiB.
const DefaultMaxBodyBytes int64 = 1 << 20

// LimitBody caps the number of bytes a handler may read from the request body.
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// notFound renders unknown routes in the standard error envelope.
func notFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, r, apperrors.New("ROUTE_NOT_FOUND", "Route not found", http.StatusNotFound, apperrors.ErrNotFound), nil)
}

// methodNotAllowed renders known routes hit with the wrong method.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, r, apperrors.New("METHOD_NOT_ALLOWED", "Method not allowed", http.StatusMethodNotAllowed, apperrors.ErrInvalidInput), nil)
}

// decodeBody decodes and validates the JSON body into dst. On failure it
// writes the response and returns false: 413 when the body exceeded the
// limit, otherwise 400 with the given payload code.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, code, message string) bool {
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		httputil.WriteError(w, r, apperrors.New("PAYLOAD_TOO_LARGE", "Request body too large",
			http.StatusRequestEntityTooLarge, apperrors.ErrInvalidInput), nil)
		return false
	}

	httputil.WriteValidationError(w, r, code, message, err)
	return false
}

// respond writes v as JSON with status, or the error envelope when err is
// set. A nil v with no error writes only the status.
func respond(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, v any, err error) {
	switch {
	case err != nil:
		httputil.WriteError(w, r, err, logger)
	case v == nil:
		w.WriteHeader(status)
	default:
		httputil.WriteJSON(w, status, v)
	}
}
