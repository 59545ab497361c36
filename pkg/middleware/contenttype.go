package middleware

import (
	"mime"
	"net/http"

	apperrors "github.com/cjuarezoax-byte/hello-api-mas/pkg/errors"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/httputil"
)

// ContentTypeJSON enforces that requests carrying a body declare
// Content-Type: application/json. Bodyless POSTs (such as logout-all) pass.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasBody := r.ContentLength > 0 || (r.ContentLength < 0 && r.Body != nil && r.Body != http.NoBody)
		if hasBody && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				httputil.WriteError(w, r, apperrors.New(
					"UNSUPPORTED_MEDIA_TYPE",
					"Content-Type must be application/json",
					http.StatusUnsupportedMediaType,
					apperrors.ErrInvalidInput,
				), nil)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
