package middleware

import (
	"net/http"
)

// NoStore marks responses as uncacheable. Mounted on routes that return
// credentials so intermediaries never retain tokens.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}
