package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cjuarezoax-byte/hello-api-mas/pkg/httputil"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/logger"
)

type contextKeyType string

const (
	userIDKey   contextKeyType = "user_id"
	usernameKey contextKeyType = "username"
)

// Claims represents the identity extracted by the auth middleware.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Authenticator validates the raw Authorization header value and returns
// the caller's identity. Every rejection must be reported as an error that
// renders to the same response, whatever the underlying cause.
type Authenticator func(authorizationHeader string) (*Claims, error)

// Auth middleware authenticates the bearer token and injects the identity into context.
func Auth(authenticate Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r.Header.Get("Authorization"))
			if err != nil {
				l := logger.FromContext(r.Context())
				l.DebugContext(r.Context(), "access token rejected", slog.String("reason", err.Error()))
				httputil.WriteError(w, r, err, l)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = logger.WithUserID(ctx, claims.UserID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("user_id", claims.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithClaims stores an authenticated identity in ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, claims.UserID)
	return context.WithValue(ctx, usernameKey, claims.Username)
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// UsernameFromContext extracts the username from the request context.
func UsernameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(usernameKey).(string); ok {
		return name
	}
	return ""
}
