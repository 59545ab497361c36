package auth

import (
	"fmt"

	apperrors "github.com/cjuarezoax-byte/hello-api-mas/pkg/errors"
)

// Caller-facing failures of the token lifecycle. Each one collapses several
// internal causes into a single response so that clients cannot tell which
// part of a credential or token was wrong.
var (
	ErrInvalidCredentials  = apperrors.Unauthorized("INVALID_CREDENTIALS", "Invalid credentials")
	ErrInvalidAccessToken  = apperrors.Unauthorized("INVALID_ACCESS_TOKEN", "Invalid or expired access token")
	ErrInvalidRefreshToken = apperrors.Unauthorized("INVALID_REFRESH_TOKEN", "Invalid refresh token")
	ErrUsernameTaken       = apperrors.AlreadyExists("username")

	// ErrPasswordTooLong rejects passwords bcrypt cannot hash. The limit is in
	// bytes, so a short multibyte password can still exceed it.
	ErrPasswordTooLong = apperrors.InvalidInput("INVALID_REGISTER_PAYLOAD", "Invalid register payload",
		apperrors.Detail{Path: "password", Message: fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes)})
)
