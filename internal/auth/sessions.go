package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cjuarezoax-byte/hello-api-mas/pkg/logger"
)

// TokenPair is a freshly issued access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LogoutResult tells internal callers what Logout actually did. Callers at
// the HTTP boundary treat every result as success.
type LogoutResult int

const (
	// LogoutRevoked means the token was registered and has been removed.
	LogoutRevoked LogoutResult = iota + 1
	// LogoutAlreadyInvalid means there was nothing to revoke: the token did
	// not verify, or was no longer registered.
	LogoutAlreadyInvalid
)

func (r LogoutResult) String() string {
	switch r {
	case LogoutRevoked:
		return "revoked"
	case LogoutAlreadyInvalid:
		return "already_invalid"
	default:
		return "unknown"
	}
}

// Sessions runs the refresh-token lifecycle on top of a TokenManager and a
// RevocationRegistry:
//
//	issued -> valid -> (refresh, stays valid) -> revoked
//
// Refresh never rotates the refresh token.
type Sessions struct {
	tokens   *TokenManager
	registry *RevocationRegistry
}

// NewSessions creates a Sessions over the given collaborators.
func NewSessions(tokens *TokenManager, registry *RevocationRegistry) *Sessions {
	return &Sessions{tokens: tokens, registry: registry}
}

// Tokens returns the underlying TokenManager.
func (s *Sessions) Tokens() *TokenManager { return s.tokens }

// IssueTokenPair mints an access and a refresh token for id and registers
// the refresh token. A refresh token that is not registered can never be
// used, so registration is part of issuance.
func (s *Sessions) IssueTokenPair(id Identity) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(id)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(id)
	if err != nil {
		return nil, err
	}

	s.registry.Register(id.UserID, refresh)
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a registered, unexpired refresh token for a new access
// token bound to the same identity. The refresh token stays valid.
func (s *Sessions) Refresh(ctx context.Context, refreshToken string) (string, error) {
	l := logger.FromContext(ctx)

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		refreshAttempts.WithLabelValues("invalid").Inc()
		l.DebugContext(ctx, "refresh token rejected", slog.String("reason", err.Error()))
		return "", ErrInvalidRefreshToken
	}

	if !s.registry.IsActive(claims.UserID, refreshToken) {
		refreshAttempts.WithLabelValues("revoked").Inc()
		l.DebugContext(ctx, "refresh token rejected",
			slog.String("reason", "not registered"),
			slog.String("user_id", claims.UserID),
		)
		return "", ErrInvalidRefreshToken
	}

	access, err := s.tokens.IssueAccess(claims.Identity())
	if err != nil {
		refreshAttempts.WithLabelValues("error").Inc()
		return "", fmt.Errorf("refresh: %w", err)
	}

	refreshAttempts.WithLabelValues("ok").Inc()
	return access, nil
}

// Logout revokes refreshToken if it verifies. Verification failures are
// not errors: there is simply nothing to revoke.
func (s *Sessions) Logout(ctx context.Context, refreshToken string) LogoutResult {
	result := LogoutAlreadyInvalid

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		logger.FromContext(ctx).DebugContext(ctx, "logout with unverifiable token", slog.String("reason", err.Error()))
	} else if s.registry.Revoke(claims.UserID, refreshToken) {
		result = LogoutRevoked
	}

	logouts.WithLabelValues(result.String()).Inc()
	return result
}

// RevokeAll invalidates every refresh token registered for userID and
// returns how many were revoked.
func (s *Sessions) RevokeAll(userID string) int {
	return s.registry.RevokeAll(userID)
}
