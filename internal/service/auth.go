package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/auth"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/domain"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/event"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/repository"
	apperrors "github.com/cjuarezoax-byte/hello-api-mas/pkg/errors"
)

// Operation-level failure codes for the credential endpoints.
const (
	CodeRegisterFailed = "REGISTER_FAILED"
	CodeLoginFailed    = "LOGIN_FAILED"
)

// AuthService implements registration, login and the refresh-token lifecycle.
type AuthService struct {
	users    repository.UserRepository
	hasher   *auth.PasswordHasher
	sessions *auth.Sessions
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	hasher *auth.PasswordHasher,
	sessions *auth.Sessions,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// Credentials is a username/password pair as submitted by a client.
type Credentials struct {
	Username string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	auth.TokenPair
	User domain.PublicUser `json:"user"`
}

// Register creates an account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, in Credentials) (*AuthResult, error) {
	user, err := s.createUser(ctx, in)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, auth.ErrUsernameTaken
		}
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, err
		}
		return nil, apperrors.InternalWithCode(CodeRegisterFailed, "Could not register user", err)
	}

	pair, err := s.sessions.IssueTokenPair(identityOf(user))
	if err != nil {
		return nil, apperrors.InternalWithCode(CodeRegisterFailed, "Could not register user", fmt.Errorf("issue tokens: %w", err))
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{TokenPair: *pair, User: user.Public()}, nil
}

// Login verifies credentials and issues a token pair. An unknown username and
// a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in Credentials) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.hasher.VerifyDummy(in.Password)
			s.logger.DebugContext(ctx, "login rejected", slog.String("reason", "unknown user"))
			return nil, auth.ErrInvalidCredentials
		}
		return nil, apperrors.InternalWithCode(CodeLoginFailed, "Could not complete login", fmt.Errorf("get user: %w", err))
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return nil, apperrors.InternalWithCode(CodeLoginFailed, "Could not complete login", err)
	}
	if !ok {
		s.logger.DebugContext(ctx, "login rejected",
			slog.String("reason", "password mismatch"),
			slog.String("user_id", user.ID),
		)
		return nil, auth.ErrInvalidCredentials
	}

	pair, err := s.sessions.IssueTokenPair(identityOf(user))
	if err != nil {
		return nil, apperrors.InternalWithCode(CodeLoginFailed, "Could not complete login", fmt.Errorf("issue tokens: %w", err))
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return &AuthResult{TokenPair: *pair, User: user.Public()}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return s.sessions.Refresh(ctx, refreshToken)
}

// Logout revokes refreshToken. It never fails; the result says whether
// anything was revoked.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) auth.LogoutResult {
	result := s.sessions.Logout(ctx, refreshToken)
	s.logger.DebugContext(ctx, "logout", slog.String("result", result.String()))
	return result
}

// RevokeAll signs userID out everywhere by revoking all their refresh tokens.
func (s *AuthService) RevokeAll(ctx context.Context, userID string) int {
	n := s.sessions.RevokeAll(userID)
	s.logger.InfoContext(ctx, "revoked all refresh tokens",
		slog.String("user_id", userID),
		slog.Int("count", n),
	)
	return n
}

// EnsureUser returns the account named in.Username, creating it with
// in.Password when it does not exist. Used to seed the demo account.
func (s *AuthService) EnsureUser(ctx context.Context, in Credentials) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, in.Username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	user, err = s.createUser(ctx, in)
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		return s.users.GetByUsername(ctx, in.Username)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, in Credentials) (*domain.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: hash,
		Roles:        []string{domain.RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func identityOf(u *domain.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Username: u.Username}
}
