package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes access tokens from refresh tokens. The kind is
// carried in the "typ" claim in addition to being implied by the secret.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Identity is the subject a token is issued for.
type Identity struct {
	UserID   string
	Username string
}

// Claims are the JWT claims carried by both token kinds.
type Claims struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Kind     TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// Identity returns the subject of the token.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Username: c.Username}
}

// TokenConfig configures a TokenManager.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenManager signs and verifies HS256 tokens. Access and refresh tokens use
// separate secrets so that neither kind can be forged from the other.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewTokenManager creates a TokenManager. A nil now defaults to time.Now.
func NewTokenManager(cfg TokenConfig, now func() time.Time) *TokenManager {
	if now == nil {
		now = time.Now
	}
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           now,
	}
}

// AccessTTL returns the lifetime of newly issued access tokens.
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// IssueAccess signs a new access token for id.
func (m *TokenManager) IssueAccess(id Identity) (string, error) {
	return m.sign(id, KindAccess, m.accessSecret, m.accessTTL)
}

// IssueRefresh signs a new refresh token for id. The caller is responsible
// for registering it.
func (m *TokenManager) IssueRefresh(id Identity) (string, error) {
	return m.sign(id, KindRefresh, m.refreshSecret, m.refreshTTL)
}

func (m *TokenManager) sign(id Identity, kind TokenKind, secret []byte, ttl time.Duration) (string, error) {
	now := m.now().UTC()
	claims := &Claims{
		UserID:   id.UserID,
		Username: id.Username,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	tokensIssued.WithLabelValues(string(kind)).Inc()
	return signed, nil
}

// ParseAccess verifies an access token and returns its claims.
func (m *TokenManager) ParseAccess(token string) (*Claims, error) {
	return m.parse(token, KindAccess, m.accessSecret)
}

// ParseRefresh verifies a refresh token and returns its claims. Registry
// membership is not checked here.
func (m *TokenManager) ParseRefresh(token string) (*Claims, error) {
	return m.parse(token, KindRefresh, m.refreshSecret)
}

func (m *TokenManager) parse(token string, kind TokenKind, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{},
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse %s token: %w", kind, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("parse %s token: invalid claims", kind)
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("parse %s token: unexpected token kind %q", kind, claims.Kind)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("parse %s token: missing user id", kind)
	}
	return claims, nil
}

// errMalformedHeader is logged, never rendered.
var errMalformedHeader = errors.New("authorization header is not of the form \"Bearer <token>\"")

// Authenticate validates an Authorization header value statelessly. Every
// failure, whatever its cause, is reported as ErrInvalidAccessToken wrapping
// the cause for logs.
func (m *TokenManager) Authenticate(header string) (*Claims, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" || strings.ContainsRune(token, ' ') {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccessToken, errMalformedHeader)
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccessToken, err)
	}
	return claims, nil
}
