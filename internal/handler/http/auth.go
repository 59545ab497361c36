package http

import (
	"log/slog"
	"net/http"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/service"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/middleware"
)

// Payload codes for auth requests that fail decoding or validation.
const (
	codeInvalidRegister     = "INVALID_REGISTER_PAYLOAD"
	codeInvalidLogin        = "INVALID_LOGIN_PAYLOAD"
	codeMissingRefreshToken = "MISSING_REFRESH_TOKEN"
)

// AuthHandler serves /auth.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// RegisterRequest bounds the password at 72 characters; the byte limit is
// enforced when the password is hashed.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest only requires presence; wrong credentials are a 401, not a 400.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if decodeBody(w, r, &req, codeInvalidRegister, "Invalid register payload") {
		user, err := h.service.Register(r.Context(), service.Credentials(req))
		respond(w, r, h.logger, http.StatusCreated, user, err)
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if decodeBody(w, r, &req, codeInvalidLogin, "Invalid login payload") {
		pair, err := h.service.Login(r.Context(), service.Credentials(req))
		respond(w, r, h.logger, http.StatusOK, pair, err)
	}
}

// Refresh handles POST /auth/refresh. The refresh token itself is not
// rotated.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeBody(w, r, &req, codeMissingRefreshToken, "refreshToken is required") {
		return
	}
	access, err := h.service.Refresh(r.Context(), req.RefreshToken)
	respond(w, r, h.logger, http.StatusOK, AccessTokenResponse{AccessToken: access}, err)
}

// Logout handles POST /auth/logout. Every well-formed request gets a 204,
// so the response does not reveal whether the token was live.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if decodeBody(w, r, &req, codeMissingRefreshToken, "refreshToken is required") {
		h.service.Logout(r.Context(), req.RefreshToken)
		respond(w, r, h.logger, http.StatusNoContent, nil, nil)
	}
}

// LogoutAll handles POST /auth/logout-all for the authenticated caller.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	h.service.RevokeAll(r.Context(), middleware.UserIDFromContext(r.Context()))
	respond(w, r, h.logger, http.StatusNoContent, nil, nil)
}
