package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Abiorh001/notify-hub/internal/middleware"
	"github.com/Abiorh001/notify-hub/internal/models"
	"github.com/Abiorh001/notify-hub/internal/service"
	"github.com/sirupsen/logrus"
)

type AuthHandlers struct {
	tokens    *service.TokenService
	hasher    *service.PasswordHasher
	users     UserStore
	validator *Validator
	logger    *logrus.Logger
}

func NewAuthHandlers(
	tokens *service.TokenService,
	hasher *service.PasswordHasher,
	users UserStore,
	validator *Validator,
	logger *logrus.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		tokens:    tokens,
		hasher:    hasher,
		users:     users,
		validator: validator,
		logger:    logger,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

func (req *LoginRequest) normalize() {
	req.Email = normalizeEmail(req.Email)
}

type LoginResponse struct {
	*models.User
	models.TokenPair
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required,min=50,max=500"`
}

type RefreshTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up user for login")
		respondWithError(w, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to log in")
		return
	}

	// unknown email and wrong password are indistinguishable to the caller,
	// in body and in time spent
	var matched bool
	if user == nil {
		matched = h.hasher.VerifyDummy(req.Password)
	} else {
		matched = h.hasher.VerifyPassword(req.Password, user.Password)
	}
	if !matched {
		respondWithError(w, http.StatusBadRequest, "INVALID_CREDENTIALS", "email or password is incorrect")
		return
	}

	if !user.IsActive {
		respondWithError(w, http.StatusBadRequest, "IDENTITY_INACTIVE", "Inactive user")
		return
	}

	pair, err := h.tokens.IssueTokenPair(user.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate tokens")
		respondWithError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate tokens")
		return
	}

	h.logger.WithField("user_uid", user.ID).Info("User logged in")
	respondWithJSON(w, http.StatusOK, LoginResponse{User: user, TokenPair: *pair})
}

func (h *AuthHandlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	accessToken, err := h.tokens.RefreshAccessToken(r.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, service.ErrStoreUnavailable):
		h.logger.WithError(err).Error("Revocation check failed during refresh")
		respondWithError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Unable to validate token")
		return
	case errors.Is(err, service.ErrTokenInvalid):
		respondWithError(w, http.StatusBadRequest, "INVALID_TOKEN", "Invalid refresh token")
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to refresh access token")
		respondWithError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate tokens")
		return
	}

	respondWithJSON(w, http.StatusOK, RefreshTokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.tokens.AccessExpiry().Seconds()),
	})
}

// Logout revokes the access token the request was authenticated with and,
// when the body carries one, the caller's refresh token.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.ID == "" {
		respondWithError(w, http.StatusBadRequest, "INVALID_TOKEN", "Invalid token")
		return
	}

	var req LogoutRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.tokens.Logout(r.Context(), claims.ID, req.RefreshToken); err != nil {
		h.logger.WithError(err).WithField("jti", claims.ID).Error("Failed to revoke token on logout")
		respondWithError(w, http.StatusBadRequest, "TOKEN_NOT_BLACKLISTED", "Token not blacklisted")
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{
		Message: "User logged out successfully",
		Status:  "success",
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
