package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Abiorh001/notify-hub/internal/models"
	"github.com/Abiorh001/notify-hub/internal/service"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	claimsKey   contextKey = "claims"
)

type AuthMiddleware struct {
	authenticator *service.Authenticator
	authorizer    *service.Authorizer
	logger        *logrus.Logger
}

func NewAuthMiddleware(authenticator *service.Authenticator, authorizer *service.Authorizer, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		authorizer:    authorizer,
		logger:        logger,
	}
}

// RequireAuth resolves the bearer token to an active user and stores the
// identity and claims in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, err := m.authenticator.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			m.reject(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, result.Identity)
		ctx = context.WithValue(ctx, claimsKey, result.Claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole lets the request through only when the authenticated identity
// holds one of roles. It must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				RespondWithError(w, http.StatusForbidden, "UNAUTHENTICATED", "Not authenticated")
				return
			}

			if _, err := m.authorizer.Authorize(r.Context(), identity, roles...); err != nil {
				m.reject(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *service.AuthError
	if !errors.As(err, &authErr) {
		m.logger.WithError(err).Error("Unexpected error from auth gate")
		RespondWithError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	m.logger.WithFields(logrus.Fields{
		"reason": authErr.Reason,
		"path":   r.URL.Path,
	}).Debug("Request rejected")

	RespondWithError(w, StatusFor(authErr), strings.ToUpper(string(authErr.Reason)), authErr.Message)
}

// StatusFor maps a gate rejection to the HTTP status sent to the caller.
// Every credential-level failure is a 403.
func StatusFor(authErr *service.AuthError) int {
	if authErr.TokenLevel() {
		return http.StatusForbidden
	}

	switch authErr.Reason {
	case service.ReasonIdentityNotFound:
		return http.StatusNotFound
	case service.ReasonIdentityInactive:
		return http.StatusBadRequest
	case service.ReasonStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusForbidden
	}
}

func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*models.Identity)
	return identity, ok && identity != nil
}

func ClaimsFromContext(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*service.Claims)
	return claims, ok && claims != nil
}

// WithIdentity returns a copy of ctx carrying identity and claims, as
// RequireAuth would set them.
func WithIdentity(ctx context.Context, identity *models.Identity, claims *service.Claims) context.Context {
	ctx = context.WithValue(ctx, identityKey, identity)
	return context.WithValue(ctx, claimsKey, claims)
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func RespondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func RespondWithError(w http.ResponseWriter, status int, code, message string) {
	RespondWithJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
