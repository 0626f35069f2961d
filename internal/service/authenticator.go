package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Abiorh001/notify-hub/internal/models"
	"github.com/sirupsen/logrus"
)

// UserLookup resolves a token subject to a user. A missing user is (nil, nil).
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// AuthResult is what a successful authentication hands to the handler.
type AuthResult struct {
	Identity *models.Identity
	Claims   *Claims
}

type Authenticator struct {
	tokens        *TokenService
	users         UserLookup
	lookupTimeout time.Duration
	logger        *logrus.Logger
}

func NewAuthenticator(tokens *TokenService, users UserLookup, lookupTimeout time.Duration, logger *logrus.Logger) *Authenticator {
	return &Authenticator{
		tokens:        tokens,
		users:         users,
		lookupTimeout: lookupTimeout,
		logger:        logger,
	}
}

// Authenticate validates the bearer credential in authorizationHeader and
// resolves the caller. Every failure is an *AuthError.
func (a *Authenticator) Authenticate(ctx context.Context, authorizationHeader string) (*AuthResult, error) {
	tokenString, ok := bearerToken(authorizationHeader)
	if !ok {
		return nil, reject(ReasonUnauthenticated, "Not authenticated", nil)
	}

	claims := a.tokens.Decode(tokenString)
	if claims == nil {
		return nil, reject(ReasonTokenInvalid, "Invalid or expired token", nil)
	}

	if claims.Refresh {
		return nil, reject(ReasonTokenWrongType, "Provide an access token", nil)
	}

	revoked, err := a.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		a.logger.WithError(err).WithField("jti", claims.ID).Error("Revocation check failed, rejecting request")
		return nil, reject(ReasonStoreUnavailable, "Unable to validate token", err)
	}
	if revoked {
		return nil, reject(ReasonTokenRevoked, "Token has been blacklisted. Log in again.", nil)
	}

	user, err := a.lookupUser(ctx, claims.Subject)
	if err != nil {
		a.logger.WithError(err).WithField("sub", claims.Subject).Error("User lookup failed")
		return nil, reject(ReasonStoreUnavailable, "Unable to resolve user", err)
	}
	if user == nil {
		return nil, reject(ReasonIdentityNotFound, "User not found", nil)
	}
	if !user.IsActive {
		return nil, reject(ReasonIdentityInactive, "Inactive user", nil)
	}

	return &AuthResult{Identity: user.Identity(), Claims: claims}, nil
}

func (a *Authenticator) lookupUser(ctx context.Context, id string) (*models.User, error) {
	if a.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.lookupTimeout)
		defer cancel()
	}

	user, err := a.users.GetByID(ctx, id)
	if err != nil && !errors.Is(err, ErrStoreUnavailable) {
		err = errors.Join(ErrStoreUnavailable, err)
	}
	return user, err
}

// bearerToken extracts the credential from an "Authorization: Bearer <token>" value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
