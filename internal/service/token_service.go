package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Abiorh001/notify-hub/internal/config"
	"github.com/Abiorh001/notify-hub/internal/models"
	"github.com/sirupsen/logrus"
)

// Revoker records revoked token identifiers.
type Revoker interface {
	Revoke(ctx context.Context, jti string) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type TokenOption func(*tokenOptions)

type tokenOptions struct {
	ttl    time.Duration
	claims map[string]any
}

// WithTTL overrides the configured lifetime of a single token.
func WithTTL(ttl time.Duration) TokenOption {
	return func(o *tokenOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClaims adds custom payload fields. Registered claim names are ignored.
func WithClaims(claims map[string]any) TokenOption {
	return func(o *tokenOptions) {
		o.claims = claims
	}
}

type TokenService struct {
	codec         *TokenCodec
	revoker       Revoker
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	logger        *logrus.Logger
}

func NewTokenService(codec *TokenCodec, revoker Revoker, cfg *config.JWTConfig, logger *logrus.Logger) *TokenService {
	return &TokenService{
		codec:         codec,
		revoker:       revoker,
		accessExpiry:  cfg.AccessExpiry,
		refreshExpiry: cfg.RefreshExpiry,
		logger:        logger,
	}
}

func (s *TokenService) IssueAccessToken(subject string, opts ...TokenOption) (string, error) {
	return s.issue(subject, s.accessExpiry, false, opts)
}

func (s *TokenService) IssueRefreshToken(subject string, opts ...TokenOption) (string, error) {
	return s.issue(subject, s.refreshExpiry, true, opts)
}

func (s *TokenService) issue(subject string, ttl time.Duration, refresh bool, opts []TokenOption) (string, error) {
	o := tokenOptions{ttl: ttl}
	for _, opt := range opts {
		opt(&o)
	}

	token, err := s.codec.Encode(subject, o.claims, o.ttl, refresh)
	if err != nil {
		s.logger.WithError(err).WithField("refresh", refresh).Error("Failed to issue token")
		return "", err
	}
	return token, nil
}

// IssueTokenPair mints an access and a refresh token for subject, each with its own jti.
func (s *TokenService) IssueTokenPair(subject string) (*models.TokenPair, error) {
	accessToken, err := s.IssueAccessToken(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.IssueRefreshToken(subject)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
	}, nil
}

// RefreshAccessToken exchanges a refresh token for a new access token that
// carries the same subject and custom claims. A revoked refresh token is
// refused, and so is any refresh attempt while the store is unreachable.
func (s *TokenService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims := s.codec.Decode(refreshToken)
	if claims == nil || !claims.Refresh {
		return "", ErrTokenInvalid
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", ErrTokenInvalid
	}

	return s.IssueAccessToken(claims.Subject, WithClaims(claims.Custom))
}

// Revoke blacklists jti until the store's own expiry evicts it.
func (s *TokenService) Revoke(ctx context.Context, jti string) error {
	return s.revoker.Revoke(ctx, jti)
}

// Logout revokes the caller's access token and, when one is supplied, the
// matching refresh token. A refresh token that does not decode is ignored.
func (s *TokenService) Logout(ctx context.Context, accessJTI string, refreshToken string) error {
	if err := s.Revoke(ctx, accessJTI); err != nil {
		return err
	}

	if refreshToken == "" {
		return nil
	}

	claims := s.codec.Decode(refreshToken)
	if claims == nil || !claims.Refresh {
		s.logger.WithField("jti", accessJTI).Debug("Ignoring unusable refresh token on logout")
		return nil
	}

	if err := s.Revoke(ctx, claims.ID); err != nil {
		return fmt.Errorf("access token revoked but refresh token was not: %w", err)
	}

	return nil
}

// Decode verifies token and returns its claims, or nil when it cannot be trusted.
func (s *TokenService) Decode(token string) *Claims {
	return s.codec.Decode(token)
}

// AccessExpiry is the lifetime given to access tokens by default.
func (s *TokenService) AccessExpiry() time.Duration {
	return s.accessExpiry
}

func (s *TokenService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.revoker.IsRevoked(ctx, jti)
}
