package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultRevocationTTL is how long a revoked jti stays blacklisted,
// independent of the token's own remaining lifetime.
const DefaultRevocationTTL = 12 * time.Hour

const revokedKeyPrefix = "revoked_token:"

// RevocationStore keeps revoked token identifiers in Redis. Records are
// write-once and expire through Redis TTL; nothing deletes them explicitly.
type RevocationStore struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *logrus.Logger
}

func NewRevocationStore(client redis.Cmdable, ttl time.Duration, logger *logrus.Logger) *RevocationStore {
	if ttl <= 0 {
		ttl = DefaultRevocationTTL
	}
	return &RevocationStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *RevocationStore) Revoke(ctx context.Context, jti string) error {
	if jti == "" {
		return fmt.Errorf("cannot revoke an empty token id")
	}

	if err := s.client.Set(ctx, revokedKeyPrefix+jti, "blacklisted", s.ttl).Err(); err != nil {
		s.logger.WithError(err).WithField("jti", jti).Error("Failed to revoke token")
		return fmt.Errorf("%w: revoke %s: %v", ErrStoreUnavailable, jti, err)
	}

	return nil
}

// IsRevoked reports whether jti has a live revocation record. Unknown and
// expired identifiers are not revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := s.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("%w: revocation lookup: %v", ErrStoreUnavailable, err)
	}
	return exists > 0, nil
}
