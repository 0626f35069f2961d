package service

import (
	"context"
	"time"

	"github.com/Abiorh001/notify-hub/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultAllowedRole is used when a role check is configured with no names.
const DefaultAllowedRole = "admin"

// RoleLookup resolves a role reference. A missing role is (nil, nil).
type RoleLookup interface {
	GetByID(ctx context.Context, id string) (*models.Role, error)
}

type Authorizer struct {
	roles         RoleLookup
	lookupTimeout time.Duration
	logger        *logrus.Logger
}

func NewAuthorizer(roles RoleLookup, lookupTimeout time.Duration, logger *logrus.Logger) *Authorizer {
	return &Authorizer{
		roles:         roles,
		lookupTimeout: lookupTimeout,
		logger:        logger,
	}
}

// Authorize passes identity through when its role name is one of allowed.
// A missing role and a role outside the allow-list produce the same rejection.
func (a *Authorizer) Authorize(ctx context.Context, identity *models.Identity, allowed ...string) (*models.Identity, error) {
	if len(allowed) == 0 {
		allowed = []string{DefaultAllowedRole}
	}
	denied := reject(ReasonPermissionDenied, "You do not have the required permissions to access this endpoint", nil)

	if identity == nil || identity.RoleID == "" {
		return nil, denied
	}

	lookupCtx := ctx
	if a.lookupTimeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, a.lookupTimeout)
		defer cancel()
	}

	role, err := a.roles.GetByID(lookupCtx, identity.RoleID)
	if err != nil {
		a.logger.WithError(err).WithField("role_uid", identity.RoleID).Error("Role lookup failed")
		return nil, reject(ReasonStoreUnavailable, "Unable to resolve role", err)
	}
	if role == nil {
		return nil, denied
	}

	for _, name := range allowed {
		if role.Name == name {
			return identity, nil
		}
	}

	a.logger.WithFields(logrus.Fields{
		"user_uid": identity.ID,
		"role":     role.Name,
	}).Debug("Role not in allow-list")
	return nil, denied
}
