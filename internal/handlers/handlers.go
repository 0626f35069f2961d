package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Abiorh001/notify-hub/internal/middleware"
	"github.com/Abiorh001/notify-hub/internal/models"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// UserStore is the persistence the user and auth handlers need.
// Lookups return (nil, nil) when nothing matches.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User, previousEmail string) error
	Delete(ctx context.Context, user *models.User) error
	AssignRole(ctx context.Context, userID, roleID string) (*models.User, error)
}

type RoleStore interface {
	GetByID(ctx context.Context, id string) (*models.Role, error)
	Create(ctx context.Context, role *models.Role) error
}

type RecipientStore interface {
	Create(ctx context.Context, recipient *models.Recipient) error
	GetByID(ctx context.Context, id string) (*models.Recipient, error)
	ListByCreator(ctx context.Context, ownerID string) ([]models.Recipient, error)
}

type MessageResponse struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	middleware.RespondWithJSON(w, status, payload)
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	middleware.RespondWithError(w, status, code, message)
}

// decodeJSON reads a JSON body into dst. An empty body yields errEmptyBody.
func decodeJSON(r *http.Request, dst interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}

// normalizer is implemented by requests that canonicalise their input
// before validation, such as trimming and lower-casing emails.
type normalizer interface {
	normalize()
}

// decodeAndValidate answers 400 itself and returns false when the body is unusable.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *Validator, dst interface{}) bool {
	if err := decodeJSON(r, dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return false
	}

	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}

	if err := v.Validate(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return false
	}

	return true
}

// currentIdentity answers 403 itself when the route was not behind RequireAuth.
func currentIdentity(w http.ResponseWriter, r *http.Request) (*models.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusForbidden, "UNAUTHENTICATED", "Not authenticated")
	}
	return identity, ok
}
