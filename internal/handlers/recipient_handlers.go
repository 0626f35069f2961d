package handlers

import (
	"net/http"
	"strings"

	"github.com/Abiorh001/notify-hub/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type RecipientHandlers struct {
	recipients RecipientStore
	validator  *Validator
	logger     *logrus.Logger
}

func NewRecipientHandlers(recipients RecipientStore, validator *Validator, logger *logrus.Logger) *RecipientHandlers {
	return &RecipientHandlers{
		recipients: recipients,
		validator:  validator,
		logger:     logger,
	}
}

// CreateRecipientRequest needs at least one way to reach the recipient.
type CreateRecipientRequest struct {
	FirstName   string `json:"first_name" validate:"required,min=1,max=100"`
	LastName    string `json:"last_name" validate:"max=100"`
	Email       string `json:"email" validate:"required_without=PhoneNumber,omitempty,email,max=255"`
	PhoneNumber string `json:"phone_number" validate:"required_without=Email,omitempty,e164"`
}

func (req *CreateRecipientRequest) normalize() {
	req.Email = normalizeEmail(req.Email)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
}

func (h *RecipientHandlers) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req CreateRecipientRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	recipient := &models.Recipient{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		CreatedBy:   identity.ID,
	}

	if err := h.recipients.Create(r.Context(), recipient); err != nil {
		h.logger.WithError(err).Error("Failed to create recipient")
		respondWithError(w, http.StatusInternalServerError, "RECIPIENT_CREATION_FAILED", "Failed to create recipient")
		return
	}

	respondWithJSON(w, http.StatusCreated, recipient)
}

func (h *RecipientHandlers) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	recipients, err := h.recipients.ListByCreator(r.Context(), identity.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list recipients")
		respondWithError(w, http.StatusInternalServerError, "RECIPIENT_LOOKUP_FAILED", "Failed to list recipients")
		return
	}

	respondWithJSON(w, http.StatusOK, recipients)
}

// Get returns one recipient owned by the caller. Unknown and malformed ids
// are both reported as not found.
func (h *RecipientHandlers) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		respondWithError(w, http.StatusNotFound, "RECIPIENT_NOT_FOUND", "Recipient does not exist")
		return
	}

	recipient, err := h.recipients.GetByID(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get recipient")
		respondWithError(w, http.StatusInternalServerError, "RECIPIENT_LOOKUP_FAILED", "Failed to get recipient")
		return
	}
	if recipient == nil {
		respondWithError(w, http.StatusNotFound, "RECIPIENT_NOT_FOUND", "Recipient does not exist")
		return
	}

	if recipient.CreatedBy != identity.ID {
		respondWithError(w, http.StatusForbidden, "PERMISSION_DENIED", "You are not allowed to view this resource")
		return
	}

	respondWithJSON(w, http.StatusOK, recipient)
}
