package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Abiorh001/notify-hub/internal/models"
	"github.com/Abiorh001/notify-hub/internal/repository"
	"github.com/Abiorh001/notify-hub/internal/service"
	"github.com/sirupsen/logrus"
)

type UserHandlers struct {
	users     UserStore
	roles     RoleStore
	hasher    *service.PasswordHasher
	validator *Validator
	logger    *logrus.Logger
}

func NewUserHandlers(
	users UserStore,
	roles RoleStore,
	hasher *service.PasswordHasher,
	validator *Validator,
	logger *logrus.Logger,
) *UserHandlers {
	return &UserHandlers{
		users:     users,
		roles:     roles,
		hasher:    hasher,
		validator: validator,
		logger:    logger,
	}
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name" validate:"required,min=2,max=100"`
}

func (req *RegisterRequest) normalize() {
	req.Email = normalizeEmail(req.Email)
}

// UpdateUserRequest changes only the fields that are present.
type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=72"`
	FirstName *string `json:"first_name" validate:"omitempty,min=2,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=2,max=100"`
}

func (req *UpdateUserRequest) normalize() {
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
}

type CreateRoleRequest struct {
	Name        string   `json:"role" validate:"required,min=2,max=50"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,min=1,max=100"`
	Description string   `json:"description" validate:"max=255"`
}

type AssignRoleRequest struct {
	UserID string `json:"user_uid" validate:"required,uuid4"`
	RoleID string `json:"role_uid" validate:"required,uuid4"`
}

func (h *UserHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	digest, err := h.hasher.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, service.ErrPasswordTooLong) {
			respondWithError(w, http.StatusBadRequest, "VALIDATION_ERROR", "password must be at most 72 bytes")
			return
		}
		h.logger.WithError(err).Error("Failed to hash password")
		respondWithError(w, http.StatusInternalServerError, "USER_CREATION_FAILED", "Failed to create user")
		return
	}

	user := &models.User{
		Email:     req.Email,
		Password:  digest,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		IsActive:  true,
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			respondWithError(w, http.StatusBadRequest, "EMAIL_TAKEN", "User with this email already exists")
			return
		}
		h.logger.WithError(err).Error("Failed to create user")
		respondWithError(w, http.StatusInternalServerError, "USER_CREATION_FAILED", "Failed to create user")
		return
	}

	h.logger.WithField("user_uid", user.ID).Info("User registered")
	respondWithJSON(w, http.StatusCreated, user)
}

func (h *UserHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), identity.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get user")
		respondWithError(w, http.StatusInternalServerError, "USER_LOOKUP_FAILED", "Failed to get user")
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandlers) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email := normalizeEmail(r.URL.Query().Get("email"))
	if email == "" {
		respondWithError(w, http.StatusBadRequest, "VALIDATION_ERROR", "email is required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get user by email")
		respondWithError(w, http.StatusInternalServerError, "USER_LOOKUP_FAILED", "Failed to get user")
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandlers) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.users.GetByID(r.Context(), identity.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get user")
		respondWithError(w, http.StatusInternalServerError, "USER_UPDATE_FAILED", "Failed to update user")
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	previousEmail := user.Email
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Password != nil {
		if h.hasher.VerifyPassword(*req.Password, user.Password) {
			respondWithError(w, http.StatusBadRequest, "PASSWORD_UNCHANGED", "New password must be different from the current one")
			return
		}
		digest, err := h.hasher.HashPassword(*req.Password)
		if err != nil {
			h.logger.WithError(err).Error("Failed to hash password")
			respondWithError(w, http.StatusBadRequest, "VALIDATION_ERROR", "password could not be hashed")
			return
		}
		user.Password = digest
	}

	if err := h.users.Update(r.Context(), user, previousEmail); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			respondWithError(w, http.StatusBadRequest, "EMAIL_TAKEN", "User with this email already exists")
			return
		case errors.Is(err, repository.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		h.logger.WithError(err).Error("Failed to update user")
		respondWithError(w, http.StatusInternalServerError, "USER_UPDATE_FAILED", "Failed to update user")
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), identity.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get user")
		respondWithError(w, http.StatusInternalServerError, "USER_DELETE_FAILED", "Failed to delete user")
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	if err := h.users.Delete(r.Context(), user); err != nil {
		h.logger.WithError(err).Error("Failed to delete user")
		respondWithError(w, http.StatusInternalServerError, "USER_DELETE_FAILED", "Failed to delete user")
		return
	}

	h.logger.WithField("user_uid", user.ID).Info("User deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandlers) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	role := &models.Role{
		Name:        strings.TrimSpace(req.Name),
		Permissions: req.Permissions,
		Description: req.Description,
	}

	if err := h.roles.Create(r.Context(), role); err != nil {
		if errors.Is(err, repository.ErrRoleExists) {
			respondWithError(w, http.StatusBadRequest, "ROLE_EXISTS", "Role already exists")
			return
		}
		h.logger.WithError(err).Error("Failed to create role")
		respondWithError(w, http.StatusInternalServerError, "ROLE_CREATION_FAILED", "Failed to create role")
		return
	}

	respondWithJSON(w, http.StatusCreated, role)
}

func (h *UserHandlers) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req AssignRoleRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	role, err := h.roles.GetByID(r.Context(), req.RoleID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get role")
		respondWithError(w, http.StatusInternalServerError, "ROLE_ASSIGNMENT_FAILED", "Failed to assign role")
		return
	}
	if role == nil {
		respondWithError(w, http.StatusNotFound, "ROLE_NOT_FOUND", "Role not found")
		return
	}

	user, err := h.users.AssignRole(r.Context(), req.UserID, role.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to assign role")
		respondWithError(w, http.StatusInternalServerError, "ROLE_ASSIGNMENT_FAILED", "Failed to assign role")
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_uid": user.ID,
		"role":     role.Name,
	}).Info("Role assigned")
	respondWithJSON(w, http.StatusOK, user)
}
