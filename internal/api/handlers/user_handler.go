package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/ast-secret-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for profile management.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// CreateUserPayload defines the structure for signup requests.
type CreateUserPayload struct {
	Username string `json:"username"`
	UsePin   bool   `json:"usePin"`
	IsPublic bool   `json:"isPublic"`
}

// Create handles new profile creation.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserPayload
	if !decodeBody(w, r, &payload) {
		return
	}

	log.Info().Str("username", payload.Username).Bool("use_pin", payload.UsePin).Bool("is_public", payload.IsPublic).Msg("Creating new user")
	user, err := h.service.CreateUser(payload.Username, payload.UsePin, payload.IsPublic)
	if err != nil {
		if errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrConflict) {
			log.Warn().Err(err).Str("username", payload.Username).Msg("Rejected user creation")
		} else {
			log.Error().Err(err).Str("username", payload.Username).Msg("Failed to create user")
		}
		writeError(w, err, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.service.GetUserByID(id)
	if err != nil {
		logLookupError(err, "user_id", id)
		writeError(w, err, "User not found")
		return
	}

	log.Debug().Str("user_id", id).Msg("User fetched successfully")
	writeJSON(w, http.StatusOK, user)
}

// GetByUsername handles the public profile lookup behind a shared link.
func (h *UserHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	user, err := h.service.GetUserByUsername(username)
	if err != nil {
		logLookupError(err, "username", username)
		writeError(w, err, "User not found or expired")
		return
	}

	log.Debug().Str("username", username).Str("user_id", user.ID).Msg("User fetched successfully by username")
	writeJSON(w, http.StatusOK, user)
}

func logLookupError(err error, key, value string) {
	if errors.Is(err, services.ErrNotFound) {
		log.Warn().Err(err).Str(key, value).Msg("User not found")
		return
	}
	log.Error().Err(err).Str(key, value).Msg("Failed to fetch user")
}
