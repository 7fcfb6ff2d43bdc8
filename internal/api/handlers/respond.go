package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/ast-secret-be/internal/services"
	"github.com/rs/zerolog/log"
)

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeErrorMessage sends {"error": msg}.
func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps a service error onto its HTTP status. notFoundMsg is
// what the client sees for ErrNotFound; internal details are only logged.
func writeError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, services.ErrValidation):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrConflict):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	default:
		writeErrorMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeBody reads a JSON request body into v, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
