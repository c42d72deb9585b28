package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/cognisync/cognisync-api/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR [handlers.writeJSON] encode failed: %v", err)
	}
}

// writeError maps service sentinels to HTTP statuses. Authorization failures
// are surfaced as 404 so record existence is not leaked; the internal
// distinction survives in the audit trail.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrFileTypeNotAllowed),
		errors.Is(err, domain.ErrUnsupportedFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrFileTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidMFACode):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrMFARequired):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrAccountLocked),
		errors.Is(err, domain.ErrAccountNotActive):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrEmailExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrFileNotFound),
		errors.Is(err, domain.ErrAccessDenied):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		log.Printf("ERROR [handlers] internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
