package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"platChallengesAPI/services"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes. Anything unknown is a
// 500 and its message is not echoed to the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrChallengeNotFound),
		errors.Is(err, services.ErrSlotNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrProfileNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrGameNotFound),
		errors.Is(err, services.ErrConceptNotFound),
		errors.Is(err, services.ErrInvalidKey),
		errors.Is(err, services.ErrChallengeTypeMismatch):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrLetterMismatch),
		errors.Is(err, services.ErrGenreMismatch),
		errors.Is(err, services.ErrExcluded):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, services.ErrActiveChallengeExists),
		errors.Is(err, services.ErrChallengeInactive),
		errors.Is(err, services.ErrSlotCompleted),
		errors.Is(err, services.ErrAlreadyAssigned),
		errors.Is(err, services.ErrRecalculationInProgress):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func respondWithServiceError(w http.ResponseWriter, err error) {
	code, message := statusFor(err)
	respondWithError(w, code, message)
}
