package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"platChallengesAPI/internal/challenge"
	"platChallengesAPI/internal/logger"
)

// Recalculator is the part of services.ProgressService the sync pipeline
// drives.
type Recalculator interface {
	RecalculateAll(ctx context.Context, profileID uuid.UUID) error
	Recalculate(ctx context.Context, profileID uuid.UUID, typ challenge.Type) error
	RecalculateChallenge(ctx context.Context, challengeID uuid.UUID) error
}

// SyncHandler serves the endpoints the trophy-sync pipeline calls after it has
// written a batch for a profile.
type SyncHandler struct {
	progressService Recalculator
	log             *logger.Logger
}

func NewSyncHandler(progressService Recalculator, log *logger.Logger) *SyncHandler {
	return &SyncHandler{
		progressService: progressService,
		log:             log.With("handler", "SyncHandler"),
	}
}

// Register mounts the sync routes on r, which is expected to sit behind the
// sync secret middleware.
func (h *SyncHandler) Register(r *mux.Router) {
	r.HandleFunc("/profiles/{profileID}/recalculate", h.RecalculateProfile).Methods("POST")
	r.HandleFunc("/challenges/{id}/recalculate", h.RecalculateChallenge).Methods("POST")
}

// RecalculateProfile refreshes every active challenge of the profile, or only
// those of ?type= when given.
func (h *SyncHandler) RecalculateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	profileID, err := uuid.Parse(mux.Vars(r)["profileID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid profile id")
		return
	}

	if raw := r.URL.Query().Get("type"); raw != "" {
		typ, ok := challenge.ParseType(raw)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Unknown challenge type")
			return
		}
		err = h.progressService.Recalculate(ctx, profileID, typ)
	} else {
		err = h.progressService.RecalculateAll(ctx, profileID)
	}
	if err != nil {
		h.log.Error("Recalculation failed", "profile_id", profileID, "error", err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "recalculated"})
}

func (h *SyncHandler) RecalculateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge id")
		return
	}

	if err := h.progressService.RecalculateChallenge(ctx, id); err != nil {
		h.log.Error("Challenge recalculation failed", "challenge_id", id, "error", err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "recalculated"})
}
