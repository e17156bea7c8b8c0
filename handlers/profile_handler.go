package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"platChallengesAPI/internal/achievement"
	"platChallengesAPI/internal/profile"
	"platChallengesAPI/middleware"
)

type ProfileReader interface {
	GetProfile(ctx context.Context, clerkID string) (*profile.Profile, error)
}

type AchievementLister interface {
	GetAchievements(ctx context.Context, clerkID string) ([]*achievement.AchievementWithStatus, error)
}

type ProfileHandler struct {
	profileService   ProfileReader
	milestoneService AchievementLister
}

func NewProfileHandler(profileService ProfileReader, milestoneService AchievementLister) *ProfileHandler {
	return &ProfileHandler{
		profileService:   profileService,
		milestoneService: milestoneService,
	}
}

func (h *ProfileHandler) Register(r *mux.Router) {
	r.HandleFunc("/profile", h.GetProfile).Methods("GET")
	r.HandleFunc("/profile/achievements", h.GetAchievements).Methods("GET")
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	p, err := h.profileService.GetProfile(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	achievements, err := h.milestoneService.GetAchievements(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, achievements)
}
