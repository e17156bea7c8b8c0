package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"platChallengesAPI/internal/challenge"
	"platChallengesAPI/internal/logger"
	"platChallengesAPI/internal/subgenre"
	"platChallengesAPI/middleware"
	"platChallengesAPI/services"
)

// ChallengeAPI is the part of services.ChallengeService the handlers call.
type ChallengeAPI interface {
	CreateLetterChallenge(ctx context.Context, clerkID, name string) (*challenge.Challenge, error)
	CreateDayChallenge(ctx context.Context, clerkID, name string) (*challenge.Challenge, error)
	CreateGenreChallenge(ctx context.Context, clerkID, name string) (*challenge.Challenge, error)
	GetChallenge(ctx context.Context, clerkID string, id uuid.UUID) (*services.ChallengeDetail, error)
	GetExclusionSet(ctx context.Context, clerkID string, typ challenge.Type) ([]int64, error)
	GetSubgenreStatus(ctx context.Context, clerkID string, id uuid.UUID) (map[string]subgenre.Status, error)
	DeleteChallenge(ctx context.Context, clerkID string, id uuid.UUID) error
	RepickCover(ctx context.Context, clerkID string, id uuid.UUID) (string, error)
	AssignLetter(ctx context.Context, clerkID string, id uuid.UUID, letter string, gameID int64) (*challenge.Challenge, error)
	ClearLetter(ctx context.Context, clerkID string, id uuid.UUID, letter string) (*challenge.Challenge, error)
	AssignGenre(ctx context.Context, clerkID string, id uuid.UUID, genre string, conceptID int64) (*challenge.Challenge, error)
	ClearGenre(ctx context.Context, clerkID string, id uuid.UUID, genre string) (*challenge.Challenge, error)
	AddBonus(ctx context.Context, clerkID string, id uuid.UUID, conceptID int64) (*challenge.BonusSlot, error)
	RemoveBonus(ctx context.Context, clerkID string, id, slotID uuid.UUID) (*challenge.Challenge, error)
}

type ChallengeHandler struct {
	challengeService ChallengeAPI
	log              *logger.Logger
}

func NewChallengeHandler(challengeService ChallengeAPI, log *logger.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
		log:              log.With("handler", "ChallengeHandler"),
	}
}

// Register mounts the challenge routes on r, which is expected to sit under
// /api/v1 behind the auth middleware.
func (h *ChallengeHandler) Register(r *mux.Router) {
	r.HandleFunc("/challenges/{type}", h.CreateChallenge).Methods("POST")
	r.HandleFunc("/challenges/{type}/exclusions", h.GetExclusions).Methods("GET")
	r.HandleFunc("/challenges/id/{id}", h.GetChallenge).Methods("GET")
	r.HandleFunc("/challenges/id/{id}", h.DeleteChallenge).Methods("DELETE")
	r.HandleFunc("/challenges/id/{id}/subgenres", h.GetSubgenres).Methods("GET")
	r.HandleFunc("/challenges/id/{id}/letters/{letter}", h.AssignLetter).Methods("PUT")
	r.HandleFunc("/challenges/id/{id}/letters/{letter}", h.ClearLetter).Methods("DELETE")
	r.HandleFunc("/challenges/id/{id}/genres/{genre}", h.AssignGenre).Methods("PUT")
	r.HandleFunc("/challenges/id/{id}/genres/{genre}", h.ClearGenre).Methods("DELETE")
	r.HandleFunc("/challenges/id/{id}/bonus", h.AddBonus).Methods("POST")
	r.HandleFunc("/challenges/id/{id}/bonus/{slotID}", h.RemoveBonus).Methods("DELETE")
	r.HandleFunc("/challenges/id/{id}/cover", h.RepickCover).Methods("POST")
}

type createChallengeRequest struct {
	Name string `json:"name"`
}

type assignGameRequest struct {
	GameID int64 `json:"game_id"`
}

type assignConceptRequest struct {
	ConceptID int64 `json:"concept_id"`
}

func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	// Day challenges backfill on create.
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	typ, ok := challenge.ParseType(mux.Vars(r)["type"])
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown challenge type")
		return
	}

	var req createChallengeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	var (
		ch  *challenge.Challenge
		err error
	)
	switch typ {
	case challenge.TypeLetter:
		ch, err = h.challengeService.CreateLetterChallenge(ctx, clerkID, req.Name)
	case challenge.TypeDay:
		ch, err = h.challengeService.CreateDayChallenge(ctx, clerkID, req.Name)
	case challenge.TypeGenre:
		ch, err = h.challengeService.CreateGenreChallenge(ctx, clerkID, req.Name)
	}
	if err != nil {
		h.log.Warn("Create challenge failed", "type", typ, "clerk_id", clerkID, "error", err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, ch)
}

func (h *ChallengeHandler) GetExclusions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	typ, ok := challenge.ParseType(mux.Vars(r)["type"])
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Unknown challenge type")
		return
	}

	ids, err := h.challengeService.GetExclusionSet(ctx, clerkID, typ)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"type":     typ,
		"excluded": ids,
	})
}

func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, id, ok := challengeRequest(w, r)
	if !ok {
		return
	}

	detail, err := h.challengeService.GetChallenge(ctx, clerkID, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

func (h *ChallengeHandler) DeleteChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, id, ok := challengeRequest(w, r)
	if !ok {
		return
	}

	if err := h.challengeService.DeleteChallenge(ctx, clerkID, id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Challenge deleted"})
}

func (h *ChallengeHandler) GetSubgenres(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, id, ok := challengeRequest(w, r)
	if !ok {
		return
	}

	status, err := h.challengeService.GetSubgenreStatus(ctx, clerkID, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

func (h *ChallengeHandler) AssignLetter(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, id, ok := challengeRequest(w, r)
	if !ok {
		return
	}

	var req assignGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == 0 {
		respondWithError(w, http.StatusBadRequest, "game_id is required")
		return
	}

	ch, err := h.challengeService.AssignLetter(ctx, clerkID, id, mux.Vars(r)["letter"], req.GameID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ch)
}

func (h *ChallengeHandler) ClearLetter(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, id, ok := challengeRequest(w, r)
	if !ok {
		return
	}

	ch, err := h.challengeService.ClearLetter(ctx, clerkID, id, mux.Vars(r)["letter"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ch)
}

func (h *ChallengeHandler) AssignGenre(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, id, ok := challengeRequest(w, r)
	if !ok {
		return
	}

	var req assignConceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConceptID == 0 {
		respondWithError(w, http.StatusBadRequest, "concept_id is required")
		return
	}

	ch, err := h.challengeService.AssignGenre(ctx, clerkID, id, mux.Vars(r)["genre"], req.ConceptID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ch)
}

func (h *ChallengeHandler) ClearGenre(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, id, ok := challengeRequest(w, r)
	if !ok {
		return
	}

	ch, err := h.challengeService.ClearGenre(ctx, clerkID, id, mux.Vars(r)["genre"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ch)
}

func (h *ChallengeHandler) AddBonus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, id, ok := challengeRequest(w, r)
	if !ok {
		return
	}

	var req assignConceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConceptID == 0 {
		respondWithError(w, http.StatusBadRequest, "concept_id is required")
		return
	}

	slot, err := h.challengeService.AddBonus(ctx, clerkID, id, req.ConceptID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, slot)
}

func (h *ChallengeHandler) RemoveBonus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, id, ok := challengeRequest(w, r)
	if !ok {
		return
	}

	slotID, err := uuid.Parse(mux.Vars(r)["slotID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid slot id")
		return
	}

	ch, err := h.challengeService.RemoveBonus(ctx, clerkID, id, slotID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ch)
}

func (h *ChallengeHandler) RepickCover(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, id, ok := challengeRequest(w, r)
	if !ok {
		return
	}

	cover, err := h.challengeService.RepickCover(ctx, clerkID, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"cover_key": cover})
}

// challengeRequest reads the caller and the {id} path variable, writing the
// error response itself when either is missing.
func challengeRequest(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	clerkID, ok := middleware.GetClerkID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return "", uuid.Nil, false
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid challenge id")
		return "", uuid.Nil, false
	}
	return clerkID, id, true
}
