package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"platChallengesAPI/internal/challenge"
	"platChallengesAPI/internal/logger"
	"platChallengesAPI/services"
)

type recalcStub struct {
	all        []uuid.UUID
	single     []challenge.Type
	challenges []uuid.UUID
	err        error
}

func (s *recalcStub) RecalculateAll(ctx context.Context, profileID uuid.UUID) error {
	s.all = append(s.all, profileID)
	return s.err
}

func (s *recalcStub) Recalculate(ctx context.Context, profileID uuid.UUID, typ challenge.Type) error {
	s.single = append(s.single, typ)
	return s.err
}

func (s *recalcStub) RecalculateChallenge(ctx context.Context, challengeID uuid.UUID) error {
	s.challenges = append(s.challenges, challengeID)
	return s.err
}

func syncRequest(stub *recalcStub, method, path string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	NewSyncHandler(stub, logger.NewNop()).Register(r.PathPrefix("/internal/sync").Subrouter())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRecalculateProfileRunsAllTypes(t *testing.T) {
	stub := &recalcStub{}
	profileID := uuid.New()

	rec := syncRequest(stub, http.MethodPost, "/internal/sync/profiles/"+profileID.String()+"/recalculate")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{profileID}, stub.all)
	assert.Empty(t, stub.single)
}

func TestRecalculateProfileSingleType(t *testing.T) {
	stub := &recalcStub{}

	rec := syncRequest(stub, http.MethodPost, "/internal/sync/profiles/"+uuid.NewString()+"/recalculate?type=day")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []challenge.Type{challenge.TypeDay}, stub.single)

	rec = syncRequest(stub, http.MethodPost, "/internal/sync/profiles/"+uuid.NewString()+"/recalculate?type=weekly")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecalculateProfileLockHeld(t *testing.T) {
	stub := &recalcStub{err: fmt.Errorf("letter: %w", services.ErrRecalculationInProgress)}

	rec := syncRequest(stub, http.MethodPost, "/internal/sync/profiles/"+uuid.NewString()+"/recalculate")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRecalculateChallenge(t *testing.T) {
	stub := &recalcStub{}
	id := uuid.New()

	rec := syncRequest(stub, http.MethodPost, "/internal/sync/challenges/"+id.String()+"/recalculate")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{id}, stub.challenges)

	stub.err = services.ErrChallengeNotFound
	rec = syncRequest(stub, http.MethodPost, "/internal/sync/challenges/"+id.String()+"/recalculate")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stub.err = services.ErrRecalculationInProgress
	rec = syncRequest(stub, http.MethodPost, "/internal/sync/challenges/"+id.String()+"/recalculate")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = syncRequest(stub, http.MethodPost, "/internal/sync/profiles/bad/recalculate")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
