package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platChallengesAPI/internal/achievement"
	"platChallengesAPI/internal/profile"
	"platChallengesAPI/middleware"
	"platChallengesAPI/services"
)

type profileStub struct {
	profile *profile.Profile
}

func (s *profileStub) GetProfile(ctx context.Context, clerkID string) (*profile.Profile, error) {
	if s.profile == nil || s.profile.ClerkID != clerkID {
		return nil, services.ErrProfileNotFound
	}
	return s.profile, nil
}

func (s *profileStub) GetAchievements(ctx context.Context, clerkID string) ([]*achievement.AchievementWithStatus, error) {
	if s.profile == nil {
		return nil, services.ErrProfileNotFound
	}
	at := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	return []*achievement.AchievementWithStatus{
		{Achievement: achievement.Achievement{Name: "Alphabet Soup"}, Unlocked: true, UnlockedAt: &at},
		{Achievement: achievement.Achievement{Name: "Genre Hopper"}},
	}, nil
}

func profileRequest(stub *profileStub, path string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	NewProfileHandler(stub, stub).Register(r.PathPrefix("/api/v1").Subrouter())
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(middleware.WithClerkID(req.Context(), testClerkID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetProfile(t *testing.T) {
	stub := &profileStub{profile: &profile.Profile{ClerkID: testClerkID, OnlineID: "Kratos_77"}}

	rec := profileRequest(stub, "/api/v1/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"online_id":"Kratos_77"`)

	rec = profileRequest(&profileStub{}, "/api/v1/profile")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAchievements(t *testing.T) {
	stub := &profileStub{profile: &profile.Profile{ClerkID: testClerkID}}

	rec := profileRequest(stub, "/api/v1/profile/achievements")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Alphabet Soup"`)
	assert.Contains(t, rec.Body.String(), `"unlocked":true`)
	assert.Contains(t, rec.Body.String(), `"unlocked":false`)
}
