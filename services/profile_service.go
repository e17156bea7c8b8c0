package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"platChallengesAPI/internal/logger"
	"platChallengesAPI/internal/profile"
)

type ProfileWriter interface {
	ProfileByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error)
	UpsertProfile(ctx context.Context, req *profile.UpsertProfileRequest) (*profile.Profile, error)
	DeleteProfileByClerkID(ctx context.Context, clerkID string) error
}

// ProfileService keeps profiles in step with Clerk users.
type ProfileService struct {
	store ProfileWriter
	log   *logger.Logger
}

func NewProfileService(store ProfileWriter, log *logger.Logger) *ProfileService {
	return &ProfileService{
		store: store,
		log:   log.With("service", "ProfileService"),
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, clerkID string) (*profile.Profile, error) {
	p, err := s.store.ProfileByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

// SyncClerkUser applies a user.created or user.updated payload. An unknown
// time zone is stored empty so day bucketing falls back to UTC.
func (s *ProfileService) SyncClerkUser(ctx context.Context, data json.RawMessage) (*profile.Profile, error) {
	var user profile.ClerkUserData
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user data: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("user data without id")
	}

	req := &profile.UpsertProfileRequest{
		ClerkID:  user.ID,
		OnlineID: strings.TrimSpace(user.PublicMetadata.OnlineID),
		Timezone: strings.TrimSpace(user.PublicMetadata.Timezone),
	}
	if req.OnlineID == "" {
		req.OnlineID = user.Username
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			s.log.Warn("Ignoring unknown time zone", "clerk_id", user.ID, "timezone", req.Timezone)
			req.Timezone = ""
		}
	}

	p, err := s.store.UpsertProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	s.log.Info("Profile synced", "clerk_id", user.ID, "profile_id", p.ID)
	return p, nil
}

// DeleteClerkUser removes the profile of a user.deleted payload. A profile
// that never existed is not an error.
func (s *ProfileService) DeleteClerkUser(ctx context.Context, data json.RawMessage) error {
	var user profile.ClerkUserData
	if err := json.Unmarshal(data, &user); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}
	if user.ID == "" {
		return fmt.Errorf("user data without id")
	}

	err := s.store.DeleteProfileByClerkID(ctx, user.ID)
	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		return err
	}
	s.log.Info("Profile deleted", "clerk_id", user.ID)
	return nil
}
