package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"platChallengesAPI/internal/profile"
)

type ProfileStore struct {
	db *pgxpool.Pool
}

func NewProfileStore(db *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Profile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

func (s *ProfileStore) ProfileByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error) {
	return s.get(ctx, `WHERE clerk_id = $1`, clerkID)
}

func (s *ProfileStore) get(ctx context.Context, where string, arg any) (*profile.Profile, error) {
	p := &profile.Profile{}
	err := s.db.QueryRow(ctx, `
		SELECT id, clerk_id, online_id, timezone, created_at
		FROM profiles `+where, arg).Scan(&p.ID, &p.ClerkID, &p.OnlineID, &p.Timezone, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profile.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// UpsertProfile creates the profile for req.ClerkID or updates its online id
// and time zone.
func (s *ProfileStore) UpsertProfile(ctx context.Context, req *profile.UpsertProfileRequest) (*profile.Profile, error) {
	p := &profile.Profile{}
	err := s.db.QueryRow(ctx, `
		INSERT INTO profiles (clerk_id, online_id, timezone)
		VALUES ($1, $2, $3)
		ON CONFLICT (clerk_id) DO UPDATE
		SET online_id = EXCLUDED.online_id, timezone = EXCLUDED.timezone
		RETURNING id, clerk_id, online_id, timezone, created_at
	`, req.ClerkID, req.OnlineID, req.Timezone).Scan(&p.ID, &p.ClerkID, &p.OnlineID, &p.Timezone, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return p, nil
}

// DeleteProfileByClerkID removes the profile; challenges, slots and earned
// trophies cascade.
func (s *ProfileStore) DeleteProfileByClerkID(ctx context.Context, clerkID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM profiles WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return profile.ErrNotFound
	}
	return nil
}
