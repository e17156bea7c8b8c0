package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"platChallengesAPI/internal/challenge"
)

// CoverService picks the challenge's cover art key. Selection is random on
// purpose; tests swap pick for a deterministic function.
type CoverService struct {
	store challenge.Store
	pick  func(n int) int
}

func NewCoverService(store challenge.Store) *CoverService {
	return &CoverService{store: store, pick: rand.IntN}
}

// PickCover chooses a new cover among the assigned slot keys and persists it.
// With nothing assigned the cover is cleared.
func (s *CoverService) PickCover(ctx context.Context, challengeID uuid.UUID) (string, error) {
	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return "", ErrChallengeNotFound
		}
		return "", fmt.Errorf("failed to load challenge: %w", err)
	}
	if err := s.choose(ctx, s.store, ch); err != nil {
		return "", err
	}
	if err := s.store.SetCoverKey(ctx, ch.ID, ch.CoverKey); err != nil {
		return "", fmt.Errorf("failed to save cover: %w", err)
	}
	return ch.CoverKey, nil
}

// RepickCoverIfCleared re-picks the cover when clearedKey held it. It is a
// no-op for any other key.
func (s *CoverService) RepickCoverIfCleared(ctx context.Context, challengeID uuid.UUID, clearedKey string) error {
	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return ErrChallengeNotFound
		}
		return fmt.Errorf("failed to load challenge: %w", err)
	}
	changed, err := s.repickIfCleared(ctx, s.store, ch, clearedKey)
	if err != nil || !changed {
		return err
	}
	if err := s.store.SetCoverKey(ctx, ch.ID, ch.CoverKey); err != nil {
		return fmt.Errorf("failed to save cover: %w", err)
	}
	return nil
}

func (s *CoverService) repickIfCleared(ctx context.Context, st challenge.Store, ch *challenge.Challenge, clearedKey string) (bool, error) {
	if clearedKey == "" || ch.CoverKey != clearedKey {
		return false, nil
	}
	if err := s.choose(ctx, st, ch); err != nil {
		return false, err
	}
	return true, nil
}

// choose sets ch.CoverKey from the slot rows visible through st without
// persisting it.
func (s *CoverService) choose(ctx context.Context, st challenge.Store, ch *challenge.Challenge) error {
	var keys []string
	switch ch.Type {
	case challenge.TypeLetter:
		slots, err := st.LetterSlots(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("failed to load letter slots: %w", err)
		}
		keys = challenge.AssignedLetterKeys(slots)
	case challenge.TypeGenre:
		slots, err := st.GenreSlots(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("failed to load genre slots: %w", err)
		}
		keys = challenge.AssignedGenreKeys(slots)
	default:
		return nil
	}

	if len(keys) == 0 {
		ch.CoverKey = ""
		return nil
	}
	ch.CoverKey = keys[s.pick(len(keys))]
	return nil
}
