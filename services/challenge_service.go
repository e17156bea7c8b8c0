package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"platChallengesAPI/internal/catalog"
	"platChallengesAPI/internal/challenge"
	"platChallengesAPI/internal/logger"
	"platChallengesAPI/internal/profile"
	"platChallengesAPI/internal/subgenre"
)

type ChallengeService struct {
	store      challenge.Store
	profiles   ProfileStore
	catalog    Catalog
	exclusions *ExclusionService
	covers     *CoverService
	progress   *ProgressService
	resolver   *subgenre.Resolver
	now        func() time.Time
	log        *logger.Logger
}

func NewChallengeService(
	store challenge.Store,
	profiles ProfileStore,
	cat Catalog,
	exclusions *ExclusionService,
	covers *CoverService,
	progress *ProgressService,
	resolver *subgenre.Resolver,
	log *logger.Logger,
) *ChallengeService {
	return &ChallengeService{
		store:      store,
		profiles:   profiles,
		catalog:    cat,
		exclusions: exclusions,
		covers:     covers,
		progress:   progress,
		resolver:   resolver,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log.With("service", "ChallengeService"),
	}
}

// ChallengeDetail is a challenge with its slots. Only the slot lists matching
// the challenge type are set.
type ChallengeDetail struct {
	*challenge.Challenge
	LetterSlots []*challenge.LetterSlot    `json:"letter_slots,omitempty"`
	DaySlots    []*challenge.DaySlot       `json:"day_slots,omitempty"`
	GenreSlots  []*challenge.GenreSlot     `json:"genre_slots,omitempty"`
	BonusSlots  []*challenge.BonusSlot     `json:"bonus_slots,omitempty"`
	Subgenres   map[string]subgenre.Status `json:"subgenres,omitempty"`
}

func (s *ChallengeService) CreateLetterChallenge(ctx context.Context, clerkID, name string) (*challenge.Challenge, error) {
	return s.create(ctx, clerkID, challenge.TypeLetter, name)
}

// CreateDayChallenge creates the calendar and backfills it from the trophy
// history. A failed backfill is logged; the calendar stays unmarked and the
// next recalculation rescans it in full.
func (s *ChallengeService) CreateDayChallenge(ctx context.Context, clerkID, name string) (*challenge.Challenge, error) {
	ch, err := s.create(ctx, clerkID, challenge.TypeDay, name)
	if err != nil {
		return nil, err
	}
	if err := s.progress.Backfill(ctx, ch); err != nil {
		s.log.Error("Backfill failed", "profile_id", ch.ProfileID, "challenge_id", ch.ID, "error", err)
	}
	return ch, nil
}

func (s *ChallengeService) CreateGenreChallenge(ctx context.Context, clerkID, name string) (*challenge.Challenge, error) {
	return s.create(ctx, clerkID, challenge.TypeGenre, name)
}

func (s *ChallengeService) create(ctx context.Context, clerkID string, typ challenge.Type, name string) (*challenge.Challenge, error) {
	p, err := s.profile(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	active, err := s.store.HasActiveChallenge(ctx, p.ID, typ)
	if err != nil {
		return nil, fmt.Errorf("failed to check active challenges: %w", err)
	}
	if active {
		return nil, ErrActiveChallengeExists
	}

	ch := challenge.New(p.ID, typ, strings.TrimSpace(name), s.now())
	if err := s.store.CreateChallenge(ctx, ch, challenge.NewSlotSet(ch)); err != nil {
		if errors.Is(err, challenge.ErrActiveExists) {
			return nil, ErrActiveChallengeExists
		}
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	s.log.Info("Challenge created", "profile_id", p.ID, "challenge_id", ch.ID, "type", typ)
	return ch, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, clerkID string, id uuid.UUID) (*ChallengeDetail, error) {
	ch, err := s.owned(ctx, clerkID, id)
	if err != nil {
		return nil, err
	}

	detail := &ChallengeDetail{Challenge: ch}
	switch ch.Type {
	case challenge.TypeLetter:
		detail.LetterSlots, err = s.store.LetterSlots(ctx, ch.ID)
	case challenge.TypeDay:
		detail.DaySlots, err = s.store.DaySlots(ctx, ch.ID)
	case challenge.TypeGenre:
		detail.GenreSlots, err = s.store.GenreSlots(ctx, ch.ID)
		if err == nil {
			detail.BonusSlots, err = s.store.BonusSlots(ctx, ch.ID)
		}
		if err == nil {
			detail.Subgenres = s.resolver.Status(challenge.Contributions(detail.GenreSlots, detail.BonusSlots))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slots: %w", err)
	}
	return detail, nil
}

// GetExclusionSet returns the sorted ids the profile may not assign in a
// challenge of typ.
func (s *ChallengeService) GetExclusionSet(ctx context.Context, clerkID string, typ challenge.Type) ([]int64, error) {
	p, err := s.profile(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	set, err := s.exclusions.ExclusionSet(ctx, p.ID, typ)
	if err != nil {
		return nil, err
	}
	return set.Slice(), nil
}

// GetSubgenreStatus maps each collected curated subgenre to assigned or
// platted. Uncollected subgenres are absent.
func (s *ChallengeService) GetSubgenreStatus(ctx context.Context, clerkID string, id uuid.UUID) (map[string]subgenre.Status, error) {
	ch, err := s.owned(ctx, clerkID, id)
	if err != nil {
		return nil, err
	}
	if ch.Type != challenge.TypeGenre {
		return nil, ErrChallengeTypeMismatch
	}
	slots, err := s.store.GenreSlots(ctx, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load genre slots: %w", err)
	}
	bonus, err := s.store.BonusSlots(ctx, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bonus slots: %w", err)
	}
	return s.resolver.Status(challenge.Contributions(slots, bonus)), nil
}

func (s *ChallengeService) DeleteChallenge(ctx context.Context, clerkID string, id uuid.UUID) error {
	ch, err := s.owned(ctx, clerkID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteChallenge(ctx, ch.ID); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	s.log.Info("Challenge deleted", "profile_id", ch.ProfileID, "challenge_id", ch.ID)
	return nil
}

// RepickCover chooses a new random cover among the assigned slots.
func (s *ChallengeService) RepickCover(ctx context.Context, clerkID string, id uuid.UUID) (string, error) {
	ch, err := s.active(ctx, clerkID, id)
	if err != nil {
		return "", err
	}
	if ch.Type == challenge.TypeDay {
		return "", ErrChallengeTypeMismatch
	}
	return s.covers.PickCover(ctx, ch.ID)
}

func (s *ChallengeService) AssignLetter(ctx context.Context, clerkID string, id uuid.UUID, letter string, gameID int64) (*challenge.Challenge, error) {
	letter = strings.ToUpper(letter)
	if !challenge.IsLetter(letter) {
		return nil, ErrInvalidKey
	}
	ch, err := s.activeOfType(ctx, clerkID, id, challenge.TypeLetter)
	if err != nil {
		return nil, err
	}

	game, err := s.catalog.Game(ctx, gameID)
	if err != nil {
		if errors.Is(err, catalog.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	if game.IsShovelware {
		return nil, ErrExcluded
	}
	if challenge.TitleLetter(game.Title) != letter {
		return nil, ErrLetterMismatch
	}
	if err := s.checkExcluded(ctx, ch, gameID); err != nil {
		return nil, err
	}

	err = s.mutate(ctx, ch, func(tx challenge.Store) error {
		slots, err := tx.LetterSlots(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("failed to load letter slots: %w", err)
		}
		var target *challenge.LetterSlot
		for _, slot := range slots {
			if slot.Letter == letter {
				target = slot
				continue
			}
			if slot.GameID != nil && *slot.GameID == gameID {
				return ErrAlreadyAssigned
			}
		}
		if target == nil {
			return ErrInvalidKey
		}
		if target.IsCompleted {
			return ErrSlotCompleted
		}

		now := s.now()
		target.GameID = &gameID
		target.GameTitle = game.Title
		target.AssignedAt = &now
		if err := tx.SaveLetterSlots(ctx, []*challenge.LetterSlot{target}); err != nil {
			return fmt.Errorf("failed to save letter slot: %w", err)
		}
		if ch.CoverKey == "" {
			return s.covers.choose(ctx, tx, ch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *ChallengeService) ClearLetter(ctx context.Context, clerkID string, id uuid.UUID, letter string) (*challenge.Challenge, error) {
	letter = strings.ToUpper(letter)
	if !challenge.IsLetter(letter) {
		return nil, ErrInvalidKey
	}
	ch, err := s.activeOfType(ctx, clerkID, id, challenge.TypeLetter)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, ch, func(tx challenge.Store) error {
		slots, err := tx.LetterSlots(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("failed to load letter slots: %w", err)
		}
		var target *challenge.LetterSlot
		for _, slot := range slots {
			if slot.Letter == letter {
				target = slot
				break
			}
		}
		if target == nil {
			return ErrInvalidKey
		}
		if target.IsCompleted {
			return ErrSlotCompleted
		}
		if target.GameID == nil {
			return nil
		}

		target.GameID = nil
		target.GameTitle = ""
		target.AssignedAt = nil
		if err := tx.SaveLetterSlots(ctx, []*challenge.LetterSlot{target}); err != nil {
			return fmt.Errorf("failed to save letter slot: %w", err)
		}
		_, err = s.covers.repickIfCleared(ctx, tx, ch, letter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *ChallengeService) AssignGenre(ctx context.Context, clerkID string, id uuid.UUID, genre string, conceptID int64) (*challenge.Challenge, error) {
	genre = strings.ToUpper(genre)
	if !challenge.IsGenre(genre) {
		return nil, ErrInvalidKey
	}
	ch, err := s.activeOfType(ctx, clerkID, id, challenge.TypeGenre)
	if err != nil {
		return nil, err
	}

	concept, err := s.concept(ctx, conceptID)
	if err != nil {
		return nil, err
	}
	if !concept.HasGenre(genre) {
		return nil, ErrGenreMismatch
	}
	if err := s.checkExcluded(ctx, ch, conceptID); err != nil {
		return nil, err
	}

	err = s.mutate(ctx, ch, func(tx challenge.Store) error {
		slots, bonus, err := genreRows(ctx, tx, ch.ID)
		if err != nil {
			return err
		}
		var target *challenge.GenreSlot
		for _, slot := range slots {
			if slot.Genre == genre {
				target = slot
				continue
			}
			if slot.ConceptID != nil && *slot.ConceptID == conceptID {
				return ErrAlreadyAssigned
			}
		}
		for _, b := range bonus {
			if b.ConceptID == conceptID {
				return ErrAlreadyAssigned
			}
		}
		if target == nil {
			return ErrInvalidKey
		}
		if target.IsCompleted {
			return ErrSlotCompleted
		}

		now := s.now()
		target.ConceptID = &conceptID
		target.AssignedAt = &now
		if err := tx.SaveGenreSlots(ctx, []*challenge.GenreSlot{target}); err != nil {
			return fmt.Errorf("failed to save genre slot: %w", err)
		}
		if ch.CoverKey == "" {
			return s.covers.choose(ctx, tx, ch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *ChallengeService) ClearGenre(ctx context.Context, clerkID string, id uuid.UUID, genre string) (*challenge.Challenge, error) {
	genre = strings.ToUpper(genre)
	if !challenge.IsGenre(genre) {
		return nil, ErrInvalidKey
	}
	ch, err := s.activeOfType(ctx, clerkID, id, challenge.TypeGenre)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, ch, func(tx challenge.Store) error {
		slots, err := tx.GenreSlots(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("failed to load genre slots: %w", err)
		}
		var target *challenge.GenreSlot
		for _, slot := range slots {
			if slot.Genre == genre {
				target = slot
				break
			}
		}
		if target == nil {
			return ErrInvalidKey
		}
		if target.IsCompleted {
			return ErrSlotCompleted
		}
		if target.ConceptID == nil {
			return nil
		}

		target.ConceptID = nil
		target.AssignedAt = nil
		if err := tx.SaveGenreSlots(ctx, []*challenge.GenreSlot{target}); err != nil {
			return fmt.Errorf("failed to save genre slot: %w", err)
		}
		_, err = s.covers.repickIfCleared(ctx, tx, ch, genre)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// AddBonus adds an unkeyed slot to a genre challenge.
func (s *ChallengeService) AddBonus(ctx context.Context, clerkID string, id uuid.UUID, conceptID int64) (*challenge.BonusSlot, error) {
	ch, err := s.activeOfType(ctx, clerkID, id, challenge.TypeGenre)
	if err != nil {
		return nil, err
	}
	if _, err := s.concept(ctx, conceptID); err != nil {
		return nil, err
	}
	if err := s.checkExcluded(ctx, ch, conceptID); err != nil {
		return nil, err
	}

	slot := &challenge.BonusSlot{
		ID:          uuid.New(),
		ChallengeID: ch.ID,
		ConceptID:   conceptID,
		AssignedAt:  s.now(),
	}
	err = s.mutate(ctx, ch, func(tx challenge.Store) error {
		slots, bonus, err := genreRows(ctx, tx, ch.ID)
		if err != nil {
			return err
		}
		for _, g := range slots {
			if g.ConceptID != nil && *g.ConceptID == conceptID {
				return ErrAlreadyAssigned
			}
		}
		for _, b := range bonus {
			if b.ConceptID == conceptID {
				return ErrAlreadyAssigned
			}
		}
		if err := tx.InsertBonusSlot(ctx, slot); err != nil {
			return fmt.Errorf("failed to insert bonus slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *ChallengeService) RemoveBonus(ctx context.Context, clerkID string, id, slotID uuid.UUID) (*challenge.Challenge, error) {
	ch, err := s.activeOfType(ctx, clerkID, id, challenge.TypeGenre)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, ch, func(tx challenge.Store) error {
		bonus, err := tx.BonusSlots(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("failed to load bonus slots: %w", err)
		}
		for _, b := range bonus {
			if b.ID != slotID {
				continue
			}
			if b.IsCompleted {
				return ErrSlotCompleted
			}
			if err := tx.DeleteBonusSlot(ctx, b.ID); err != nil {
				return fmt.Errorf("failed to delete bonus slot: %w", err)
			}
			return nil
		}
		return ErrSlotNotFound
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// mutate runs fn and the recount of ch in one transaction.
func (s *ChallengeService) mutate(ctx context.Context, ch *challenge.Challenge, fn func(tx challenge.Store) error) error {
	var completedNow bool
	err := s.store.WithTx(ctx, func(tx challenge.Store) error {
		if err := fn(tx); err != nil {
			return err
		}
		var err error
		completedNow, err = s.progress.persistTx(ctx, tx, ch)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, challenge.ErrAlreadyComplete):
			return ErrChallengeInactive
		case errors.Is(err, challenge.ErrDuplicateAssignment):
			return ErrAlreadyAssigned
		}
		return err
	}
	s.progress.afterCommit(ctx, ch, completedNow)
	return nil
}

func (s *ChallengeService) checkExcluded(ctx context.Context, ch *challenge.Challenge, id int64) error {
	excluded, err := s.exclusions.ExclusionSet(ctx, ch.ProfileID, ch.Type)
	if err != nil {
		return err
	}
	if excluded.Has(id) {
		return ErrExcluded
	}
	return nil
}

func (s *ChallengeService) concept(ctx context.Context, id int64) (*catalog.Concept, error) {
	c, err := s.catalog.Concept(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrConceptNotFound) {
			return nil, ErrConceptNotFound
		}
		return nil, fmt.Errorf("failed to load concept: %w", err)
	}
	return c, nil
}

func (s *ChallengeService) profile(ctx context.Context, clerkID string) (*profile.Profile, error) {
	p, err := s.profiles.ProfileByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

// owned loads a non-deleted challenge belonging to the caller. Challenges of
// other profiles are reported as not found.
func (s *ChallengeService) owned(ctx context.Context, clerkID string, id uuid.UUID) (*challenge.Challenge, error) {
	p, err := s.profile(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	ch, err := s.store.GetChallenge(ctx, id)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}
	if ch.ProfileID != p.ID || ch.IsDeleted {
		return nil, ErrChallengeNotFound
	}
	return ch, nil
}

func (s *ChallengeService) active(ctx context.Context, clerkID string, id uuid.UUID) (*challenge.Challenge, error) {
	ch, err := s.owned(ctx, clerkID, id)
	if err != nil {
		return nil, err
	}
	if !ch.IsActive() {
		return nil, ErrChallengeInactive
	}
	return ch, nil
}

func (s *ChallengeService) activeOfType(ctx context.Context, clerkID string, id uuid.UUID, typ challenge.Type) (*challenge.Challenge, error) {
	ch, err := s.active(ctx, clerkID, id)
	if err != nil {
		return nil, err
	}
	if ch.Type != typ {
		return nil, ErrChallengeTypeMismatch
	}
	return ch, nil
}

func genreRows(ctx context.Context, st challenge.Store, challengeID uuid.UUID) ([]*challenge.GenreSlot, []*challenge.BonusSlot, error) {
	slots, err := st.GenreSlots(ctx, challengeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load genre slots: %w", err)
	}
	bonus, err := st.BonusSlots(ctx, challengeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load bonus slots: %w", err)
	}
	return slots, bonus, nil
}
