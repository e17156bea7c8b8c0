package challenge

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("challenge not found")
	ErrActiveExists    = errors.New("an active challenge of this type already exists")
	ErrAlreadyComplete = errors.New("challenge is already complete")

	// ErrDuplicateAssignment is returned when a game or concept already
	// occupies another slot of the same challenge.
	ErrDuplicateAssignment = errors.New("already assigned to another slot")
)

// Store persists challenges and their slots. WithTx runs fn against a store
// bound to a single transaction; every write inside fn commits or rolls back
// together.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error

	CreateChallenge(ctx context.Context, ch *Challenge, slots SlotSet) error
	GetChallenge(ctx context.Context, id uuid.UUID) (*Challenge, error)
	HasActiveChallenge(ctx context.Context, profileID uuid.UUID, typ Type) (bool, error)
	ActiveChallenges(ctx context.Context, profileID uuid.UUID, typ Type) ([]*Challenge, error)
	CompletedChallengeCount(ctx context.Context, profileID uuid.UUID, typ Type) (int, error)

	// SaveChallenge writes counters, cover key and completion state in a
	// single statement and bumps updated_at. It returns ErrAlreadyComplete
	// when the stored row is already complete.
	SaveChallenge(ctx context.Context, ch *Challenge) error
	SetCoverKey(ctx context.Context, id uuid.UUID, key string) error
	DeleteChallenge(ctx context.Context, id uuid.UUID) error

	LetterSlots(ctx context.Context, challengeID uuid.UUID) ([]*LetterSlot, error)
	DaySlots(ctx context.Context, challengeID uuid.UUID) ([]*DaySlot, error)
	GenreSlots(ctx context.Context, challengeID uuid.UUID) ([]*GenreSlot, error)
	BonusSlots(ctx context.Context, challengeID uuid.UUID) ([]*BonusSlot, error)

	SaveLetterSlots(ctx context.Context, slots []*LetterSlot) error
	SaveDaySlots(ctx context.Context, slots []*DaySlot) error
	SaveGenreSlots(ctx context.Context, slots []*GenreSlot) error
	SaveBonusSlots(ctx context.Context, slots []*BonusSlot) error
	InsertBonusSlot(ctx context.Context, slot *BonusSlot) error
	DeleteBonusSlot(ctx context.Context, id uuid.UUID) error
}
