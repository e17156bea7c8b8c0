package challenge

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeLetter Type = "letter"
	TypeDay    Type = "day"
	TypeGenre  Type = "genre"
)

// Types lists challenge types in the order the sync entry point processes them.
var Types = []Type{TypeLetter, TypeGenre, TypeDay}

func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeLetter, TypeDay, TypeGenre:
		return Type(s), true
	}
	return "", false
}

func (t Type) DefaultName() string {
	switch t {
	case TypeLetter:
		return "A-Z Challenge"
	case TypeDay:
		return "Platinum Calendar"
	case TypeGenre:
		return "Genre Challenge"
	}
	return string(t)
}

// TotalItems is the number of keyed slots a challenge of this type owns.
func (t Type) TotalItems() int {
	switch t {
	case TypeLetter:
		return len(Letters)
	case TypeDay:
		return CalendarDayCount
	case TypeGenre:
		return len(Genres)
	}
	return 0
}

// Challenge is one grid owned by a profile. BackfilledAt is set once a day
// challenge's calendar has been filled from the full trophy history.
type Challenge struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	ProfileID      uuid.UUID  `json:"profile_id" db:"profile_id"`
	Type           Type       `json:"type" db:"type"`
	Name           string     `json:"name" db:"name"`
	TotalItems     int        `json:"total_items" db:"total_items"`
	FilledCount    int        `json:"filled_count" db:"filled_count"`
	CompletedCount int        `json:"completed_count" db:"completed_count"`
	SubgenreCount  int        `json:"subgenre_count" db:"subgenre_count"`
	BonusCount     int        `json:"bonus_count" db:"bonus_count"`
	CoverKey       string     `json:"cover_key" db:"cover_key"`
	IsComplete     bool       `json:"is_complete" db:"is_complete"`
	CompletedAt    *time.Time `json:"completed_at" db:"completed_at"`
	BackfilledAt   *time.Time `json:"backfilled_at,omitempty" db:"backfilled_at"`
	IsDeleted      bool       `json:"-" db:"is_deleted"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// New returns an empty challenge of the given type. Slots are built separately
// with NewSlotSet and must be persisted together with the challenge.
func New(profileID uuid.UUID, typ Type, name string, now time.Time) *Challenge {
	if name == "" {
		name = typ.DefaultName()
	}
	return &Challenge{
		ID:         uuid.New(),
		ProfileID:  profileID,
		Type:       typ,
		Name:       name,
		TotalItems: typ.TotalItems(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Counters are the derived values cached on a challenge row.
type Counters struct {
	Filled    int
	Completed int
	Subgenres int
	Bonus     int
}

func (c *Challenge) Counters() Counters {
	return Counters{
		Filled:    c.FilledCount,
		Completed: c.CompletedCount,
		Subgenres: c.SubgenreCount,
		Bonus:     c.BonusCount,
	}
}

// Apply overwrites the cached counters and reports whether any changed.
func (c *Challenge) Apply(counts Counters) bool {
	changed := c.Counters() != counts
	c.FilledCount = counts.Filled
	c.CompletedCount = counts.Completed
	c.SubgenreCount = counts.Subgenres
	c.BonusCount = counts.Bonus
	return changed
}

// IsTerminal reports whether every keyed slot is completed.
func (c *Challenge) IsTerminal() bool {
	return c.TotalItems > 0 && c.CompletedCount == c.TotalItems
}

// MarkComplete flips the challenge to complete when it is terminal. It returns
// true only on the transition; a challenge that is already complete is never
// touched again.
func (c *Challenge) MarkComplete(at time.Time) bool {
	if c.IsComplete || !c.IsTerminal() {
		return false
	}
	c.IsComplete = true
	c.CompletedAt = &at
	return true
}

// IsActive reports whether the challenge still accepts assignments and
// recalculation.
func (c *Challenge) IsActive() bool {
	return !c.IsDeleted && !c.IsComplete
}
