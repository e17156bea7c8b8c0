package challenge

import (
	"time"

	"github.com/google/uuid"
)

type LetterSlot struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ChallengeID uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	Letter      string     `json:"letter" db:"letter"`
	GameID      *int64     `json:"game_id" db:"game_id"`
	GameTitle   string     `json:"game_title,omitempty"`
	AssignedAt  *time.Time `json:"assigned_at" db:"assigned_at"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
}

type DaySlot struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	ChallengeID      uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	Month            int        `json:"month" db:"month"`
	Day              int        `json:"day" db:"day"`
	GameID           *int64     `json:"game_id" db:"game_id"`
	IsFilled         bool       `json:"is_filled" db:"is_filled"`
	FilledAt         *time.Time `json:"filled_at" db:"filled_at"`
	PlatinumEarnedAt *time.Time `json:"platinum_earned_at" db:"platinum_earned_at"`
	PlatCount        int        `json:"plat_count" db:"plat_count"`
}

func (s *DaySlot) MonthDay() MonthDay {
	return MonthDay{Month: s.Month, Day: s.Day}
}

type GenreSlot struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ChallengeID uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	Genre       string     `json:"genre" db:"genre"`
	ConceptID   *int64     `json:"concept_id" db:"concept_id"`
	AssignedAt  *time.Time `json:"assigned_at" db:"assigned_at"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`

	// Raw subgenre tags of the assigned concept, joined in on load.
	ConceptSubgenres []string `json:"-"`
}

// BonusSlot is an unkeyed genre-challenge slot. It never counts toward
// total_items.
type BonusSlot struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ChallengeID uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	ConceptID   int64      `json:"concept_id" db:"concept_id"`
	AssignedAt  time.Time  `json:"assigned_at" db:"assigned_at"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`

	ConceptSubgenres []string `json:"-"`
}

// SlotSet holds the keyed slots created together with a challenge.
type SlotSet struct {
	Letters []*LetterSlot
	Days    []*DaySlot
	Genres  []*GenreSlot
}

// NewSlotSet builds the full, empty keyed slot set for ch.
func NewSlotSet(ch *Challenge) SlotSet {
	var set SlotSet
	switch ch.Type {
	case TypeLetter:
		set.Letters = make([]*LetterSlot, 0, len(Letters))
		for _, l := range Letters {
			set.Letters = append(set.Letters, &LetterSlot{ID: uuid.New(), ChallengeID: ch.ID, Letter: l})
		}
	case TypeDay:
		set.Days = make([]*DaySlot, 0, CalendarDayCount)
		for _, md := range CalendarDays() {
			set.Days = append(set.Days, &DaySlot{ID: uuid.New(), ChallengeID: ch.ID, Month: md.Month, Day: md.Day})
		}
	case TypeGenre:
		set.Genres = make([]*GenreSlot, 0, len(Genres))
		for _, g := range Genres {
			set.Genres = append(set.Genres, &GenreSlot{ID: uuid.New(), ChallengeID: ch.ID, Genre: g.Key})
		}
	}
	return set
}

// AssignedLetterKeys returns the letters that currently hold a game.
func AssignedLetterKeys(slots []*LetterSlot) []string {
	var keys []string
	for _, s := range slots {
		if s.GameID != nil {
			keys = append(keys, s.Letter)
		}
	}
	return keys
}

// AssignedGenreKeys returns the genres that currently hold a concept.
func AssignedGenreKeys(slots []*GenreSlot) []string {
	var keys []string
	for _, s := range slots {
		if s.ConceptID != nil {
			keys = append(keys, s.Genre)
		}
	}
	return keys
}
