// Package trophy holds the values the engine reads from the trophy-sync
// pipeline's store.
package trophy

import (
	"time"

	"platChallengesAPI/internal/challenge"
)

// Exclusion thresholds. Letter exclusion is inclusive of the threshold,
// genre exclusion is strictly above it.
const (
	LetterExclusionPercent = 50
	GenreExclusionPercent  = 50
)

// Earned is one qualifying (platinum) trophy from the profile's history.
type Earned struct {
	GameID    int64     `json:"game_id" db:"game_id"`
	ConceptID *int64    `json:"concept_id" db:"concept_id"`
	EarnedAt  time.Time `json:"earned_at" db:"earned_at"`
}

// PlayedGame summarises a profile's progress on one game.
type PlayedGame struct {
	GameID      int64  `json:"game_id" db:"game_id"`
	ConceptID   *int64 `json:"concept_id" db:"concept_id"`
	BaseEarned  int    `json:"base_earned" db:"base_earned"`
	BaseTotal   int    `json:"base_total" db:"base_total"`
	Progress    int    `json:"progress" db:"progress"`
	HasPlatinum bool   `json:"has_platinum" db:"has_platinum"`
}

// ExcludesGame reports whether the game is off-limits for letter slots: at
// least half of its base trophy group is earned. A platinum always qualifies.
func (p PlayedGame) ExcludesGame() bool {
	if p.HasPlatinum {
		return true
	}
	if p.BaseTotal <= 0 {
		return false
	}
	return p.BaseEarned*100 >= p.BaseTotal*LetterExclusionPercent
}

// ExcludesConcept reports whether this game makes its concept off-limits for
// genre slots: a platinum, or overall progress above the threshold.
func (p PlayedGame) ExcludesConcept() bool {
	if p.ConceptID == nil {
		return false
	}
	return p.HasPlatinum || p.Progress > GenreExclusionPercent
}

// DayBucket aggregates the qualifying trophies earned on one calendar day.
type DayBucket struct {
	First Earned
	Count int
}

// BucketByDay groups history by local calendar day. The earliest trophy of
// each day is kept as First; ties keep the one seen first. Feb 29 is dropped
// because no slot exists for it.
func BucketByDay(history []Earned, loc *time.Location) map[challenge.MonthDay]*DayBucket {
	buckets := make(map[challenge.MonthDay]*DayBucket)
	for _, e := range history {
		md := challenge.MonthDayOf(e.EarnedAt, loc)
		if md.IsLeapDay() {
			continue
		}
		b, ok := buckets[md]
		if !ok {
			buckets[md] = &DayBucket{First: e, Count: 1}
			continue
		}
		b.Count++
		if e.EarnedAt.Before(b.First.EarnedAt) {
			b.First = e
		}
	}
	return buckets
}
